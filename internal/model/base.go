package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base — общие поля всех серверных сущностей: непрозрачный идентификатор и отметки времени.
type Base struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate присваивает идентификатор при первой вставке. После создания ID не меняется.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// SoftDeletable — явная возможность мягкого удаления.
// Хранилище исключает такие сущности из выборок, если отметка установлена.
type SoftDeletable interface {
	MarkDeleted(at time.Time)
	DeletedTime() *time.Time
}

// SoftDeleteColumn — имя колонки с отметкой удаления.
const SoftDeleteColumn = "deleted_at"

// SoftDelete встраивается в сущности, поддерживающие мягкое удаление.
type SoftDelete struct {
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (s *SoftDelete) MarkDeleted(at time.Time) {
	t := at.UTC()
	s.DeletedAt = &t
}

func (s *SoftDelete) DeletedTime() *time.Time {
	return s.DeletedAt
}

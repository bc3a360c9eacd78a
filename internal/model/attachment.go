package model

// AttachmentCategory — категория файла автомобиля. Набор закрыт.
type AttachmentCategory string

const (
	CategoryAnnual        AttachmentCategory = "annual"
	CategoryAuthorization AttachmentCategory = "authorization"
	CategoryDocument      AttachmentCategory = "document"
)

// AttachmentCategories в порядке обработки.
var AttachmentCategories = []AttachmentCategory{CategoryAnnual, CategoryAuthorization, CategoryDocument}

func (c AttachmentCategory) Valid() bool {
	switch c {
	case CategoryAnnual, CategoryAuthorization, CategoryDocument:
		return true
	}
	return false
}

// Attachment — файл, привязанный к автомобилю и (опционально) к локации.
// Мягкого удаления нет: заменённые вложения удаляются физически.
type Attachment struct {
	Base

	File     string             `gorm:"not null" json:"file"`
	Category AttachmentCategory `gorm:"size:32;not null;uniqueIndex:idx_attachment_car_category" json:"category"`

	// Не более одного вложения на пару (автомобиль, категория)
	CarID      *string `gorm:"type:uuid;uniqueIndex:idx_attachment_car_category" json:"car_id,omitempty"`
	LocationID *string `gorm:"type:uuid;index" json:"location_id,omitempty"`
}

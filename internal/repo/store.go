package repo

import (
	"TrackingCar/internal/model"
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound — живой записи, подходящей под фильтр, нет.
	ErrNotFound = gorm.ErrRecordNotFound
	// ErrSoftDeleteUnsupported — у типа нет отметки удаления.
	ErrSoftDeleteUnsupported = errors.New("entity does not support soft delete")
	// ErrInvalidPage — номер или размер страницы вне допустимых границ.
	ErrInvalidPage = errors.New("invalid page parameters")
	// ErrMissingKey — у сущности не задан первичный ключ.
	ErrMissingKey = errors.New("entity primary key is empty")
)

// DefaultMaxPageSize — верхняя граница размера страницы, если не задана иная.
const DefaultMaxPageSize = 100

// Filter — предикат выборки в виде gorm-scope.
type Filter func(*gorm.DB) *gorm.DB

// Where строит фильтр из условия gorm.
func Where(query any, args ...any) Filter {
	return func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) }
}

// OrderBy задаёт порядок выборки. Первичный ключ всегда добавляется последним.
func OrderBy(value any) Filter {
	return func(db *gorm.DB) *gorm.DB { return db.Order(value) }
}

// GetOption настраивает Get.
type GetOption func(*getOptions)

type getOptions struct {
	includeDeleted bool
	preload        []preloadSpec
}

type preloadSpec struct {
	relation string
	conds    []any
}

// IncludeDeleted отключает фильтр мягкого удаления.
func IncludeDeleted() GetOption {
	return func(o *getOptions) { o.includeDeleted = true }
}

// Preload подгружает связи (expand).
func Preload(relations ...string) GetOption {
	return func(o *getOptions) {
		for _, rel := range relations {
			o.preload = append(o.preload, preloadSpec{relation: rel})
		}
	}
}

// PreloadWhere подгружает связь с условием, например только живые записи.
func PreloadWhere(relation string, conds ...any) GetOption {
	return func(o *getOptions) {
		o.preload = append(o.preload, preloadSpec{relation: relation, conds: conds})
	}
}

// Store — обобщённое хранилище сущностей одного типа.
// Мягкое удаление включается, если *T реализует model.SoftDeletable.
type Store[T any] struct {
	db          *gorm.DB
	softDelete  bool
	maxPageSize int
	now         func() time.Time
}

// NewStore создаёт хранилище для типа T.
func NewStore[T any](db *gorm.DB) *Store[T] {
	var zero T
	_, soft := any(&zero).(model.SoftDeletable)
	return &Store[T]{
		db:          db,
		softDelete:  soft,
		maxPageSize: DefaultMaxPageSize,
		now:         time.Now,
	}
}

// WithMaxPageSize возвращает копию хранилища с иной верхней границей страницы.
func (s *Store[T]) WithMaxPageSize(n int) *Store[T] {
	c := *s
	if n > 0 {
		c.maxPageSize = n
	}
	return &c
}

// WithTx возвращает копию хранилища, работающую внутри транзакции tx.
func (s *Store[T]) WithTx(tx *gorm.DB) *Store[T] {
	c := *s
	c.db = tx
	return &c
}

// SoftDeletable сообщает, поддерживает ли тип мягкое удаление.
func (s *Store[T]) SoftDeletable() bool { return s.softDelete }

func (s *Store[T]) query(ctx context.Context, includeDeleted bool, filters []Filter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(new(T))
	if s.softDelete && !includeDeleted {
		q = q.Where(clause.Eq{Column: deletedColumn(), Value: nil})
	}
	for _, f := range filters {
		if f != nil {
			q = f(q)
		}
	}
	return q
}

func deletedColumn() clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: model.SoftDeleteColumn}
}

func primaryKeyOrder() clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: clause.PrimaryKey}}
}

// Get возвращает одну сущность или ErrNotFound.
func (s *Store[T]) Get(ctx context.Context, filter Filter, opts ...GetOption) (*T, error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}
	q := s.query(ctx, o.includeDeleted, []Filter{filter})
	for _, p := range o.preload {
		q = q.Preload(p.relation, p.conds...)
	}
	var out T
	if err := q.Order(primaryKeyOrder()).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// List возвращает все живые сущности под фильтрами.
func (s *Store[T]) List(ctx context.Context, filters ...Filter) ([]T, error) {
	var out []T
	if err := s.query(ctx, false, filters).Order(primaryKeyOrder()).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Paginate пропускает (page-1)*pageSize записей и возвращает не более pageSize.
func (s *Store[T]) Paginate(ctx context.Context, page, pageSize int, filters ...Filter) ([]T, error) {
	if page < 1 || pageSize < 1 || pageSize > s.maxPageSize {
		return nil, fmt.Errorf("%w: page=%d size=%d max=%d", ErrInvalidPage, page, pageSize, s.maxPageSize)
	}
	var out []T
	err := s.query(ctx, false, filters).
		Order(primaryKeyOrder()).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count считает живые записи под фильтрами.
func (s *Store[T]) Count(ctx context.Context, filters ...Filter) (int64, error) {
	var n int64
	if err := s.query(ctx, false, filters).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Exists — живая запись под фильтром существует.
func (s *Store[T]) Exists(ctx context.Context, filters ...Filter) (bool, error) {
	n, err := s.Count(ctx, filters...)
	return n > 0, err
}

// Create вставляет сущность. Связи не сохраняются: ими управляет сервисный слой.
func (s *Store[T]) Create(ctx context.Context, entity *T) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error
}

// requireKey проверяет, что первичный ключ сущности задан.
func (s *Store[T]) requireKey(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("%w: nil %T", ErrMissingKey, entity)
	}
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(entity); err != nil {
		return err
	}
	if len(stmt.Schema.PrimaryFields) == 0 {
		return fmt.Errorf("%w: %T has no primary key", ErrMissingKey, entity)
	}
	rv := reflect.Indirect(reflect.ValueOf(entity))
	for _, f := range stmt.Schema.PrimaryFields {
		if _, zero := f.ValueOf(ctx, rv); zero {
			return fmt.Errorf("%w: %T", ErrMissingKey, entity)
		}
	}
	return nil
}

// Update заменяет все изменяемые поля существующей сущности.
func (s *Store[T]) Update(ctx context.Context, entity *T) error {
	if err := s.requireKey(ctx, entity); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error
}

// Remove удаляет строку физически.
func (s *Store[T]) Remove(ctx context.Context, entity *T) error {
	if err := s.requireKey(ctx, entity); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(entity).Error
}

// SoftRemove ставит отметку удаления текущим временем.
func (s *Store[T]) SoftRemove(ctx context.Context, entity *T) error {
	sd, ok := any(entity).(model.SoftDeletable)
	if !ok {
		return fmt.Errorf("%w: %T", ErrSoftDeleteUnsupported, entity)
	}
	if err := s.requireKey(ctx, entity); err != nil {
		return err
	}
	at := s.now().UTC()
	res := s.db.WithContext(ctx).Model(entity).
		Where(clause.Eq{Column: deletedColumn(), Value: nil}).
		Update(model.SoftDeleteColumn, at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	sd.MarkDeleted(at)
	return nil
}

// ListRemoved возвращает мягко удалённые сущности, новые первыми.
func (s *Store[T]) ListRemoved(ctx context.Context, filters ...Filter) ([]T, error) {
	if !s.softDelete {
		var zero T
		return nil, fmt.Errorf("%w: %T", ErrSoftDeleteUnsupported, zero)
	}
	var out []T
	err := s.query(ctx, true, filters).
		Where(clause.Neq{Column: deletedColumn(), Value: nil}).
		Order(clause.OrderByColumn{Column: deletedColumn(), Desc: true}).
		Order(primaryKeyOrder()).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

package repo

import (
	"TrackingCar/internal/model"
	"context"
	"strings"

	"gorm.io/gorm"
)

// CarRepository — доступ к автомобилям и их вложениям.
type CarRepository struct {
	db          *gorm.DB
	Cars        *Store[model.Car]
	Attachments *Store[model.Attachment]
	Locations   *Store[model.Location]
	Ownerships  *Store[model.Ownership]
}

// NewCarRepository создаёт репозиторий автомобилей.
func NewCarRepository(db *gorm.DB, maxPageSize int) *CarRepository {
	return &CarRepository{
		db:          db,
		Cars:        NewStore[model.Car](db).WithMaxPageSize(maxPageSize),
		Attachments: NewStore[model.Attachment](db),
		Locations:   NewStore[model.Location](db).WithMaxPageSize(maxPageSize),
		Ownerships:  NewStore[model.Ownership](db).WithMaxPageSize(maxPageSize),
	}
}

// Transaction выполняет fn в одной транзакции БД. Ошибка fn откатывает все записи.
func (r *CarRepository) Transaction(ctx context.Context, fn func(tx *CarRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CarRepository{
			db:          tx,
			Cars:        r.Cars.WithTx(tx),
			Attachments: r.Attachments.WithTx(tx),
			Locations:   r.Locations.WithTx(tx),
			Ownerships:  r.Ownerships.WithTx(tx),
		})
	})
}

// ByID — фильтр по первичному ключу.
func ByID(id string) Filter {
	return Where("id = ?", id)
}

// PlateTaken проверяет, занят ли номер живым автомобилем, кроме excludeID. Регистр не учитывается.
func (r *CarRepository) PlateTaken(ctx context.Context, plate, excludeID string) (bool, error) {
	filters := []Filter{Where("LOWER(plate_number) = ?", strings.ToLower(strings.TrimSpace(plate)))}
	if excludeID != "" {
		filters = append(filters, Where("id <> ?", excludeID))
	}
	return r.Cars.Exists(ctx, filters...)
}

// CarSearch — фильтр поиска по номеру или типу.
func CarSearch(search string) Filter {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil
	}
	like := "%" + strings.ToLower(search) + "%"
	return Where("(LOWER(plate_number) LIKE ? OR LOWER(car_type) LIKE ?)", like, like)
}

// NameSearch — фильтр поиска по подстроке имени.
func NameSearch(column, search string) Filter {
	search = strings.TrimSpace(search)
	if search == "" {
		return nil
	}
	return Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(search)+"%")
}

// ListPage возвращает страницу автомобилей с вложениями и общее число совпадений.
func (r *CarRepository) ListPage(ctx context.Context, page, pageSize int, search string) ([]model.Car, int64, error) {
	total, err := r.Cars.Count(ctx, CarSearch(search))
	if err != nil {
		return nil, 0, err
	}
	cars, err := r.Cars.Paginate(ctx, page, pageSize, CarSearch(search), OrderBy("plate_number"), preloadAttachments)
	if err != nil {
		return nil, 0, err
	}
	return cars, total, nil
}

// GetDetails возвращает живой автомобиль со всеми связями.
func (r *CarRepository) GetDetails(ctx context.Context, id string) (*model.Car, error) {
	return r.Cars.Get(ctx, ByID(id), Preload("Attachments", "Location", "Ownership"))
}

// CountByLocation — число живых автомобилей в локации.
func (r *CarRepository) CountByLocation(ctx context.Context, locationID string) (int64, error) {
	return r.Cars.Count(ctx, Where("location_id = ?", locationID))
}

// CountByOwnership — число живых автомобилей владельца.
func (r *CarRepository) CountByOwnership(ctx context.Context, ownershipID string) (int64, error) {
	return r.Cars.Count(ctx, Where("ownership_id = ?", ownershipID))
}

func preloadAttachments(db *gorm.DB) *gorm.DB {
	return db.Preload("Attachments")
}

// LocationDetails возвращает живую локацию с её живыми автомобилями и вложениями.
func (r *CarRepository) LocationDetails(ctx context.Context, id string) (*model.Location, error) {
	return r.Locations.Get(ctx, ByID(id),
		PreloadWhere("Cars", "deleted_at IS NULL"),
		PreloadWhere("Attachments", "(car_id IS NULL OR car_id IN (SELECT id FROM cars WHERE deleted_at IS NULL))"),
	)
}

// OwnershipDetails возвращает живого владельца с его живыми автомобилями.
func (r *CarRepository) OwnershipDetails(ctx context.Context, id string) (*model.Ownership, error) {
	return r.Ownerships.Get(ctx, ByID(id), PreloadWhere("Cars", "deleted_at IS NULL"))
}

// NameTaken проверяет, занято ли имя живой записью, кроме excludeID. Регистр не учитывается.
func NameTaken[T any](ctx context.Context, s *Store[T], name, excludeID string) (bool, error) {
	filters := []Filter{Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))}
	if excludeID != "" {
		filters = append(filters, Where("id <> ?", excludeID))
	}
	return s.Exists(ctx, filters...)
}

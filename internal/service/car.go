package service

import (
	"TrackingCar/internal/model"
	"TrackingCar/internal/repo"
	"TrackingCar/internal/storage"
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// CarService — бизнес-логика автомобилей.
type CarService struct {
	cars        *repo.CarRepository
	attachments *AttachmentManager
	logger      *zap.SugaredLogger
}

func NewCarService(cars *repo.CarRepository, files storage.FileStore, logger *zap.SugaredLogger) *CarService {
	s := &CarService{cars: cars, logger: logger}
	s.attachments = NewAttachmentManager(cars, files, logger, validateCar)
	return s
}

// Attachments возвращает менеджер вложений сервиса.
func (s *CarService) Attachments() *AttachmentManager { return s.attachments }

func (s *CarService) List(ctx context.Context, page, pageSize int, search string) (Page[model.Car], error) {
	cars, total, err := s.cars.ListPage(ctx, page, pageSize, search)
	if err != nil {
		return Page[model.Car]{}, pageErr("list cars", err)
	}
	return NewPage(cars, total, page, pageSize), nil
}

func (s *CarService) Get(ctx context.Context, id string) (*model.Car, error) {
	car, err := s.cars.GetDetails(ctx, id)
	if err != nil {
		return nil, lookupErr("car", err)
	}
	return car, nil
}

func (s *CarService) Create(ctx context.Context, specs []CarSpec) ([]model.Car, error) {
	return s.attachments.CreateWithAttachments(ctx, specs)
}

func (s *CarService) Update(ctx context.Context, id string, fields model.CarFields, files map[model.AttachmentCategory]FileUpload) (*model.Car, error) {
	return s.attachments.UpdateWithAttachments(ctx, id, fields, files)
}

// Delete мягко удаляет автомобиль. Вложения сохраняются.
func (s *CarService) Delete(ctx context.Context, id string) error {
	car, err := s.cars.Cars.Get(ctx, repo.ByID(id))
	if err != nil {
		return lookupErr("car", err)
	}
	if err := s.cars.Cars.SoftRemove(ctx, car); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return lookupErr("car", err)
		}
		return storageErr("soft remove car", err)
	}
	s.logger.Infow("car removed", "car_id", id)
	return nil
}

// Purge удаляет автомобиль физически вместе с вложениями и их файлами.
func (s *CarService) Purge(ctx context.Context, id string) error {
	if err := s.attachments.PurgeCar(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("car purged", "car_id", id)
	return nil
}

func (s *CarService) ListRemoved(ctx context.Context) ([]model.Car, error) {
	cars, err := s.cars.Cars.ListRemoved(ctx)
	if err != nil {
		return nil, storageErr("list removed cars", err)
	}
	return cars, nil
}

// validateCar нормализует поля и проверяет уникальность номера и ссылки.
func validateCar(ctx context.Context, tx *repo.CarRepository, f *model.CarFields, excludeID string) error {
	f.PlateNumber = strings.TrimSpace(f.PlateNumber)
	if f.PlateNumber == "" {
		return validationf("plate number is required")
	}
	taken, err := tx.PlateTaken(ctx, f.PlateNumber, excludeID)
	if err != nil {
		return storageErr("check plate", err)
	}
	if taken {
		return conflictf("plate number %q already exists", f.PlateNumber)
	}

	f.LocationID = blankToNil(f.LocationID)
	if f.LocationID != nil {
		ok, err := tx.Locations.Exists(ctx, repo.ByID(*f.LocationID))
		if err != nil {
			return storageErr("check location", err)
		}
		if !ok {
			return validationf("location %s not found", *f.LocationID)
		}
	}
	f.OwnershipID = blankToNil(f.OwnershipID)
	if f.OwnershipID != nil {
		ok, err := tx.Ownerships.Exists(ctx, repo.ByID(*f.OwnershipID))
		if err != nil {
			return storageErr("check ownership", err)
		}
		if !ok {
			return validationf("ownership %s not found", *f.OwnershipID)
		}
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

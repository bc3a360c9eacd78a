package service

import (
	"TrackingCar/internal/model"
	"TrackingCar/internal/repo"
	"TrackingCar/internal/storage"
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
)

// FileUpload — входящий файл запроса.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// CarSpec — описание одного автомобиля в пакетном создании.
type CarSpec struct {
	Fields model.CarFields
	Files  map[model.AttachmentCategory]FileUpload
}

// CarValidator проверяет поля автомобиля внутри транзакции.
// excludeID — идентификатор обновляемого автомобиля, пустой при создании.
type CarValidator func(ctx context.Context, tx *repo.CarRepository, fields *model.CarFields, excludeID string) error

// AttachmentManager согласует строки вложений в БД с файлами в хранилище.
// Все изменения одной операции выполняются в одной транзакции; записанные файлы
// удаляются при откате, а заменённые удаляются только после фиксации.
type AttachmentManager struct {
	cars     *repo.CarRepository
	files    storage.FileStore
	logger   *zap.SugaredLogger
	validate CarValidator
}

func NewAttachmentManager(cars *repo.CarRepository, files storage.FileStore, logger *zap.SugaredLogger, validate CarValidator) *AttachmentManager {
	if validate == nil {
		validate = func(context.Context, *repo.CarRepository, *model.CarFields, string) error { return nil }
	}
	return &AttachmentManager{cars: cars, files: files, logger: logger, validate: validate}
}

// CreateWithAttachments создаёт пакет автомобилей с вложениями по принципу «всё или ничего».
func (m *AttachmentManager) CreateWithAttachments(ctx context.Context, specs []CarSpec) ([]model.Car, error) {
	if len(specs) == 0 {
		return nil, validationf("at least one car is required")
	}
	for i := range specs {
		if err := checkCategories(specs[i].Files); err != nil {
			return nil, err
		}
	}

	batch := storage.NewBatch(m.files, m.logger)
	var created []model.Car
	err := m.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		created = make([]model.Car, 0, len(specs))
		for i := range specs {
			spec := specs[i]
			if err := m.validate(ctx, tx, &spec.Fields, ""); err != nil {
				return err
			}
			var car model.Car
			spec.Fields.Apply(&car)
			if err := tx.Cars.Create(ctx, &car); err != nil {
				return storageErr("create car", err)
			}
			for _, cat := range model.AttachmentCategories {
				f, ok := spec.Files[cat]
				if !ok {
					continue
				}
				att, err := attach(ctx, tx, batch, &car, cat, f)
				if err != nil {
					return err
				}
				car.Attachments = append(car.Attachments, *att)
			}
			created = append(created, car)
		}
		return nil
	})
	if err != nil {
		batch.Rollback(ctx)
		m.logger.Warnw("car batch rolled back", "cars", len(specs), "files_removed", batch.Written(), "error", err)
		return nil, passThrough("create cars", err)
	}
	batch.Commit(ctx)
	return created, nil
}

// UpdateWithAttachments заменяет поля автомобиля целиком и, для каждой категории с новым файлом,
// заменяет текущее вложение. Категории без файла не трогаются.
func (m *AttachmentManager) UpdateWithAttachments(ctx context.Context, carID string, fields model.CarFields, files map[model.AttachmentCategory]FileUpload) (*model.Car, error) {
	if err := checkCategories(files); err != nil {
		return nil, err
	}

	batch := storage.NewBatch(m.files, m.logger)
	var updated *model.Car
	err := m.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		car, err := tx.Cars.Get(ctx, repo.ByID(carID), repo.Preload("Attachments"))
		if err != nil {
			return lookupErr("car", err)
		}
		if err := m.validate(ctx, tx, &fields, car.ID); err != nil {
			return err
		}
		fields.Apply(car)
		if err := tx.Cars.Update(ctx, car); err != nil {
			return storageErr("update car", err)
		}

		for _, cat := range model.AttachmentCategories {
			f, ok := files[cat]
			if !ok {
				continue
			}
			if old := car.AttachmentFor(cat); old != nil {
				if err := tx.Attachments.Remove(ctx, old); err != nil {
					return storageErr("remove attachment", err)
				}
				batch.RemoveOnCommit(storage.FolderCars, old.File)
			}
			if _, err := attach(ctx, tx, batch, car, cat, f); err != nil {
				return err
			}
		}

		updated, err = tx.GetDetails(ctx, car.ID)
		if err != nil {
			return storageErr("reload car", err)
		}
		return nil
	})
	if err != nil {
		batch.Rollback(ctx)
		m.logger.Warnw("car update rolled back", "car_id", carID, "files_removed", batch.Written(), "error", err)
		return nil, passThrough("update car", err)
	}
	batch.Commit(ctx)
	return updated, nil
}

// PurgeCar физически удаляет автомобиль (в том числе мягко удалённый) и все его вложения.
func (m *AttachmentManager) PurgeCar(ctx context.Context, carID string) error {
	batch := storage.NewBatch(m.files, m.logger)
	err := m.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		car, err := tx.Cars.Get(ctx, repo.ByID(carID), repo.IncludeDeleted(), repo.Preload("Attachments"))
		if err != nil {
			return lookupErr("car", err)
		}
		for i := range car.Attachments {
			att := car.Attachments[i]
			if err := tx.Attachments.Remove(ctx, &att); err != nil {
				return storageErr("remove attachment", err)
			}
			batch.RemoveOnCommit(storage.FolderCars, att.File)
		}
		if err := tx.Cars.Remove(ctx, car); err != nil {
			return storageErr("remove car", err)
		}
		return nil
	})
	if err != nil {
		batch.Rollback(ctx)
		return passThrough("purge car", err)
	}
	batch.Commit(ctx)
	return nil
}

func attach(ctx context.Context, tx *repo.CarRepository, batch *storage.Batch, car *model.Car, cat model.AttachmentCategory, f FileUpload) (*model.Attachment, error) {
	if f.Reader == nil {
		return nil, validationf("empty %s file", cat)
	}
	name, err := batch.Save(ctx, storage.FolderCars, f.Name, f.Reader)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return nil, validationf("invalid %s file name", cat)
		}
		return nil, storageErr("save "+string(cat)+" file", err)
	}
	carID := car.ID
	att := &model.Attachment{File: name, Category: cat, CarID: &carID}
	if car.LocationID != nil {
		loc := *car.LocationID
		att.LocationID = &loc
	}
	if err := tx.Attachments.Create(ctx, att); err != nil {
		return nil, storageErr("create attachment", err)
	}
	return att, nil
}

func checkCategories(files map[model.AttachmentCategory]FileUpload) error {
	for cat := range files {
		if !cat.Valid() {
			return validationf("unknown attachment category %q", cat)
		}
	}
	return nil
}

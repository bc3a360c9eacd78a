package service

import (
	"TrackingCar/internal/model"
	"TrackingCar/internal/repo"
	"context"
	"strings"

	"go.uber.org/zap"
)

// LocationInput — изменяемые поля локации.
type LocationInput struct {
	Name         string `json:"name"`
	Details      string `json:"details"`
	LocationName string `json:"location_name"`
}

// LocationService — локации хранения автомобилей.
type LocationService struct {
	cars   *repo.CarRepository
	logger *zap.SugaredLogger
}

func NewLocationService(cars *repo.CarRepository, logger *zap.SugaredLogger) *LocationService {
	return &LocationService{cars: cars, logger: logger}
}

func (s *LocationService) List(ctx context.Context, page, pageSize int, search string) (Page[model.Location], error) {
	filter := repo.NameSearch("name", search)
	total, err := s.cars.Locations.Count(ctx, filter)
	if err != nil {
		return Page[model.Location]{}, storageErr("count locations", err)
	}
	items, err := s.cars.Locations.Paginate(ctx, page, pageSize, filter, repo.OrderBy("name"))
	if err != nil {
		return Page[model.Location]{}, pageErr("list locations", err)
	}
	return NewPage(items, total, page, pageSize), nil
}

// Get возвращает локацию с её автомобилями и вложениями.
func (s *LocationService) Get(ctx context.Context, id string) (*model.Location, error) {
	loc, err := s.cars.LocationDetails(ctx, id)
	if err != nil {
		return nil, lookupErr("location", err)
	}
	return loc, nil
}

func (s *LocationService) Create(ctx context.Context, in LocationInput) (*model.Location, error) {
	var loc model.Location
	err := s.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		if err := checkName(ctx, tx.Locations, &in.Name, "", "location"); err != nil {
			return err
		}
		loc = model.Location{Name: in.Name, Details: in.Details, LocationName: in.LocationName}
		if err := tx.Locations.Create(ctx, &loc); err != nil {
			return storageErr("create location", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough("create location", err)
	}
	return &loc, nil
}

func (s *LocationService) Update(ctx context.Context, id string, in LocationInput) (*model.Location, error) {
	var loc *model.Location
	err := s.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		var err error
		loc, err = tx.Locations.Get(ctx, repo.ByID(id))
		if err != nil {
			return lookupErr("location", err)
		}
		if err := checkName(ctx, tx.Locations, &in.Name, id, "location"); err != nil {
			return err
		}
		loc.Name, loc.Details, loc.LocationName = in.Name, in.Details, in.LocationName
		if err := tx.Locations.Update(ctx, loc); err != nil {
			return storageErr("update location", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough("update location", err)
	}
	return loc, nil
}

// Delete мягко удаляет локацию. Пока на неё ссылается живой автомобиль, удаление запрещено.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	err := s.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		loc, err := tx.Locations.Get(ctx, repo.ByID(id))
		if err != nil {
			return lookupErr("location", err)
		}
		n, err := tx.CountByLocation(ctx, id)
		if err != nil {
			return storageErr("count cars", err)
		}
		if n > 0 {
			return conflictf("location is used by %d car(s)", n)
		}
		if err := tx.Locations.SoftRemove(ctx, loc); err != nil {
			return storageErr("soft remove location", err)
		}
		return nil
	})
	if err != nil {
		return passThrough("delete location", err)
	}
	s.logger.Infow("location removed", "location_id", id)
	return nil
}

func (s *LocationService) ListRemoved(ctx context.Context) ([]model.Location, error) {
	items, err := s.cars.Locations.ListRemoved(ctx)
	if err != nil {
		return nil, storageErr("list removed locations", err)
	}
	return items, nil
}

// checkName нормализует имя и проверяет, что оно не пустое и не занято.
func checkName[T any](ctx context.Context, store *repo.Store[T], name *string, excludeID, what string) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return validationf("%s name is required", what)
	}
	taken, err := repo.NameTaken(ctx, store, *name, excludeID)
	if err != nil {
		return storageErr("check "+what+" name", err)
	}
	if taken {
		return conflictf("%s %q already exists", what, *name)
	}
	return nil
}

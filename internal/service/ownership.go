package service

import (
	"TrackingCar/internal/model"
	"TrackingCar/internal/repo"
	"context"

	"go.uber.org/zap"
)

// OwnershipInput — изменяемые поля владельца.
type OwnershipInput struct {
	Name         string  `json:"name"`
	Details      string  `json:"details"`
	LocationName string  `json:"location_name"`
	LocationID   *string `json:"location_id"`
}

// OwnershipService — стороны-владельцы автомобилей.
type OwnershipService struct {
	cars   *repo.CarRepository
	logger *zap.SugaredLogger
}

func NewOwnershipService(cars *repo.CarRepository, logger *zap.SugaredLogger) *OwnershipService {
	return &OwnershipService{cars: cars, logger: logger}
}

func (s *OwnershipService) List(ctx context.Context, page, pageSize int, search string) (Page[model.Ownership], error) {
	filter := repo.NameSearch("name", search)
	total, err := s.cars.Ownerships.Count(ctx, filter)
	if err != nil {
		return Page[model.Ownership]{}, storageErr("count ownerships", err)
	}
	items, err := s.cars.Ownerships.Paginate(ctx, page, pageSize, filter, repo.OrderBy("name"))
	if err != nil {
		return Page[model.Ownership]{}, pageErr("list ownerships", err)
	}
	return NewPage(items, total, page, pageSize), nil
}

func (s *OwnershipService) Get(ctx context.Context, id string) (*model.Ownership, error) {
	o, err := s.cars.OwnershipDetails(ctx, id)
	if err != nil {
		return nil, lookupErr("ownership", err)
	}
	return o, nil
}

func (s *OwnershipService) Create(ctx context.Context, in OwnershipInput) (*model.Ownership, error) {
	var o model.Ownership
	err := s.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		if err := checkName(ctx, tx.Ownerships, &in.Name, "", "ownership"); err != nil {
			return err
		}
		locID, err := checkLocationRef(ctx, tx, in.LocationID)
		if err != nil {
			return err
		}
		o = model.Ownership{Name: in.Name, Details: in.Details, LocationName: in.LocationName, LocationID: locID}
		if err := tx.Ownerships.Create(ctx, &o); err != nil {
			return storageErr("create ownership", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough("create ownership", err)
	}
	return &o, nil
}

func (s *OwnershipService) Update(ctx context.Context, id string, in OwnershipInput) (*model.Ownership, error) {
	var o *model.Ownership
	err := s.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		var err error
		o, err = tx.Ownerships.Get(ctx, repo.ByID(id))
		if err != nil {
			return lookupErr("ownership", err)
		}
		if err := checkName(ctx, tx.Ownerships, &in.Name, id, "ownership"); err != nil {
			return err
		}
		locID, err := checkLocationRef(ctx, tx, in.LocationID)
		if err != nil {
			return err
		}
		o.Name, o.Details, o.LocationName, o.LocationID = in.Name, in.Details, in.LocationName, locID
		if err := tx.Ownerships.Update(ctx, o); err != nil {
			return storageErr("update ownership", err)
		}
		return nil
	})
	if err != nil {
		return nil, passThrough("update ownership", err)
	}
	return o, nil
}

// Delete мягко удаляет владельца, если на него не ссылается ни один живой автомобиль.
func (s *OwnershipService) Delete(ctx context.Context, id string) error {
	err := s.cars.Transaction(ctx, func(tx *repo.CarRepository) error {
		o, err := tx.Ownerships.Get(ctx, repo.ByID(id))
		if err != nil {
			return lookupErr("ownership", err)
		}
		n, err := tx.CountByOwnership(ctx, id)
		if err != nil {
			return storageErr("count cars", err)
		}
		if n > 0 {
			return conflictf("ownership is used by %d car(s)", n)
		}
		if err := tx.Ownerships.SoftRemove(ctx, o); err != nil {
			return storageErr("soft remove ownership", err)
		}
		return nil
	})
	if err != nil {
		return passThrough("delete ownership", err)
	}
	s.logger.Infow("ownership removed", "ownership_id", id)
	return nil
}

func (s *OwnershipService) ListRemoved(ctx context.Context) ([]model.Ownership, error) {
	items, err := s.cars.Ownerships.ListRemoved(ctx)
	if err != nil {
		return nil, storageErr("list removed ownerships", err)
	}
	return items, nil
}

func checkLocationRef(ctx context.Context, tx *repo.CarRepository, id *string) (*string, error) {
	id = blankToNil(id)
	if id == nil {
		return nil, nil
	}
	ok, err := tx.Locations.Exists(ctx, repo.ByID(*id))
	if err != nil {
		return nil, storageErr("check location", err)
	}
	if !ok {
		return nil, validationf("location %s not found", *id)
	}
	return id, nil
}

package repo

import (
	"TrackingCar/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository — доступ к учётным записям.
type UserRepository interface {
	// GetByUsername ищет живого пользователя по логину.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByID ищет живого пользователя по идентификатору.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// UsernameTaken учитывает и удалённых пользователей: логин не переиспользуется.
	UsernameTaken(ctx context.Context, username, excludeID string) (bool, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	SoftRemoveUser(ctx context.Context, user *model.User) error
	ListPage(ctx context.Context, page, pageSize int, search string) ([]model.User, int64, error)
	ListRemoved(ctx context.Context) ([]model.User, error)

	// SetRefreshToken безусловно записывает refresh-токен (вход).
	SetRefreshToken(ctx context.Context, userID string, token *string) error
	// SwapRefreshToken заменяет токен, только если сохранён именно expected.
	// Возвращает false, если токен уже заменён конкурентным запросом.
	SwapRefreshToken(ctx context.Context, userID, expected, next string) (bool, error)
}

type userRepo struct {
	db    *gorm.DB
	users *Store[model.User]
}

// NewUserRepository создаёт реализацию репозитория пользователей.
func NewUserRepository(db *gorm.DB, maxPageSize int) UserRepository {
	return &userRepo{db: db, users: NewStore[model.User](db).WithMaxPageSize(maxPageSize)}
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.users.Get(ctx, Where("username = ?", username))
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.users.Get(ctx, ByID(id))
}

func (r *userRepo) UsernameTaken(ctx context.Context, username, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("LOWER(username) = LOWER(?)", username)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *userRepo) CreateUser(ctx context.Context, user *model.User) error {
	return r.users.Create(ctx, user)
}

func (r *userRepo) UpdateUser(ctx context.Context, user *model.User) error {
	// refresh-токен меняется только через SetRefreshToken/SwapRefreshToken
	return r.db.WithContext(ctx).Omit(clause.Associations, "refresh_token", "password").Save(user).Error
}

func (r *userRepo) SoftRemoveUser(ctx context.Context, user *model.User) error {
	return r.users.SoftRemove(ctx, user)
}

func (r *userRepo) ListPage(ctx context.Context, page, pageSize int, search string) ([]model.User, int64, error) {
	filter := NameSearch("username", search)
	total, err := r.users.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	users, err := r.users.Paginate(ctx, page, pageSize, filter, OrderBy("username"))
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepo) ListRemoved(ctx context.Context) ([]model.User, error) {
	return r.users.ListRemoved(ctx)
}

func (r *userRepo) SetRefreshToken(ctx context.Context, userID string, token *string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND deleted_at IS NULL", userID).
		Update("refresh_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepo) SwapRefreshToken(ctx context.Context, userID, expected, next string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token = ? AND deleted_at IS NULL", userID, expected).
		Update("refresh_token", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

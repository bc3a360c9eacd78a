package service

import (
	"TrackingCar/internal/auth"
	"TrackingCar/internal/model"
	"TrackingCar/internal/repo"
	"TrackingCar/internal/storage"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	maxUsernameLen    = 50
	maxFullNameLen    = 100
	minPasswordLength = 6
)

// ImageExtensions — допустимые расширения изображений профиля.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// AllowedImage сообщает, допустимо ли расширение файла изображения.
func AllowedImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Username string
	Password string
	FullName string
	Phone    *string
	Role     model.UserRole
	Active   *bool
	Image    *FileUpload
}

// UpdateUserInput — изменяемые поля профиля. Пустая роль оставляет текущую.
type UpdateUserInput struct {
	FullName string
	Phone    *string
	Role     model.UserRole
	Image    *FileUpload
}

// UserService — учётные записи пользователей.
type UserService struct {
	users  repo.UserRepository
	files  storage.FileStore
	logger *zap.SugaredLogger
}

func NewUserService(users repo.UserRepository, files storage.FileStore, logger *zap.SugaredLogger) *UserService {
	return &UserService{users: users, files: files, logger: logger}
}

// Register создаёт пользователя. Изображение сохраняется до вставки и удаляется, если вставка не удалась.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	switch {
	case in.Username == "":
		return nil, validationf("username is required")
	case utf8.RuneCountInString(in.Username) > maxUsernameLen:
		return nil, validationf("username can't exceed %d characters", maxUsernameLen)
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		return nil, validationf("password must be at least %d characters", minPasswordLength)
	case in.FullName == "":
		return nil, validationf("full name is required")
	case utf8.RuneCountInString(in.FullName) > maxFullNameLen:
		return nil, validationf("full name can't exceed %d characters", maxFullNameLen)
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !in.Role.Valid() {
		return nil, validationf("unknown role %q", in.Role)
	}
	if in.Image != nil && !AllowedImage(in.Image.Name) {
		return nil, validationf("unsupported image format, allowed: %s", strings.Join(ImageExtensions, ", "))
	}

	taken, err := s.users.UsernameTaken(ctx, in.Username, "")
	if err != nil {
		return nil, storageErr("check username", err)
	}
	if taken {
		return nil, conflictf("username %q already exists", in.Username)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	u := &model.User{
		Username: in.Username,
		Password: hash,
		FullName: in.FullName,
		Phone:    in.Phone,
		Role:     in.Role,
		Active:   &active,
	}

	batch := storage.NewBatch(s.files, s.logger)
	if in.Image != nil {
		name, err := batch.Save(ctx, storage.FolderUsers, in.Image.Name, in.Image.Reader)
		if err != nil {
			return nil, storageErr("save image", err)
		}
		u.Image = &name
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		batch.Rollback(ctx)
		return nil, storageErr("create user", err)
	}
	batch.Commit(ctx)
	s.logger.Infow("user registered", "user_id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, page, pageSize int, search string) (Page[model.User], error) {
	users, total, err := s.users.ListPage(ctx, page, pageSize, search)
	if err != nil {
		return Page[model.User]{}, pageErr("list users", err)
	}
	return NewPage(users, total, page, pageSize), nil
}

// Update меняет профиль. Новое изображение заменяет старое, старый файл удаляется после сохранения.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName != "" {
		if utf8.RuneCountInString(in.FullName) > maxFullNameLen {
			return nil, validationf("full name can't exceed %d characters", maxFullNameLen)
		}
		u.FullName = in.FullName
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if in.Role != "" {
		if !in.Role.Valid() {
			return nil, validationf("unknown role %q", in.Role)
		}
		u.Role = in.Role
	}
	if in.Image != nil && !AllowedImage(in.Image.Name) {
		return nil, validationf("unsupported image format, allowed: %s", strings.Join(ImageExtensions, ", "))
	}

	batch := storage.NewBatch(s.files, s.logger)
	if in.Image != nil {
		name, err := batch.Save(ctx, storage.FolderUsers, in.Image.Name, in.Image.Reader)
		if err != nil {
			return nil, storageErr("save image", err)
		}
		if u.Image != nil {
			batch.RemoveOnCommit(storage.FolderUsers, *u.Image)
		}
		u.Image = &name
	}
	if err := s.users.UpdateUser(ctx, u); err != nil {
		batch.Rollback(ctx)
		return nil, storageErr("update user", err)
	}
	batch.Commit(ctx)
	return u, nil
}

// SetStatus включает или отключает учётную запись. Отключение завершает сессию.
func (s *UserService) SetStatus(ctx context.Context, id string, active bool) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	u.Active = &active
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, storageErr("update user", err)
	}
	if !active {
		if err := s.users.SetRefreshToken(ctx, id, nil); err != nil {
			return nil, storageErr("clear refresh token", err)
		}
	}
	s.logger.Infow("user status changed", "user_id", id, "active", active)
	return u, nil
}

// Delete мягко удаляет пользователя и его сессию.
func (s *UserService) Delete(ctx context.Context, id string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return lookupErr("user", err)
	}
	if err := s.users.SetRefreshToken(ctx, id, nil); err != nil {
		return storageErr("clear refresh token", err)
	}
	if err := s.users.SoftRemoveUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return lookupErr("user", err)
		}
		return storageErr("soft remove user", err)
	}
	s.logger.Infow("user removed", "user_id", id)
	return nil
}

func (s *UserService) ListRemoved(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListRemoved(ctx)
	if err != nil {
		return nil, storageErr("list removed users", err)
	}
	return users, nil
}

// EnsureAdmin создаёт администратора, если логин свободен. Возвращает true, если учётная запись создана.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	taken, err := s.users.UsernameTaken(ctx, username, "")
	if err != nil {
		return false, storageErr("check username", err)
	}
	if taken {
		return false, nil
	}
	_, err = s.Register(ctx, RegisterInput{
		Username: username,
		Password: password,
		FullName: "Administrator",
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

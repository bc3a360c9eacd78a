package service

import (
	"TrackingCar/internal/repo"
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	// ErrStorage — сбой БД или файлового хранилища; транзакция при этом откатывается.
	ErrStorage  = errors.New("storage failure")
	ErrInternal = errors.New("internal error")

	// ErrAuth объединяет все ошибки аутентификации.
	ErrAuth               = errors.New("authentication failed")
	ErrInvalidCredentials = &authError{"invalid username or password"}
	ErrAccountDisabled    = &authError{"account disabled"}
	ErrTokenExpired       = &authError{"token expired"}
	ErrTokenInvalid       = &authError{"token invalid"}
)

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

func (e *authError) Is(target error) bool { return target == ErrAuth }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// lookupErr переводит ошибку чтения одной записи в таксономию сервиса.
func lookupErr(what string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return storageErr("get "+what, err)
}

// pageErr переводит ошибку постраничной выборки.
func pageErr(op string, err error) error {
	if errors.Is(err, repo.ErrInvalidPage) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return storageErr(op, err)
}

// passThrough возвращает ошибки таксономии как есть, остальное оборачивает в ErrStorage.
func passThrough(op string, err error) error {
	for _, known := range []error{ErrNotFound, ErrConflict, ErrValidation, ErrStorage, ErrAuth, ErrInternal} {
		if errors.Is(err, known) {
			return err
		}
	}
	return storageErr(op, err)
}

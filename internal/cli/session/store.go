package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// ErrNoSession — пользователь не входил или вышел.
var ErrNoSession = errors.New("not logged in")

// Session — токены и пользователь, сохранённые после входа.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
}

// Store описывает хранилище сессии на клиенте.
type Store interface {
	Save(s Session) error
	Load() (Session, error)
	Clear() error
}

// FSStore — файловое хранилище сессии в пользовательском конфиг-каталоге.
type FSStore struct{}

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "TrackingCar")
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", err
	}
	return p, nil
}

func sessionPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// Save сохраняет сессию в файл с правами 0600.
func (FSStore) Save(s Session) error {
	p, err := sessionPath()
	if err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

// Load читает сессию из файла.
func (FSStore) Load() (Session, error) {
	p, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, err
	}
	if s.AccessToken == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Clear удаляет сохранённую сессию.
func (FSStore) Clear() error {
	p, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

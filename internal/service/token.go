package service

import (
	"TrackingCar/internal/auth"
	"TrackingCar/internal/model"
	"TrackingCar/internal/repo"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// TokenPair — пара токенов, выдаваемая при входе и обновлении.
type TokenPair struct {
	AccessToken      string      `json:"access_token"`
	RefreshToken     string      `json:"refresh_token"`
	AccessExpiresAt  time.Time   `json:"access_expires_at"`
	RefreshExpiresAt time.Time   `json:"refresh_expires_at"`
	User             *model.User `json:"user"`
}

// TokenService выпускает, проверяет и ротирует токены.
// У пользователя один действующий refresh-токен: каждый новый вытесняет предыдущий.
type TokenService struct {
	users  repo.UserRepository
	signer *auth.Signer
	logger *zap.SugaredLogger
}

func NewTokenService(users repo.UserRepository, signer *auth.Signer, logger *zap.SugaredLogger) *TokenService {
	return &TokenService{users: users, signer: signer, logger: logger}
}

// Login проверяет учётные данные и выдаёт новую пару, перезаписывая сохранённый refresh-токен.
func (s *TokenService) Login(ctx context.Context, username, password string) (TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, storageErr("get user", err)
	}
	if !auth.CheckPassword(u.Password, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return TokenPair{}, ErrAccountDisabled
	}

	pair, err := s.issue(u)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, &pair.RefreshToken); err != nil {
		return TokenPair{}, storageErr("store refresh token", err)
	}
	s.logger.Infow("user logged in", "user_id", u.ID, "username", u.Username)
	return pair, nil
}

// Refresh ротирует пару по действующему refresh-токену.
// Вытесненный токен отклоняется даже до истечения срока.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.signer.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, mapTokenErr(err)
	}

	u, err := s.users.GetByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, ErrTokenInvalid
		}
		return TokenPair{}, storageErr("get user", err)
	}
	if u.ID != claims.UserID || u.RefreshToken == nil || *u.RefreshToken != refreshToken {
		s.logger.Warnw("refresh token reuse rejected", "user_id", claims.UserID)
		return TokenPair{}, ErrTokenInvalid
	}
	if !u.IsActive() {
		return TokenPair{}, ErrAccountDisabled
	}

	pair, err := s.issue(u)
	if err != nil {
		return TokenPair{}, err
	}
	// условная замена: из двух одновременных обновлений одним токеном проходит одно
	swapped, err := s.users.SwapRefreshToken(ctx, u.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return TokenPair{}, storageErr("rotate refresh token", err)
	}
	if !swapped {
		return TokenPair{}, ErrTokenInvalid
	}
	return pair, nil
}

// Logout удаляет сохранённый refresh-токен пользователя.
func (s *TokenService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return lookupErr("user", err)
		}
		return storageErr("clear refresh token", err)
	}
	return nil
}

// ParseAccess проверяет access-токен.
func (s *TokenService) ParseAccess(token string) (*auth.AccessClaims, error) {
	claims, err := s.signer.ParseAccess(token)
	if err != nil {
		return nil, mapTokenErr(err)
	}
	return claims, nil
}

func (s *TokenService) issue(u *model.User) (TokenPair, error) {
	access, accessExp, err := s.signer.IssueAccess(u)
	if err != nil {
		return TokenPair{}, errors.Join(ErrInternal, err)
	}
	refresh, refreshExp, err := s.signer.IssueRefresh(u)
	if err != nil {
		return TokenPair{}, errors.Join(ErrInternal, err)
	}
	view := *u
	view.RefreshToken = nil
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             &view,
	}, nil
}

func mapTokenErr(err error) error {
	if errors.Is(err, auth.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}

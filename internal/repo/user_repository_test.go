package repo

import (
	"TrackingCar/internal/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db, 50)
	ctx := context.Background()

	// успешное создание
	u := &model.User{Username: "john", Password: "hash", Role: model.RoleUser}
	require.NoError(t, r.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)

	// поиск по логину — найдено
	got, err := r.GetByUsername(ctx, "john")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// уникальный логин — вторая вставка должна дать ошибку
	assert.Error(t, r.CreateUser(ctx, &model.User{Username: "john", Password: "x", Role: model.RoleUser}))

	// поиск несуществующего — ожидаем ErrNotFound
	got, err = r.GetByUsername(ctx, "doesnotexist")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_UsernameTakenIncludesRemoved(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db, 50)
	ctx := context.Background()

	u := &model.User{Username: "Alice", Password: "h", Role: model.RoleUser}
	require.NoError(t, r.CreateUser(ctx, u))
	require.NoError(t, r.SoftRemoveUser(ctx, u))

	taken, err := r.UsernameTaken(ctx, "alice", "")
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = r.GetByUsername(ctx, "Alice")
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := r.ListRemoved(ctx)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}

func TestUserRepository_SwapRefreshToken(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db, 50)
	ctx := context.Background()

	u := &model.User{Username: "bob", Password: "h", Role: model.RoleUser}
	require.NoError(t, r.CreateUser(ctx, u))
	require.NoError(t, r.SetRefreshToken(ctx, u.ID, strPtr("t1")))

	ok, err := r.SwapRefreshToken(ctx, u.ID, "t1", "t2")
	require.NoError(t, err)
	assert.True(t, ok)

	// старый токен больше не подходит
	ok, err = r.SwapRefreshToken(ctx, u.ID, "t1", "t3")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "t2", *got.RefreshToken)

	require.NoError(t, r.SetRefreshToken(ctx, u.ID, nil))
	got, err = r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RefreshToken)
}

func TestUserRepository_UpdateKeepsRefreshTokenAndPassword(t *testing.T) {
	db := newTestDB(t)
	r := NewUserRepository(db, 50)
	ctx := context.Background()

	u := &model.User{Username: "carl", Password: "hash", Role: model.RoleUser}
	require.NoError(t, r.CreateUser(ctx, u))
	require.NoError(t, r.SetRefreshToken(ctx, u.ID, strPtr("live")))

	u.FullName = "Carl"
	u.Password = "other"
	u.RefreshToken = nil
	require.NoError(t, r.UpdateUser(ctx, u))

	got, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carl", got.FullName)
	assert.Equal(t, "hash", got.Password)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "live", *got.RefreshToken)
}

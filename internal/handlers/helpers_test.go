package handlers_test

import (
	"TrackingCar/internal/audit"
	"TrackingCar/internal/auth"
	"TrackingCar/internal/config"
	"TrackingCar/internal/handlers"
	"TrackingCar/internal/model"
	"TrackingCar/internal/repo"
	"TrackingCar/internal/service"
	"TrackingCar/internal/storage"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type testEnv struct {
	router http.Handler
	users  *service.UserService
	tokens *service.TokenService
	cars   *service.CarService
	sink   *audit.GormSink
	files  *storage.LocalStore
	cfg    *config.Config
}

// envelope — разобранный APIResponse
type envelope struct {
	IsSuccess     bool            `json:"isSuccess"`
	StatusCode    int             `json:"statusCode"`
	ErrorMessages []string        `json:"errorMessages"`
	Result        json.RawMessage `json:"result"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: ":memory:"}, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))

	cfg := &config.Config{
		AuthSecret:      "test-secret",
		RefreshSecret:   "test-refresh-secret",
		ServerURL:       "http://localhost:8081",
		RequestTimeout:  5 * time.Second,
		MaxUploadMB:     1,
		DefaultPageSize: 25,
		MaxPageSize:     100,
	}
	log := zap.NewNop().Sugar()

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	sink := audit.NewGormSink(db, log, 64, cfg.MaxPageSize)
	t.Cleanup(func() { _ = sink.Close(context.Background()) })

	users := repo.NewUserRepository(db, cfg.MaxPageSize)
	cars := repo.NewCarRepository(db, cfg.MaxPageSize)
	signer := auth.NewSigner(cfg.AuthSecret, cfg.RefreshSecret, time.Hour, 24*time.Hour)

	env := &testEnv{
		users:  service.NewUserService(users, files, log),
		tokens: service.NewTokenService(users, signer, log),
		cars:   service.NewCarService(cars, files, log),
		sink:   sink,
		files:  files,
		cfg:    cfg,
	}
	h := handlers.NewHandler(handlers.Services{
		Users:      env.users,
		Tokens:     env.tokens,
		Cars:       env.cars,
		Locations:  service.NewLocationService(cars, log),
		Ownerships: service.NewOwnershipService(cars, log),
		Files:      files,
		Audit:      sink,
	}, log, cfg)
	env.router = h.Router
	return env
}

// createUser создаёт пользователя напрямую через сервис.
func (e *testEnv) createUser(t *testing.T, username string, role model.UserRole, active bool) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), service.RegisterInput{
		Username: username,
		Password: "secret1",
		FullName: username,
		Role:     role,
		Active:   &active,
	})
	require.NoError(t, err)
	return u
}

// token возвращает access-токен пользователя с паролем secret1.
func (e *testEnv) token(t *testing.T, username string) string {
	t.Helper()
	pair, err := e.tokens.Login(context.Background(), username, "secret1")
	require.NoError(t, err)
	return pair.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return e.do(t, method, path, token, body, "application/json")
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, result any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	if result != nil {
		require.NoError(t, json.Unmarshal(env.Result, result), string(env.Result))
	}
	return env
}

// multipartBody собирает форму из полей и файлов (имя поля → имя файла, содержимое).
type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

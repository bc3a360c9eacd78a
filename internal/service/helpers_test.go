package service

import (
	"TrackingCar/internal/repo"
	"TrackingCar/internal/storage"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

var errDiskFull = errors.New("disk full")

// newTestDB — отдельная in-memory SQLite на каждый тест
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: ":memory:"}, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// failInserts заставляет вставки в таблицу table завершаться ошибкой.
func failInserts(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(d *gorm.DB) {
		if d.Statement.Table == table {
			_ = d.AddError(errors.New("insert into " + table + " failed"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

// memStore — FileStore в памяти; failOn > 0 роняет Save с этим порядковым номером.
type memStore struct {
	mu     sync.Mutex
	files  map[string][]byte
	saves  int
	failOn int
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (m *memStore) Save(_ context.Context, folder, originalName string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failOn > 0 && m.saves == m.failOn {
		return "", errDiskFull
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	name := storage.StoredName(originalName)
	m.files[folder+"/"+name] = data
	return name, nil
}

func (m *memStore) Open(_ context.Context, folder, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[folder+"/"+name]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Remove(_ context.Context, folder, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := folder + "/" + name
	if _, ok := m.files[key]; !ok {
		return storage.ErrFileNotFound
	}
	delete(m.files, key)
	return nil
}

func (m *memStore) has(folder, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[folder+"/"+name]
	return ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// failNext роняет n-й следующий вызов Save.
func (m *memStore) failNext(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = m.saves + n
}

var _ storage.FileStore = (*memStore)(nil)

func upload(name, content string) FileUpload {
	return FileUpload{Name: name, Reader: strings.NewReader(content)}
}

func nopLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

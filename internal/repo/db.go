package repo

import (
	"TrackingCar/internal/model"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// InitDB открывает БД по строке подключения и применяет миграции.
// postgres:// и DSN вида "host=..." идут в PostgreSQL, остальное считается путём к файлу SQLite.
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if isSQLite(dsn) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite допускает одного писателя
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт/обновляет схему для всех моделей.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		// Ссылочная целостность проверяется сервисным слоем.
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	}
}

func isSQLite(dsn string) bool {
	d := strings.TrimSpace(dsn)
	return !strings.HasPrefix(d, "postgres://") &&
		!strings.HasPrefix(d, "postgresql://") &&
		!strings.Contains(d, "host=")
}

func dialectorFor(dsn string) gorm.Dialector {
	if !isSQLite(dsn) {
		return postgres.Open(dsn)
	}
	// modernc.org/sqlite регистрируется под именем "sqlite" и не требует cgo
	return gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
}

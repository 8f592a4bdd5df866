package database

import (
	"context"
	"log"

	"go-iam/internal/config"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the backing store with lifecycle management.
// With DATABASE_URL set it connects to Postgres; without it the store
// runs on an in-memory sqlite database (shared cache so every pooled
// connection sees the same data).
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*Database, error) {
	var dialector gorm.Dialector
	if cfg.DatabaseURL != "" {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		log.Println("DATABASE_URL not set, using in-memory sqlite store")
		dialector = sqlite.Open("file:go-iam?mode=memory&cache=shared")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing database connection...")
			return sqlDB.Close()
		},
	})

	return &Database{DB: db}, nil
}

package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thelibrary/moderation-backend/internal/config"
	"github.com/thelibrary/moderation-backend/internal/store"
	"github.com/thelibrary/moderation-backend/internal/store/gormstore"
	"github.com/thelibrary/moderation-backend/internal/store/mongostore"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Conn is an opened entity store. DB is nil for the document store.
type Conn struct {
	Store  store.Store
	DB     *gorm.DB
	driver string
	close  func(context.Context) error
}

func (c *Conn) Driver() string { return c.driver }

func (c *Conn) Close(ctx context.Context) error {
	if c.close == nil {
		return nil
	}
	return c.close(ctx)
}

// Connect opens the store selected by cfg.StoreDriver.
func Connect(ctx context.Context, cfg *config.Config) (*Conn, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := tunePool(db, 50, 25); err != nil {
			return nil, err
		}
		slog.Info("database connected", "driver", cfg.StoreDriver)
		return gormConn(db, cfg.StoreDriver), nil

	case config.DriverSQLite:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("database connected", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return gormConn(db, cfg.StoreDriver), nil

	case config.DriverMongo:
		ms, err := mongostore.Connect(ctx, cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		slog.Info("database connected", "driver", cfg.StoreDriver, "db", cfg.MongoDB)
		return &Conn{Store: ms, driver: cfg.StoreDriver, close: ms.Close}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// OpenSQLite opens a SQLite database through the pure-Go modernc driver. Writes are
// funnelled through a single connection to avoid SQLITE_BUSY under concurrent requests.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := tunePool(db, 1, 1); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate prepares the schema (relational) or indexes (document) of the store.
func Migrate(ctx context.Context, conn *Conn) error {
	if conn.DB != nil {
		return gormstore.Migrate(conn.DB.WithContext(ctx))
	}
	if ms, ok := conn.Store.(*mongostore.Store); ok {
		return ms.EnsureIndexes(ctx)
	}
	return nil
}

func gormConn(db *gorm.DB, driver string) *Conn {
	return &Conn{
		Store:  gormstore.New(db),
		DB:     db,
		driver: driver,
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func tunePool(db *gorm.DB, maxOpen, maxIdle int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return nil
}

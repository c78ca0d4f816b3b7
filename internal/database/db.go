package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"freightops/internal/config"
	"freightops/internal/logger"
	"freightops/internal/model"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Models lists every persisted entity, in dependency order, for AutoMigrate
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.AuditLog{},
		&model.City{},
		&model.Party{},
		&model.Vehicle{},
		&model.Agency{},
		&model.ItemCatalog{},
		&model.Shipment{},
		&model.GoodsDetail{},
		&model.ShipmentSequence{},
		&model.LabourPerson{},
		&model.LabourAssignment{},
		&model.Delivery{},
		&model.LabourPaymentHistory{},
		&model.Transaction{},
		&model.TripLog{},
		&model.TripShipmentLog{},
		&model.VehicleTransaction{},
	}
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(cfg config.DatabaseConfig, zapLogger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.NewGormLogger(zapLogger, logger.MapGormLogLevel(cfg.LogLevel), 200*time.Millisecond),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if cfg.AutoMigrate {
		// Development shortcut; production schemas come from Migrate
		if err := AutoMigrate(db); err != nil {
			zapLogger.Warn("Failed to auto-migrate models", zap.Error(err))
		}
	}

	return db, nil
}

// AutoMigrate creates or updates tables from the gorm models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Migrate applies the embedded SQL migrations to the database at dsn
func Migrate(dsn string, zapLogger *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("could not connect to postgres: %w", err)
	}
	defer sqlDB.Close()

	return MigrateDB(sqlDB, zapLogger)
}

// MigrateDB applies the embedded SQL migrations over an open connection
func MigrateDB(sqlDB *sql.DB, zapLogger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("could not start postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration failed to start: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			zapLogger.Info("No migrations to apply")
			return nil
		}
		return fmt.Errorf("could not run up migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	zapLogger.Info("Migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

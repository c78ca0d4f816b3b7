package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"freightops/internal/database"
	"freightops/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockSequenceRepository(t *testing.T) (SequenceRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewSequenceRepository(gormDB), mock, mockDB
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func insertShipment(t *testing.T, db *gorm.DB, registerNumber string, bilityDate time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.Shipment{
		RegisterNumber: registerNumber,
		BilityNumber:   "B-" + uuid.NewString()[:8],
		BilityDate:     bilityDate,
		SenderName:     "Walk-in sender",
		ReceiverName:   "Walk-in receiver",
		PaymentStatus:  model.PaymentPending,
	}).Error)
}

func TestPeriodAndBounds(t *testing.T) {
	local := time.FixedZone("PKT", 5*60*60)
	// 2025-04-01 02:00 PKT is still March in UTC
	ts := time.Date(2025, 4, 1, 2, 0, 0, 0, local)

	assert.Equal(t, "202503", Period(ts))

	start, end := MonthBounds(ts)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), end)

	start, end = MonthBounds(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)

	dayStart, dayEnd := DayBounds(time.Date(2025, 3, 12, 18, 45, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), dayStart)
	assert.Equal(t, time.Date(2025, 3, 12, 23, 59, 59, int(999*time.Millisecond), time.UTC), dayEnd)
}

func TestSequenceRepository_Next_Postgres(t *testing.T) {
	month := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	start, end := MonthBounds(month)

	t.Run("returns the value produced by the upsert", func(t *testing.T) {
		repo, mock, mockDB := newMockSequenceRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO shipment_sequences .* ON CONFLICT \(period\) DO UPDATE .* RETURNING last_value`).
			WithArgs("202503", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(7))

		next, err := repo.Next(context.Background(), month)

		require.NoError(t, err)
		assert.Equal(t, int64(7), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps database errors", func(t *testing.T) {
		repo, mock, mockDB := newMockSequenceRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO shipment_sequences`).
			WithArgs("202503", start, end).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Next(context.Background(), month)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to allocate register number")
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an empty result", func(t *testing.T) {
		repo, mock, mockDB := newMockSequenceRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO shipment_sequences`).
			WithArgs("202503", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"last_value"}))

		_, err := repo.Next(context.Background(), month)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty result for period 202503")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSequenceRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	march := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	april := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

	t.Run("counts up per month", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewSequenceRepository(db)

		for want := int64(1); want <= 3; want++ {
			got, err := repo.Next(ctx, march)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		got, err := repo.Next(ctx, april)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("seeds a new period from existing shipments", func(t *testing.T) {
		db := newSQLiteDB(t)
		insertShipment(t, db, "202503-0001", march)
		insertShipment(t, db, "202503-0002", march.Add(24*time.Hour))
		insertShipment(t, db, "202504-0001", april)

		got, err := NewSequenceRepository(db).Next(ctx, march)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got)
	})

	t.Run("resync raises the counter to the highest stored number", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewSequenceRepository(db)

		_, err := repo.Next(ctx, march)
		require.NoError(t, err)
		insertShipment(t, db, "202503-0009", march)
		insertShipment(t, db, "202503-0010", march)

		require.NoError(t, repo.Resync(ctx, march))

		var seq model.ShipmentSequence
		require.NoError(t, db.First(&seq, "period = ?", "202503").Error)
		assert.Equal(t, int64(10), seq.LastValue)

		next, err := repo.Next(ctx, march)
		require.NoError(t, err)
		assert.Equal(t, int64(11), next)
	})

	t.Run("resync never lowers the counter", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewSequenceRepository(db)
		require.NoError(t, db.Create(&model.ShipmentSequence{Period: "202503", LastValue: 20}).Error)
		insertShipment(t, db, "202503-0004", march)

		require.NoError(t, repo.Resync(ctx, march))

		var seq model.ShipmentSequence
		require.NoError(t, db.First(&seq, "period = ?", "202503").Error)
		assert.Equal(t, int64(20), seq.LastValue)
	})

	t.Run("resync without shipments is a no-op", func(t *testing.T) {
		db := newSQLiteDB(t)

		require.NoError(t, NewSequenceRepository(db).Resync(ctx, march))

		var count int64
		require.NoError(t, db.Model(&model.ShipmentSequence{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("next inside a rolled back transaction leaves no trace", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewSequenceRepository(db)
		txm := NewTransactionManager(db)

		err := txm.RunInTx(ctx, func(txCtx context.Context) error {
			n, err := repo.Next(txCtx, march)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			return fmt.Errorf("abort")
		})
		require.EqualError(t, err, "abort")

		got, err := repo.Next(ctx, march)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})
}

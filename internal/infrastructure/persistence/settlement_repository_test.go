package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockSettlementRepository creates a GormSettlementRepository with a mocked SQL connection
func newMockSettlementRepository(t *testing.T) (*GormSettlementRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormSettlementRepository(gormDB), mock, mockDB
}

func settlementRows(id, eventID, driverID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version",
		"financial_event_id", "driver_id", "amount", "scheduled_for", "processed_at", "status",
	}).AddRow(id, now, now, 1, eventID, driverID, decimal.NewFromInt(80), now, nil, "PENDING")
}

func TestGormSettlementRepository_FindByID(t *testing.T) {
	t.Run("finds existing settlement", func(t *testing.T) {
		repo, mock, mockDB := newMockSettlementRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		eventID := uuid.New()
		driverID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "settlements" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(settlementRows(id, eventID, driverID))

		s, err := repo.FindByID(context.Background(), id)

		assert.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, id, s.ID)
		assert.Equal(t, driverID, s.DriverID)
		assert.Equal(t, settlement.StatusPending, s.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for missing settlement", func(t *testing.T) {
		repo, mock, mockDB := newMockSettlementRepository(t)
		defer mockDB.Close()

		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "settlements" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		s, err := repo.FindByID(context.Background(), id)

		assert.NoError(t, err)
		assert.Nil(t, s)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSettlementRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("takes a row lock", func(t *testing.T) {
		repo, mock, mockDB := newMockSettlementRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		eventID := uuid.New()
		driverID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "settlements" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnRows(settlementRows(id, eventID, driverID))

		s, err := repo.FindByIDForUpdate(context.Background(), id)

		assert.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, id, s.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for missing settlement", func(t *testing.T) {
		repo, mock, mockDB := newMockSettlementRepository(t)
		defer mockDB.Close()

		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "settlements" WHERE id = \$1 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		s, err := repo.FindByIDForUpdate(context.Background(), id)

		assert.NoError(t, err)
		assert.Nil(t, s)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

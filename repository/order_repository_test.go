package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"tokensale-service/models"
	"tokensale-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func TestCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := &models.Order{
		UserID:   uuid.New(),
		Address:  "bc1qdeposit",
		Currency: "BTC",
		Price:    0.0001,
		Amount:   5000,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), order)
	assert.NoError(t, err)
}

func TestActiveAddressIndex_ExcludesFiatSentinels(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	// Repeat card and bank orders reuse the sentinel addresses, so the
	// one-active-order-per-address index must not cover them.
	mock.ExpectExec(`CREATE UNIQUE INDEX.*"idx_orders_active_address" ON "orders".*`+
		regexp.QuoteMeta(`WHERE expired = false AND address <> 'Stripe' AND address <> 'Bank Transfer'`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := gormDB.Migrator().CreateIndex(&models.Order{}, "idx_orders_active_address")
	assert.NoError(t, err)
}

func TestFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	o, err := repo.FindByID(context.Background(), id)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Nil(t, o)
}

func TestFindByAddress_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	id := uuid.New()
	userID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "address", "currency", "price", "amount", "paid", "expired", "created_at", "updated_at"}).
		AddRow(id, userID, "bc1qdeposit", "BTC", 0.0001, 5000.0, false, false, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(rows)

	o, err := repo.FindByAddress(context.Background(), "bc1qdeposit")
	assert.NoError(t, err)
	assert.Equal(t, "bc1qdeposit", o.Address)
	assert.Equal(t, "BTC", o.Currency)
	assert.False(t, o.Paid)
}

func TestMarkPaid_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkPaid(context.Background(), uuid.New(), uuid.New())
	assert.NoError(t, err)
}

func TestMarkPaid_AlreadyPaidAffectsNoRows(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.MarkPaid(context.Background(), uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCountActive_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountActive(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

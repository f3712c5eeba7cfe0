package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var paymentCols = []string{"id", "user_id", "email", "first_name", "last_name", "amount", "status", "created_at"}

func TestCommerceRepo_Payment(t *testing.T) {
	db, mock := setupTestDB(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, user_id, email, first_name, last_name, amount::text, status, created_at`).
		WithArgs(int64(501)).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(int64(501), int64(42), "ada@example.com", "Ada", "Lovelace", "29.90", "publish", created))

	p, err := NewCommerceRepo(db).Payment(context.Background(), 501)
	require.NoError(t, err)

	assert.Equal(t, domain.UserInfo{ID: 42, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}, p.User)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("29.9")))
	assert.Equal(t, domain.StatusPublish, p.Status)
	assert.Equal(t, created, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommerceRepo_UserInfo_Guest(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectQuery(`FROM commerce_payments`).
		WithArgs(int64(502)).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow(int64(502), nil, "guest@example.com", nil, nil, "5.00", "pending", time.Now()))

	u, err := NewCommerceRepo(db).UserInfo(context.Background(), 502)
	require.NoError(t, err)
	assert.Equal(t, int64(0), u.ID)
	assert.Equal(t, "guest@example.com", u.Email)
	assert.Empty(t, u.FirstName)
}

func TestCommerceRepo_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectQuery(`FROM commerce_payments`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT amount::text FROM commerce_payments`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	repo := NewCommerceRepo(db)
	_, err := repo.UserInfo(context.Background(), 9)
	assert.True(t, errors.Is(err, ErrPaymentNotFound))
	_, err = repo.Amount(context.Background(), 9)
	assert.True(t, errors.Is(err, ErrPaymentNotFound))
}

func TestCommerceRepo_AmountAndPostDate(t *testing.T) {
	db, mock := setupTestDB(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT amount::text FROM commerce_payments`).WithArgs(int64(501)).
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow("129.99"))
	mock.ExpectQuery(`SELECT created_at FROM commerce_payments`).WithArgs(int64(501)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	repo := NewCommerceRepo(db)
	amount, err := repo.Amount(context.Background(), 501)
	require.NoError(t, err)
	assert.Equal(t, "129.99", amount.StringFixed(2))

	date, err := repo.PostDate(context.Background(), 501)
	require.NoError(t, err)
	assert.Equal(t, created, date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommerceRepo_CartDetails(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectQuery(`FROM commerce_payment_items`).WithArgs(int64(501)).
		WillReturnRows(sqlmock.NewRows([]string{"download_id", "name", "quantity", "price"}).
			AddRow(int64(1), "Book", 1, "19.90").
			AddRow(int64(2), nil, 2, "5.00"))

	items, err := NewCommerceRepo(db).CartDetails(context.Background(), 501)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].DownloadID)
	assert.Equal(t, "Book", items[0].Name)
	assert.Equal(t, "", items[1].Name)
	assert.Equal(t, 2, items[1].Quantity)
	assert.Equal(t, "5.00", items[1].Price.StringFixed(2))
}

func TestCommerceRepo_Title(t *testing.T) {
	db, mock := setupTestDB(t)
	mock.ExpectQuery(`SELECT title FROM commerce_downloads`).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Book"))
	mock.ExpectQuery(`SELECT title FROM commerce_downloads`).WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT title FROM commerce_downloads`).WithArgs(int64(3)).
		WillReturnError(errors.New("connection reset"))

	repo := NewCommerceRepo(db)
	title, err := repo.Title(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Book", title)

	title, err = repo.Title(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, title)

	_, err = repo.Title(context.Background(), 3)
	assert.Error(t, err)
}

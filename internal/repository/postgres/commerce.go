package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/commerce-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrPaymentNotFound is returned when the host has no payment with the given id.
var ErrPaymentNotFound = errors.New("payment not found")

// CommerceRepo reads payments and products from the host commerce database.
// It implements host.PaymentStore and host.ProductCatalog and never writes.
type CommerceRepo struct{ db *sql.DB }

// NewCommerceRepo creates a Postgres-backed reader for host commerce data.
func NewCommerceRepo(db *sql.DB) *CommerceRepo { return &CommerceRepo{db: db} }

// Payment loads the payment row.
func (r *CommerceRepo) Payment(ctx context.Context, paymentID int64) (domain.Payment, error) {
	var (
		p         domain.Payment
		userID    sql.NullInt64
		email     sql.NullString
		firstName sql.NullString
		lastName  sql.NullString
		amount    string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, email, first_name, last_name, amount::text, status, created_at
		FROM commerce_payments
		WHERE id = $1
	`, paymentID).Scan(&p.ID, &userID, &email, &firstName, &lastName, &amount, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payment{}, fmt.Errorf("payment %d: %w", paymentID, ErrPaymentNotFound)
	}
	if err != nil {
		return domain.Payment{}, fmt.Errorf("get payment %d: %w", paymentID, err)
	}

	p.User = domain.UserInfo{
		ID:        userID.Int64,
		Email:     email.String,
		FirstName: firstName.String,
		LastName:  lastName.String,
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return domain.Payment{}, fmt.Errorf("parse amount for payment %d: %w", paymentID, err)
	}
	return p, nil
}

func (r *CommerceRepo) UserInfo(ctx context.Context, paymentID int64) (domain.UserInfo, error) {
	p, err := r.Payment(ctx, paymentID)
	if err != nil {
		return domain.UserInfo{}, err
	}
	return p.User, nil
}

func (r *CommerceRepo) Amount(ctx context.Context, paymentID int64) (decimal.Decimal, error) {
	var amount string
	err := r.db.QueryRowContext(ctx,
		`SELECT amount::text FROM commerce_payments WHERE id = $1`, paymentID,
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("payment %d: %w", paymentID, ErrPaymentNotFound)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("get payment amount %d: %w", paymentID, err)
	}
	return decimal.NewFromString(amount)
}

func (r *CommerceRepo) PostDate(ctx context.Context, paymentID int64) (time.Time, error) {
	var created time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM commerce_payments WHERE id = $1`, paymentID,
	).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("payment %d: %w", paymentID, ErrPaymentNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get payment date %d: %w", paymentID, err)
	}
	return created, nil
}

// CartDetails returns the payment's own line items in checkout order.
func (r *CommerceRepo) CartDetails(ctx context.Context, paymentID int64) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT download_id, name, quantity, price::text
		FROM commerce_payment_items
		WHERE payment_id = $1
		ORDER BY position
	`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list payment items %d: %w", paymentID, err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var (
			item  domain.LineItem
			name  sql.NullString
			price string
		)
		if err := rows.Scan(&item.DownloadID, &name, &item.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan payment item: %w", err)
		}
		item.Name = name.String
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse item price: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Title returns the product title, or "" when the product no longer exists.
func (r *CommerceRepo) Title(ctx context.Context, downloadID int64) (string, error) {
	var title string
	err := r.db.QueryRowContext(ctx,
		`SELECT title FROM commerce_downloads WHERE id = $1`, downloadID,
	).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get download title %d: %w", downloadID, err)
	}
	return title, nil
}

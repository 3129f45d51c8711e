package customer

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// Create inserts a new customer and assigns CustomerID from the sequence.
	Create(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// FindByIDForUpdate locks the customer row for the rest of tx.
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (*Customer, error)

	UpdateCurrentDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, currentDebt decimal.Decimal) error

	// Upsert writes the customer under its own id, reporting whether a new row was inserted.
	Upsert(ctx context.Context, customer *Customer) (inserted bool, err error)

	// ListIDs pages through customer ids in ascending order, starting after afterID.
	ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)

	SyncIDSequence(ctx context.Context) error
}

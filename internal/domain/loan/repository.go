package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// CreateLoanInTx inserts the loan with a sequence-assigned id.
	CreateLoanInTx(ctx context.Context, tx pgx.Tx, loan *Loan) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	// FindByCustomerID returns every loan of the customer, newest start date first.
	FindByCustomerID(ctx context.Context, customerID int64) ([]Loan, error)

	FindByCustomerIDInTx(ctx context.Context, tx pgx.Tx, customerID int64) ([]Loan, error)

	Upsert(ctx context.Context, loan *Loan) (inserted bool, err error)

	SyncIDSequence(ctx context.Context) error
}

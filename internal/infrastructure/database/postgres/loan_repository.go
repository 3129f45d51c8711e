package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const loanColumns = `loan_id, customer_id, loan_amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at`

const (
	insertLoanSQL = `
        INSERT INTO loans (customer_id, loan_amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING ` + loanColumns

	findLoanByIDSQL = `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE loan_id = $1`

	findLoansByCustomerSQL = `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE customer_id = $1
        ORDER BY start_date DESC, loan_id DESC`

	upsertLoanSQL = `
        INSERT INTO loans (loan_id, customer_id, loan_amount, tenure, interest_rate, monthly_installment, emis_paid_on_time, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        ON CONFLICT (loan_id) DO UPDATE SET
            customer_id = EXCLUDED.customer_id,
            loan_amount = EXCLUDED.loan_amount,
            tenure = EXCLUDED.tenure,
            interest_rate = EXCLUDED.interest_rate,
            monthly_installment = EXCLUDED.monthly_installment,
            emis_paid_on_time = EXCLUDED.emis_paid_on_time,
            start_date = EXCLUDED.start_date,
            end_date = EXCLUDED.end_date,
            updated_at = NOW()
        RETURNING (xmax = 0) AS inserted`

	syncLoanSequenceSQL = `
        SELECT setval(pg_get_serial_sequence('loans', 'loan_id'), COALESCE(MAX(loan_id), 0) + 1, false)
        FROM loans`
)

type LoanRepository struct {
	txManager
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	logger = logger.With("component", "LoanRepository")
	return &LoanRepository{
		txManager: txManager{db: db, logger: logger},
		db:        db,
		logger:    logger,
	}
}

func scanLoan(row pgx.Row, l *loan.Loan) error {
	return row.Scan(
		&l.LoanID,
		&l.CustomerID,
		&l.LoanAmount,
		&l.Tenure,
		&l.InterestRate,
		&l.MonthlyInstallment,
		&l.EMIsPaidOnTime,
		&l.StartDate,
		&l.EndDate,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}

func (r *LoanRepository) CreateLoanInTx(ctx context.Context, tx pgx.Tx, newLoan *loan.Loan) (created *loan.Loan, err error) {
	defer func(start time.Time) { observe("CreateLoan", start, err) }(time.Now())

	var l loan.Loan
	err = scanLoan(tx.QueryRow(ctx, insertLoanSQL,
		newLoan.CustomerID,
		newLoan.LoanAmount,
		newLoan.Tenure,
		newLoan.InterestRate,
		newLoan.MonthlyInstallment,
		newLoan.EMIsPaidOnTime,
		newLoan.StartDate,
		newLoan.EndDate,
	), &l)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", l.LoanID, "customer_id", l.CustomerID)
	return &l, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (found *loan.Loan, err error) {
	defer func(start time.Time) { observe("GetLoanByID", start, err) }(time.Now())

	var l loan.Loan
	if err = scanLoan(r.db.QueryRow(ctx, findLoanByIDSQL, loanID), &l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, loanID)
		}
		r.logger.ErrorContext(ctx, "Failed to query loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get loan by ID: %w", apperrors.ErrDatabase, err)
	}
	return &l, nil
}

func (r *LoanRepository) FindByCustomerID(ctx context.Context, customerID int64) (loans []loan.Loan, err error) {
	defer func(start time.Time) { observe("FindLoansByCustomer", start, err) }(time.Now())
	return r.findByCustomer(ctx, r.db, customerID)
}

func (r *LoanRepository) FindByCustomerIDInTx(ctx context.Context, tx pgx.Tx, customerID int64) (loans []loan.Loan, err error) {
	defer func(start time.Time) { observe("FindLoansByCustomerInTx", start, err) }(time.Now())
	return r.findByCustomer(ctx, tx, customerID)
}

func (r *LoanRepository) findByCustomer(ctx context.Context, q querier, customerID int64) ([]loan.Loan, error) {
	rows, err := q.Query(ctx, findLoansByCustomerSQL, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans by customer", "customer_id", customerID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	loans := make([]loan.Loan, 0)
	for rows.Next() {
		var l loan.Loan
		if err := scanLoan(rows, &l); err != nil {
			return nil, fmt.Errorf("%w: failed to scan loan: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed iterating loans: %w", apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) Upsert(ctx context.Context, l *loan.Loan) (inserted bool, err error) {
	defer func(start time.Time) { observe("UpsertLoan", start, err) }(time.Now())

	err = r.db.QueryRow(ctx, upsertLoanSQL,
		l.LoanID,
		l.CustomerID,
		l.LoanAmount,
		l.Tenure,
		l.InterestRate,
		l.MonthlyInstallment,
		l.EMIsPaidOnTime,
		l.StartDate,
		l.EndDate,
	).Scan(&inserted)
	if err != nil {
		return false, translateDBError(err, r.logger)
	}
	return inserted, nil
}

func (r *LoanRepository) SyncIDSequence(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("SyncLoanSequence", start, err) }(time.Now())

	if _, err = r.db.Exec(ctx, syncLoanSequenceSQL); err != nil {
		return apperrors.WrapDatabaseError(err, "failed to sync loan id sequence")
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const customerColumns = `customer_id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at`

const (
	insertCustomerSQL = `
        INSERT INTO customers (first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING customer_id, created_at, updated_at`

	findCustomerByIDSQL = `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE customer_id = $1`

	findCustomerForUpdateSQL = findCustomerByIDSQL + `
        FOR UPDATE`

	updateCurrentDebtSQL = `
        UPDATE customers
        SET current_debt = $1, updated_at = NOW()
        WHERE customer_id = $2`

	upsertCustomerSQL = `
        INSERT INTO customers (customer_id, first_name, last_name, age, phone_number, monthly_salary, approved_limit, current_debt, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        ON CONFLICT (customer_id) DO UPDATE SET
            first_name = EXCLUDED.first_name,
            last_name = EXCLUDED.last_name,
            age = EXCLUDED.age,
            phone_number = EXCLUDED.phone_number,
            monthly_salary = EXCLUDED.monthly_salary,
            approved_limit = EXCLUDED.approved_limit,
            current_debt = EXCLUDED.current_debt,
            updated_at = NOW()
        RETURNING (xmax = 0) AS inserted`

	listCustomerIDsSQL = `
        SELECT customer_id
        FROM customers
        WHERE customer_id > $1
        ORDER BY customer_id
        LIMIT $2`

	syncCustomerSequenceSQL = `
        SELECT setval(pg_get_serial_sequence('customers', 'customer_id'), COALESCE(MAX(customer_id), 0) + 1, false)
        FROM customers`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger.With("component", "CustomerRepository")}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) (err error) {
	defer func(start time.Time) { observe("CreateCustomer", start, err) }(time.Now())

	err = r.db.QueryRow(ctx, insertCustomerSQL,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(&cust.CustomerID, &cust.CreatedAt, &cust.UpdatedAt)
	if err != nil {
		translated := translateDBError(err, r.logger)
		if errors.Is(translated, apperrors.ErrConflict) {
			return fmt.Errorf("%w: phone number %s is already registered", apperrors.ErrConflict, cust.PhoneNumber)
		}
		return translated
	}

	r.logger.InfoContext(ctx, "Customer created", slog.Int64("customerID", cust.CustomerID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (cust *customer.Customer, err error) {
	defer func(start time.Time) { observe("FindCustomerByID", start, err) }(time.Now())
	return r.findOne(ctx, r.db, findCustomerByIDSQL, customerID)
}

func (r *CustomerRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, customerID int64) (cust *customer.Customer, err error) {
	defer func(start time.Time) { observe("FindCustomerForUpdate", start, err) }(time.Now())
	return r.findOne(ctx, tx, findCustomerForUpdateSQL, customerID)
}

func (r *CustomerRepository) findOne(ctx context.Context, q querier, query string, customerID int64) (*customer.Customer, error) {
	var cust customer.Customer
	err := q.QueryRow(ctx, query, customerID).Scan(
		&cust.CustomerID,
		&cust.FirstName,
		&cust.LastName,
		&cust.Age,
		&cust.PhoneNumber,
		&cust.MonthlySalary,
		&cust.ApprovedLimit,
		&cust.CurrentDebt,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}
	return &cust, nil
}

func (r *CustomerRepository) UpdateCurrentDebtInTx(ctx context.Context, tx pgx.Tx, customerID int64, currentDebt decimal.Decimal) (err error) {
	defer func(start time.Time) { observe("UpdateCurrentDebt", start, err) }(time.Now())

	cmdTag, err := tx.Exec(ctx, updateCurrentDebtSQL, currentDebt, customerID)
	if err != nil {
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, customerID)
	}
	return nil
}

func (r *CustomerRepository) Upsert(ctx context.Context, cust *customer.Customer) (inserted bool, err error) {
	defer func(start time.Time) { observe("UpsertCustomer", start, err) }(time.Now())

	err = r.db.QueryRow(ctx, upsertCustomerSQL,
		cust.CustomerID,
		cust.FirstName,
		cust.LastName,
		cust.Age,
		cust.PhoneNumber,
		cust.MonthlySalary,
		cust.ApprovedLimit,
		cust.CurrentDebt,
	).Scan(&inserted)
	if err != nil {
		return false, translateDBError(err, r.logger)
	}
	return inserted, nil
}

func (r *CustomerRepository) ListIDs(ctx context.Context, afterID int64, limit int) (ids []int64, err error) {
	defer func(start time.Time) { observe("ListCustomerIDs", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, listCustomerIDsSQL, afterID, limit)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	ids = make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: failed to scan customer id: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed iterating customer ids: %w", apperrors.ErrDatabase, err)
	}
	return ids, nil
}

func (r *CustomerRepository) SyncIDSequence(ctx context.Context) (err error) {
	defer func(start time.Time) { observe("SyncCustomerSequence", start, err) }(time.Now())

	if _, err = r.db.Exec(ctx, syncCustomerSequenceSQL); err != nil {
		return apperrors.WrapDatabaseError(err, "failed to sync customer id sequence")
	}
	return nil
}

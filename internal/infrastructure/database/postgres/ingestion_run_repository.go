package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/ingestion"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const ingestionRunColumns = `id::text, customer_source, loan_source, status,
            customers_inserted, customers_updated, customers_skipped,
            loans_inserted, loans_updated, loans_skipped,
            reconciled_customers, row_errors, error,
            submitted_at, started_at, completed_at`

const (
	insertIngestionRunSQL = `
        INSERT INTO ingestion_runs (id, customer_source, loan_source, status, submitted_at)
        VALUES ($1::uuid, $2, $3, $4, $5)`

	updateIngestionRunSQL = `
        UPDATE ingestion_runs SET
            status = $2,
            customers_inserted = $3,
            customers_updated = $4,
            customers_skipped = $5,
            loans_inserted = $6,
            loans_updated = $7,
            loans_skipped = $8,
            reconciled_customers = $9,
            row_errors = $10,
            error = $11,
            started_at = $12,
            completed_at = $13
        WHERE id = $1::uuid`

	findIngestionRunSQL = `
        SELECT ` + ingestionRunColumns + `
        FROM ingestion_runs
        WHERE id = $1::uuid`

	listIngestionRunsSQL = `
        SELECT ` + ingestionRunColumns + `
        FROM ingestion_runs
        ORDER BY submitted_at DESC
        LIMIT $1`

	failUnfinishedRunsSQL = `
        UPDATE ingestion_runs
        SET status = $1, error = $2, completed_at = NOW()
        WHERE status IN ($3, $4)`
)

type IngestionRunRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ ingestion.StatusStore = (*IngestionRunRepository)(nil)

func NewIngestionRunRepository(db DBPool, logger *slog.Logger) *IngestionRunRepository {
	return &IngestionRunRepository{db: db, logger: logger.With("component", "IngestionRunRepository")}
}

func (r *IngestionRunRepository) CreateRun(ctx context.Context, run *ingestion.Run) (err error) {
	defer func(start time.Time) { observe("CreateIngestionRun", start, err) }(time.Now())

	_, err = r.db.Exec(ctx, insertIngestionRunSQL,
		run.ID,
		run.CustomerSource,
		run.LoanSource,
		string(run.Status),
		run.SubmittedAt,
	)
	if err != nil {
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *IngestionRunRepository) UpdateRun(ctx context.Context, run *ingestion.Run) (err error) {
	defer func(start time.Time) { observe("UpdateIngestionRun", start, err) }(time.Now())

	rowErrors := run.Errors
	if rowErrors == nil {
		rowErrors = []ingestion.RowError{}
	}
	payload, err := json.Marshal(rowErrors)
	if err != nil {
		return fmt.Errorf("%w: failed to encode row errors: %w", apperrors.ErrInternalServer, err)
	}

	cmdTag, err := r.db.Exec(ctx, updateIngestionRunSQL,
		run.ID,
		string(run.Status),
		run.Customers.Inserted,
		run.Customers.Updated,
		run.Customers.Skipped,
		run.Loans.Inserted,
		run.Loans.Updated,
		run.Loans.Skipped,
		run.ReconciledCustomers,
		payload,
		run.Error,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ingestion run %s", apperrors.ErrNotFound, run.ID)
	}
	return nil
}

func (r *IngestionRunRepository) GetRun(ctx context.Context, runID string) (run *ingestion.Run, err error) {
	defer func(start time.Time) { observe("FindIngestionRun", start, err) }(time.Now())

	run, err = scanIngestionRun(r.db.QueryRow(ctx, findIngestionRunSQL, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: ingestion run %s", apperrors.ErrNotFound, runID)
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan ingestion run", slog.String("runID", runID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get ingestion run: %w", apperrors.ErrDatabase, err)
	}
	return run, nil
}

func (r *IngestionRunRepository) ListRuns(ctx context.Context, limit int) (runs []ingestion.Run, err error) {
	defer func(start time.Time) { observe("ListIngestionRuns", start, err) }(time.Now())

	rows, err := r.db.Query(ctx, listIngestionRunsSQL, limit)
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	defer rows.Close()

	runs = make([]ingestion.Run, 0, limit)
	for rows.Next() {
		run, scanErr := scanIngestionRun(rows)
		if scanErr != nil {
			err = fmt.Errorf("%w: failed to scan ingestion run: %w", apperrors.ErrDatabase, scanErr)
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed iterating ingestion runs: %w", apperrors.ErrDatabase, err)
	}
	return runs, nil
}

func (r *IngestionRunRepository) FailUnfinished(ctx context.Context, reason string) (n int64, err error) {
	defer func(start time.Time) { observe("FailUnfinishedIngestionRuns", start, err) }(time.Now())

	cmdTag, err := r.db.Exec(ctx, failUnfinishedRunsSQL,
		string(ingestion.StatusFailed),
		reason,
		string(ingestion.StatusPending),
		string(ingestion.StatusRunning),
	)
	if err != nil {
		return 0, translateDBError(err, r.logger)
	}
	return cmdTag.RowsAffected(), nil
}

func scanIngestionRun(row pgx.Row) (*ingestion.Run, error) {
	var (
		run       ingestion.Run
		status    string
		rowErrors []byte
	)
	err := row.Scan(
		&run.ID,
		&run.CustomerSource,
		&run.LoanSource,
		&status,
		&run.Customers.Inserted,
		&run.Customers.Updated,
		&run.Customers.Skipped,
		&run.Loans.Inserted,
		&run.Loans.Updated,
		&run.Loans.Skipped,
		&run.ReconciledCustomers,
		&rowErrors,
		&run.Error,
		&run.SubmittedAt,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = ingestion.Status(status)
	if len(rowErrors) > 0 {
		if err := json.Unmarshal(rowErrors, &run.Errors); err != nil {
			return nil, fmt.Errorf("malformed row_errors: %w", err)
		}
	}
	return &run, nil
}

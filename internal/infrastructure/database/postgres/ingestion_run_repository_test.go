package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"credit-engine/internal/ingestion"
	"credit-engine/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRunID = "6f1d2c1e-8a4b-4c7e-9a51-3f0e4b8d2a10"

var ingestionRunRowColumns = []string{
	"id", "customer_source", "loan_source", "status",
	"customers_inserted", "customers_updated", "customers_skipped",
	"loans_inserted", "loans_updated", "loans_skipped",
	"reconciled_customers", "row_errors", "error",
	"submitted_at", "started_at", "completed_at",
}

func setupIngestionRunRepo(t *testing.T) (context.Context, *IngestionRunRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool := newMockPool(t)
	return context.Background(), NewIngestionRunRepository(mockPool, logger), mockPool
}

func TestCreateIngestionRun(t *testing.T) {
	ctx, repo, mockPool := setupIngestionRunRepo(t)
	defer mockPool.Close()
	run := &ingestion.Run{
		ID:             testRunID,
		CustomerSource: "customer_data.xlsx",
		LoanSource:     "loan_data.xlsx",
		Status:         ingestion.StatusPending,
		SubmittedAt:    time.Now().UTC(),
	}

	mockPool.ExpectExec(regexp.QuoteMeta(insertIngestionRunSQL)).
		WithArgs(run.ID, run.CustomerSource, run.LoanSource, "pending", run.SubmittedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.CreateRun(ctx, run))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateIngestionRun(t *testing.T) {
	ctx, repo, mockPool := setupIngestionRunRepo(t)
	defer mockPool.Close()
	started := time.Now().UTC()
	completed := started.Add(time.Minute)
	run := &ingestion.Run{
		ID:     testRunID,
		Status: ingestion.StatusCompleted,
		Summary: ingestion.Summary{
			Customers:           ingestion.TableStats{Inserted: 2, Updated: 1},
			Loans:               ingestion.TableStats{Inserted: 4, Skipped: 1},
			Errors:              []ingestion.RowError{{Table: "loans", Row: 3, Message: "bad tenure"}},
			ReconciledCustomers: 3,
		},
		StartedAt:   &started,
		CompletedAt: &completed,
	}
	payload, err := json.Marshal(run.Errors)
	require.NoError(t, err)

	mockPool.ExpectExec(regexp.QuoteMeta(updateIngestionRunSQL)).
		WithArgs(run.ID, "completed", 2, 1, 0, 4, 0, 1, 3, payload, "", run.StartedAt, run.CompletedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.UpdateRun(ctx, run))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateIngestionRunWhenMissing(t *testing.T) {
	ctx, repo, mockPool := setupIngestionRunRepo(t)
	defer mockPool.Close()
	run := &ingestion.Run{ID: testRunID, Status: ingestion.StatusRunning}

	mockPool.ExpectExec(regexp.QuoteMeta(updateIngestionRunSQL)).
		WithArgs(run.ID, "running", 0, 0, 0, 0, 0, 0, 0, []byte("[]"), "", run.StartedAt, run.CompletedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.UpdateRun(ctx, run), apperrors.ErrNotFound)
}

func TestGetIngestionRun(t *testing.T) {
	ctx, repo, mockPool := setupIngestionRunRepo(t)
	defer mockPool.Close()
	submitted := time.Now().UTC()
	started := submitted.Add(time.Second)

	mockPool.ExpectQuery(regexp.QuoteMeta(findIngestionRunSQL)).WithArgs(testRunID).
		WillReturnRows(pgxmock.NewRows(ingestionRunRowColumns).AddRow(
			testRunID, "customer_data.xlsx", "loan_data.xlsx", "running",
			1, 0, 0, 0, 0, 0,
			0, []byte(`[{"table":"customers","row":5,"message":"age is required"}]`), "",
			submitted, &started, (*time.Time)(nil)))

	run, err := repo.GetRun(ctx, testRunID)

	require.NoError(t, err)
	assert.Equal(t, ingestion.StatusRunning, run.Status)
	assert.Equal(t, 1, run.Customers.Inserted)
	require.Len(t, run.Errors, 1)
	assert.Equal(t, 5, run.Errors[0].Row)
	require.NotNil(t, run.StartedAt)
	assert.Nil(t, run.CompletedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetIngestionRunReturnNone(t *testing.T) {
	ctx, repo, mockPool := setupIngestionRunRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta(findIngestionRunSQL)).WithArgs(testRunID).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetRun(ctx, testRunID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListIngestionRuns(t *testing.T) {
	ctx, repo, mockPool := setupIngestionRunRepo(t)
	defer mockPool.Close()
	now := time.Now().UTC()

	mockPool.ExpectQuery(regexp.QuoteMeta(listIngestionRunsSQL)).WithArgs(20).
		WillReturnRows(pgxmock.NewRows(ingestionRunRowColumns).
			AddRow(testRunID, "b.csv", "", "pending", 0, 0, 0, 0, 0, 0, 0, []byte("[]"), "", now, (*time.Time)(nil), (*time.Time)(nil)).
			AddRow("0b9e7f3a-2d4c-4e1b-8f6a-5c3d2e1f0a98", "a.csv", "", "failed", 0, 0, 0, 0, 0, 0, 0, []byte("[]"), "interrupted", now.Add(-time.Hour), &now, &now))

	runs, err := repo.ListRuns(ctx, 20)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, testRunID, runs[0].ID)
	assert.Equal(t, ingestion.StatusFailed, runs[1].Status)
	assert.Equal(t, "interrupted", runs[1].Error)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFailUnfinishedIngestionRuns(t *testing.T) {
	ctx, repo, mockPool := setupIngestionRunRepo(t)
	defer mockPool.Close()

	mockPool.ExpectExec(regexp.QuoteMeta(failUnfinishedRunsSQL)).
		WithArgs("failed", "restarted", "pending", "running").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := repo.FailUnfinished(ctx, "restarted")

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

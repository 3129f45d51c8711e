package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"credit-engine/internal/pkg/apperrors"

	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 8
	defaultPageSize    = 500
)

type CustomerLister interface {
	ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
}

type DebtReconciler interface {
	ReconcileCurrentDebt(ctx context.Context, customerID int64) (changed bool, err error)
}

// ReconcileDebtJob walks every customer and recomputes the stored current debt from
// the loans active today. Loans mature without any write, so the stored value drifts
// until this job or a loan creation touches the customer.
type ReconcileDebtJob struct {
	customers   CustomerLister
	reconciler  DebtReconciler
	concurrency int
	pageSize    int
	logger      *slog.Logger
}

func NewReconcileDebtJob(customers CustomerLister, reconciler DebtReconciler, concurrency, pageSize int, logger *slog.Logger) *ReconcileDebtJob {
	if customers == nil || reconciler == nil || logger == nil {
		panic("ReconcileDebtJob dependencies cannot be nil")
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ReconcileDebtJob{
		customers:   customers,
		reconciler:  reconciler,
		concurrency: concurrency,
		pageSize:    pageSize,
		logger:      logger.With("job", "ReconcileDebt"),
	}
}

func (j *ReconcileDebtJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting current debt reconciliation job.")

	var processedCount, changedCount, errorCount atomic.Int32
	var afterID int64
	for {
		ids, err := j.customers.ListIDs(ctx, afterID, j.pageSize)
		if err != nil {
			j.logger.ErrorContext(ctx, "Failed to list customer IDs, aborting job.", slog.Int64("afterID", afterID), slog.Any("error", err))
			return fmt.Errorf("cannot run job, failed to list customers: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(j.concurrency)
		for _, id := range ids {
			g.Go(func() error {
				logCtx := j.logger.With(slog.Int64("customerID", id))
				changed, err := j.reconciler.ReconcileCurrentDebt(gctx, id)
				if err != nil {
					if errors.Is(err, apperrors.ErrNotFound) {
						logCtx.WarnContext(gctx, "Customer disappeared during reconciliation", slog.Any("error", err))
					} else {
						logCtx.ErrorContext(gctx, "Failed to reconcile current debt", slog.Any("error", err))
						errorCount.Add(1)
					}
					return nil
				}
				if changed {
					changedCount.Add(1)
				}
				processedCount.Add(1)
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			j.logger.WarnContext(ctx, "Current debt reconciliation interrupted.", slog.Int64("afterID", afterID), slog.Any("error", err))
			return err
		}
		afterID = ids[len(ids)-1]
		if len(ids) < j.pageSize {
			break
		}
	}

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("customers_processed", int(processedCount.Load())),
		slog.Int("customers_updated", int(changedCount.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if n := errorCount.Load(); n > 0 {
		summaryLog.WarnContext(ctx, "Current debt reconciliation job finished with errors.")
		return fmt.Errorf("job completed with %d errors", n)
	}
	summaryLog.InfoContext(ctx, "Current debt reconciliation job finished successfully.")
	return nil
}

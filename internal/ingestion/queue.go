package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	interruptedReason = "interrupted by shutdown before completion"
)

// StatusStore persists ingestion runs so their status outlives the process.
type StatusStore interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	// ListRuns returns the most recently submitted runs first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	// FailUnfinished marks every pending or running run as failed with reason.
	FailUnfinished(ctx context.Context, reason string) (int64, error)
}

// Service is the request-facing side of the ingestion queue.
type Service interface {
	Submit(ctx context.Context, customerSource, loanSource string) (*Run, error)
	Status(ctx context.Context, runID string) (*Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
}

type QueueConfig struct {
	Workers    int
	QueueSize  int
	RunTimeout time.Duration
}

// Queue executes ingestion runs on a fixed pool of worker goroutines. Runs are
// persisted as pending on Submit and updated by the worker that picks them up.
type Queue struct {
	runner Runner
	store  StatusStore
	pub    event.EventPublisher
	cfg    QueueConfig
	now    func() time.Time
	logger *slog.Logger

	runs      chan *Run
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	started   bool
	closed    bool
}

func NewQueue(runner Runner, store StatusStore, publisher event.EventPublisher, cfg QueueConfig, logger *slog.Logger) *Queue {
	if runner == nil {
		panic("ingestion runner cannot be nil")
	}
	if store == nil {
		panic("ingestion status store cannot be nil")
	}
	if publisher == nil {
		panic("event publisher cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &Queue{
		runner:    runner,
		store:     store,
		pub:       publisher,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "ingestionQueue")),
		runs:      make(chan *Run, cfg.QueueSize),
		closeChan: make(chan struct{}),
	}
}

// Start fails runs left unfinished by a previous process and launches the workers.
// Workers stop when ctx is cancelled or Stop is called.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("%w: ingestion queue is closed", apperrors.ErrUnavailable)
	}
	if q.started {
		return nil
	}

	n, err := q.store.FailUnfinished(ctx, interruptedReason)
	if err != nil {
		return fmt.Errorf("failed to reset unfinished ingestion runs: %w", err)
	}
	if n > 0 {
		q.logger.WarnContext(ctx, "marked unfinished ingestion runs as failed", slog.Int64("count", n))
	}

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.started = true
	q.logger.InfoContext(ctx, "ingestion queue started", slog.Int("workers", q.cfg.Workers))
	return nil
}

func (q *Queue) Submit(ctx context.Context, customerSource, loanSource string) (*Run, error) {
	customerSource = strings.TrimSpace(customerSource)
	loanSource = strings.TrimSpace(loanSource)
	if customerSource == "" && loanSource == "" {
		return nil, apperrors.NewValidationError("source", "at least one of the customer or loan source is required")
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, fmt.Errorf("%w: ingestion queue is closed", apperrors.ErrUnavailable)
	}

	run := &Run{
		ID:             uuid.NewString(),
		CustomerSource: customerSource,
		LoanSource:     loanSource,
		Status:         StatusPending,
		SubmittedAt:    q.now().UTC(),
	}
	if err := q.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to save ingestion run: %w", err)
	}
	submitted := *run

	select {
	case q.runs <- run:
		monitoring.SetIngestionBacklog(len(q.runs))
		q.logger.InfoContext(ctx, "ingestion run queued", slog.String("runId", run.ID))
		return &submitted, nil
	default:
	}

	run.Status = StatusFailed
	run.Error = "ingestion queue is full"
	completed := q.now().UTC()
	run.CompletedAt = &completed
	if err := q.store.UpdateRun(ctx, run); err != nil {
		q.logger.ErrorContext(ctx, "failed to mark rejected ingestion run", slog.String("runId", run.ID), slog.Any("error", err))
	}
	return nil, fmt.Errorf("%w: ingestion queue is full, retry later", apperrors.ErrUnavailable)
}

func (q *Queue) Status(ctx context.Context, runID string) (*Run, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, apperrors.NewValidationError("runId", "must be a UUID")
	}
	return q.store.GetRun(ctx, runID)
}

func (q *Queue) List(ctx context.Context, limit int) ([]Run, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return q.store.ListRuns(ctx, limit)
}

// Stop rejects new submissions and waits for in-flight runs to finish or ctx to expire.
// Runs still queued stay pending and are failed by the next Start.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.InfoContext(ctx, "ingestion queue stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case run := <-q.runs:
			monitoring.SetIngestionBacklog(len(q.runs))
			q.process(ctx, run)
		}
	}
}

func (q *Queue) process(ctx context.Context, run *Run) {
	logger := q.logger.With(slog.String("runId", run.ID))

	started := q.now().UTC()
	run.Status = StatusRunning
	run.StartedAt = &started
	if err := q.store.UpdateRun(ctx, run); err != nil {
		logger.ErrorContext(ctx, "failed to mark ingestion run as running", slog.Any("error", err))
	}

	runCtx := ctx
	cancel := func() {}
	if q.cfg.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, q.cfg.RunTimeout)
	}
	summary, err := q.runner.Run(runCtx, run.CustomerSource, run.LoanSource)
	cancel()

	if summary != nil {
		run.Summary = *summary
	}
	completed := q.now().UTC()
	run.CompletedAt = &completed
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		logger.ErrorContext(ctx, "ingestion run failed", slog.Any("error", err))
	} else {
		run.Status = StatusCompleted
		logger.InfoContext(ctx, "ingestion run completed", slog.Int("rowErrors", len(run.Errors)))
	}

	// The final status must be written even when shutdown cancelled the run.
	finalCtx := context.WithoutCancel(ctx)
	if err := q.store.UpdateRun(finalCtx, run); err != nil {
		logger.ErrorContext(finalCtx, "failed to save ingestion run result", slog.Any("error", err))
	}
	monitoring.RecordIngestionRun(string(run.Status), completed.Sub(started))

	if err := q.pub.PublishIngestionCompleted(finalCtx, event.IngestionCompletedEvent{
		RunID:             run.ID,
		Status:            string(run.Status),
		CustomersInserted: run.Customers.Inserted,
		CustomersUpdated:  run.Customers.Updated,
		LoansInserted:     run.Loans.Inserted,
		LoansUpdated:      run.Loans.Updated,
		RowErrors:         len(run.Errors),
		Timestamp:         completed,
	}); err != nil {
		logger.WarnContext(finalCtx, "failed to publish ingestion completed event", slog.Any("error", err))
	}
}

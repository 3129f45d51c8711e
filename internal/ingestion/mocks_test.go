package ingestion

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/event"
	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/mock"
)

type fakeOpener map[string]string

func (f fakeOpener) Open(_ context.Context, source string) (io.ReadCloser, error) {
	body, ok := f[source]
	if !ok {
		return nil, fmt.Errorf("%w: source %s does not exist", apperrors.ErrNotFound, source)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type mockCustomerWriter struct {
	mock.Mock
}

func (m *mockCustomerWriter) Upsert(ctx context.Context, c *customer.Customer) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}

func (m *mockCustomerWriter) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *mockCustomerWriter) SyncIDSequence(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockLoanWriter struct {
	mock.Mock
}

func (m *mockLoanWriter) Upsert(ctx context.Context, l *loan.Loan) (bool, error) {
	args := m.Called(ctx, l)
	return args.Bool(0), args.Error(1)
}

func (m *mockLoanWriter) SyncIDSequence(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) ReconcileCurrentDebt(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type runnerFunc func(ctx context.Context, customerSource, loanSource string) (*Summary, error)

func (f runnerFunc) Run(ctx context.Context, customerSource, loanSource string) (*Summary, error) {
	return f(ctx, customerSource, loanSource)
}

// memoryStore keeps runs in memory, newest last.
type memoryStore struct {
	mu        sync.Mutex
	runs      []Run
	listLimit int
}

func (s *memoryStore) CreateRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

func (s *memoryStore) UpdateRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = *run
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (s *memoryStore) GetRun(_ context.Context, id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("%w: ingestion run %s", apperrors.ErrNotFound, id)
}

func (s *memoryStore) ListRuns(_ context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listLimit = limit
	out := slices.Clone(s.runs)
	slices.Reverse(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) FailUnfinished(_ context.Context, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.runs {
		if !s.runs[i].Status.Finished() {
			s.runs[i].Status = StatusFailed
			s.runs[i].Error = reason
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	event.NopPublisher
	mu        sync.Mutex
	completed []event.IngestionCompletedEvent
}

func (p *recordingPublisher) PublishIngestionCompleted(_ context.Context, e event.IngestionCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, e)
	return nil
}

func (p *recordingPublisher) events() []event.IngestionCompletedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.completed)
}

// memoryLedger stores customers and loans by id and reconciles debt as of now.
type memoryLedger struct {
	now       time.Time
	customers map[int64]customer.Customer
	loans     map[int64]loan.Loan
}

func newMemoryLedger(now time.Time) *memoryLedger {
	return &memoryLedger{now: now, customers: map[int64]customer.Customer{}, loans: map[int64]loan.Loan{}}
}

func (m *memoryLedger) ReconcileCurrentDebt(_ context.Context, id int64) (bool, error) {
	c, ok := m.customers[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	var owned []loan.Loan
	for _, l := range m.loans {
		if l.CustomerID == id {
			owned = append(owned, l)
		}
	}
	debt := loan.ActiveDebt(owned, m.now)
	changed := !debt.Equal(c.CurrentDebt)
	c.CurrentDebt = debt
	m.customers[id] = c
	return changed, nil
}

type memoryCustomers struct{ *memoryLedger }

func (m memoryCustomers) Upsert(_ context.Context, c *customer.Customer) (bool, error) {
	_, exists := m.customers[c.CustomerID]
	m.customers[c.CustomerID] = *c
	return !exists, nil
}

func (m memoryCustomers) FindByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (m memoryCustomers) SyncIDSequence(context.Context) error { return nil }

type memoryLoans struct{ *memoryLedger }

func (m memoryLoans) Upsert(_ context.Context, l *loan.Loan) (bool, error) {
	_, exists := m.loans[l.LoanID]
	m.loans[l.LoanID] = *l
	return !exists, nil
}

func (m memoryLoans) SyncIDSequence(context.Context) error { return nil }

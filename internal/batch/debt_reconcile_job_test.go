package batch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"credit-engine/internal/batch"
	"credit-engine/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCustomerLister struct {
	mock.Mock
}

func (m *MockCustomerLister) ListIDs(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	args := m.Called(ctx, afterID, limit)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDebtReconciler struct {
	mock.Mock
}

func (m *MockDebtReconciler) ReconcileCurrentDebt(ctx context.Context, customerID int64) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewReconcileDebtJob_PanicsOnNilDeps(t *testing.T) {
	assert.Panics(t, func() { batch.NewReconcileDebtJob(nil, new(MockDebtReconciler), 1, 1, discardLogger) })
	assert.Panics(t, func() { batch.NewReconcileDebtJob(new(MockCustomerLister), nil, 1, 1, discardLogger) })
	assert.Panics(t, func() { batch.NewReconcileDebtJob(new(MockCustomerLister), new(MockDebtReconciler), 1, 1, nil) })
}

func TestReconcileDebtJob_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Pages through every customer", func(t *testing.T) {
		lister := new(MockCustomerLister)
		reconciler := new(MockDebtReconciler)
		lister.On("ListIDs", ctx, int64(0), 2).Return([]int64{1, 2}, nil).Once()
		lister.On("ListIDs", ctx, int64(2), 2).Return([]int64{5}, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(1)).Return(true, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(2)).Return(false, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(5)).Return(false, apperrors.ErrNotFound).Once()

		err := batch.NewReconcileDebtJob(lister, reconciler, 2, 2, discardLogger).Run(ctx)

		assert.NoError(t, err)
		lister.AssertExpectations(t)
		reconciler.AssertExpectations(t)
	})

	t.Run("Stops on an empty page", func(t *testing.T) {
		lister := new(MockCustomerLister)
		reconciler := new(MockDebtReconciler)
		lister.On("ListIDs", ctx, int64(0), 2).Return([]int64{3, 4}, nil).Once()
		lister.On("ListIDs", ctx, int64(4), 2).Return([]int64{}, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, mock.Anything).Return(false, nil).Twice()

		assert.NoError(t, batch.NewReconcileDebtJob(lister, reconciler, 1, 2, discardLogger).Run(ctx))
		lister.AssertExpectations(t)
	})

	t.Run("Counts failures", func(t *testing.T) {
		lister := new(MockCustomerLister)
		reconciler := new(MockDebtReconciler)
		lister.On("ListIDs", ctx, int64(0), 500).Return([]int64{1, 2, 3}, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(1)).Return(false, apperrors.ErrDatabase).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(2)).Return(true, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(3)).Return(false, errors.New("lock timeout")).Once()

		err := batch.NewReconcileDebtJob(lister, reconciler, 0, 0, discardLogger).Run(ctx)

		assert.EqualError(t, err, "job completed with 2 errors")
	})

	t.Run("Listing failure aborts", func(t *testing.T) {
		lister := new(MockCustomerLister)
		reconciler := new(MockDebtReconciler)
		lister.On("ListIDs", ctx, int64(0), 10).Return(nil, apperrors.ErrDatabase).Once()

		err := batch.NewReconcileDebtJob(lister, reconciler, 1, 10, discardLogger).Run(ctx)

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		reconciler.AssertNotCalled(t, "ReconcileCurrentDebt", mock.Anything, mock.Anything)
	})
}

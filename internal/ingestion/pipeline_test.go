package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	customersCSV = `Customer ID,First Name,Last Name,Age,Phone Number,Monthly Salary,Approved Limit,Current Debt
1,Ada,Lovelace,36,9876543210,50000,1800000,0
2,Alan,Turing,41,9.876543211e+09,"1,00,000",,
x,Bad,Row,30,9876500000,40000,,
`
	loansCSV = `Customer ID,Loan ID,Loan Amount,Tenure,Interest Rate,Monthly payment,EMIs paid on Time,Date of Approval,End Date
1,101,200000,12,10,17583.18,12,2022-01-01,2023-01-01
2,102,500000,48,8,,0,15/01/2023,
9,103,100000,12,10,,0,2023-01-01,
`
)

func setupPipeline(opener Opener) (*mockCustomerWriter, *mockLoanWriter, *mockReconciler, *Pipeline) {
	customers := new(mockCustomerWriter)
	loans := new(mockLoanWriter)
	reconciler := new(mockReconciler)
	p := NewPipeline(opener, customers, loans, reconciler, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return customers, loans, reconciler, p
}

func customerWithID(id int64) any {
	return mock.MatchedBy(func(c *customer.Customer) bool { return c.CustomerID == id })
}

func loanWithID(id int64) any {
	return mock.MatchedBy(func(l *loan.Loan) bool { return l.LoanID == id })
}

func TestNewPipeline_PanicsOnNilDeps(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opener := fakeOpener{}
	assert.Panics(t, func() { NewPipeline(nil, new(mockCustomerWriter), new(mockLoanWriter), new(mockReconciler), logger) })
	assert.Panics(t, func() { NewPipeline(opener, nil, new(mockLoanWriter), new(mockReconciler), logger) })
	assert.Panics(t, func() { NewPipeline(opener, new(mockCustomerWriter), new(mockLoanWriter), nil, logger) })
	assert.Panics(t, func() { NewPipeline(opener, new(mockCustomerWriter), new(mockLoanWriter), new(mockReconciler), nil) })
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Loads both tables and reconciles affected customers", func(t *testing.T) {
		customers, loans, reconciler, p := setupPipeline(fakeOpener{
			"customers.csv": customersCSV,
			"loans.csv":     loansCSV,
		})
		customers.On("Upsert", mock.Anything, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.CustomerID == 1 && c.ApprovedLimit.Equal(decimal.NewFromInt(1800000))
		})).Return(true, nil).Once()
		customers.On("Upsert", mock.Anything, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.CustomerID == 2 && c.PhoneNumber == "9876543211" && c.ApprovedLimit.Equal(decimal.NewFromInt(3600000))
		})).Return(false, nil).Once()
		customers.On("FindByID", mock.Anything, int64(9)).Return(nil, apperrors.ErrNotFound).Once()
		loans.On("Upsert", mock.Anything, loanWithID(101)).Return(true, nil).Once()
		loans.On("Upsert", mock.Anything, mock.MatchedBy(func(l *loan.Loan) bool {
			return l.LoanID == 102 && l.MonthlyInstallment.Equal(decimal.RequireFromString("12206.46"))
		})).Return(true, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(1)).Return(true, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(2)).Return(false, nil).Once()
		customers.On("SyncIDSequence", mock.Anything).Return(nil).Once()
		loans.On("SyncIDSequence", mock.Anything).Return(nil).Once()

		summary, err := p.Run(ctx, "customers.csv", "loans.csv")

		require.NoError(t, err)
		assert.Equal(t, TableStats{Inserted: 1, Updated: 1, Skipped: 1}, summary.Customers)
		assert.Equal(t, TableStats{Inserted: 2, Skipped: 1}, summary.Loans)
		assert.Equal(t, 2, summary.ReconciledCustomers)
		require.Len(t, summary.Errors, 2)
		assert.Equal(t, TableCustomers, summary.Errors[0].Table)
		assert.Equal(t, 4, summary.Errors[0].Row)
		assert.Equal(t, TableLoans, summary.Errors[1].Table)
		assert.Equal(t, 4, summary.Errors[1].Row)
		assert.Contains(t, summary.Errors[1].Message, "customer 9 does not exist")
		customers.AssertExpectations(t)
		loans.AssertExpectations(t)
		reconciler.AssertExpectations(t)
	})

	t.Run("Loans only looks up existing customers once", func(t *testing.T) {
		customers, loans, reconciler, p := setupPipeline(fakeOpener{"loans.csv": `customer_id,loan_id,loan_amount,tenure,interest_rate,start_date
4,201,100000,12,10,2023-01-01
4,202,50000,6,12,2023-06-01
`})
		customers.On("FindByID", mock.Anything, int64(4)).Return(&customer.Customer{CustomerID: 4}, nil).Once()
		loans.On("Upsert", mock.Anything, loanWithID(201)).Return(false, nil).Once()
		loans.On("Upsert", mock.Anything, loanWithID(202)).Return(false, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(4)).Return(true, nil).Once()
		loans.On("SyncIDSequence", mock.Anything).Return(nil).Once()

		summary, err := p.Run(ctx, "", "loans.csv")

		require.NoError(t, err)
		assert.Equal(t, TableStats{Updated: 2}, summary.Loans)
		assert.Empty(t, summary.Errors)
		customers.AssertExpectations(t)
		customers.AssertNotCalled(t, "SyncIDSequence", mock.Anything)
		loans.AssertExpectations(t)
	})

	t.Run("Unreadable source fails only its table", func(t *testing.T) {
		customers, loans, reconciler, p := setupPipeline(fakeOpener{"loans.csv": loansCSV})
		customers.On("FindByID", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)

		summary, err := p.Run(ctx, "missing.csv", "loans.csv")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		require.NotNil(t, summary)
		assert.Equal(t, TableCustomers, summary.Errors[0].Table)
		assert.Equal(t, 0, summary.Errors[0].Row)
		assert.Equal(t, 3, summary.Loans.Skipped)
		loans.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		loans.AssertNotCalled(t, "SyncIDSequence", mock.Anything)
		reconciler.AssertNotCalled(t, "ReconcileCurrentDebt", mock.Anything, mock.Anything)
	})

	t.Run("Missing columns reject the table", func(t *testing.T) {
		_, _, _, p := setupPipeline(fakeOpener{"customers.csv": "customer_id,first_name\n1,Ada\n"})

		summary, err := p.Run(ctx, "customers.csv", "")

		require.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, "header", apperrors.FieldOf(err))
		require.Len(t, summary.Errors, 1)
		assert.Contains(t, summary.Errors[0].Message, "monthly_salary")
	})

	t.Run("Write failures are reported per row", func(t *testing.T) {
		customers, _, reconciler, p := setupPipeline(fakeOpener{"customers.csv": customersCSV})
		customers.On("Upsert", mock.Anything, customerWithID(1)).Return(false, apperrors.ErrConflict).Once()
		customers.On("Upsert", mock.Anything, customerWithID(2)).Return(true, nil).Once()
		reconciler.On("ReconcileCurrentDebt", mock.Anything, int64(2)).Return(false, apperrors.ErrDatabase).Once()
		customers.On("SyncIDSequence", mock.Anything).Return(nil).Once()

		summary, err := p.Run(ctx, "customers.csv", "")

		require.NoError(t, err)
		assert.Equal(t, TableStats{Inserted: 1, Skipped: 2}, summary.Customers)
		assert.Equal(t, 0, summary.ReconciledCustomers)
		require.Len(t, summary.Errors, 3)
		assert.Equal(t, 2, summary.Errors[0].Row)
		assert.Contains(t, summary.Errors[2].Message, "reconcile current debt of customer 2")
		customers.AssertExpectations(t)
	})

	t.Run("Requires a source", func(t *testing.T) {
		_, _, _, p := setupPipeline(fakeOpener{})

		_, err := p.Run(ctx, " ", "")

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func ledgerSnapshot(l *memoryLedger) map[string]string {
	snap := make(map[string]string)
	for id, c := range l.customers {
		snap[fmt.Sprintf("customer/%d", id)] = fmt.Sprintf("%s %s %d %s salary=%s limit=%s debt=%s",
			c.FirstName, c.LastName, c.Age, c.PhoneNumber,
			c.MonthlySalary.StringFixed(2), c.ApprovedLimit.StringFixed(2), c.CurrentDebt.StringFixed(2))
	}
	for id, ln := range l.loans {
		snap[fmt.Sprintf("loan/%d", id)] = fmt.Sprintf("customer=%d amount=%s tenure=%d rate=%s emi=%s paid=%d %s..%s",
			ln.CustomerID, ln.LoanAmount.StringFixed(2), ln.Tenure, ln.InterestRate.StringFixed(2),
			ln.MonthlyInstallment.StringFixed(2), ln.EMIsPaidOnTime,
			ln.StartDate.Format(time.DateOnly), ln.EndDate.Format(time.DateOnly))
	}
	return snap
}

func TestPipeline_RunTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := newMemoryLedger(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC))
	p := NewPipeline(fakeOpener{"customers.csv": customersCSV, "loans.csv": loansCSV},
		memoryCustomers{ledger}, memoryLoans{ledger}, ledger,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	first, err := p.Run(ctx, "customers.csv", "loans.csv")
	require.NoError(t, err)
	afterFirst := ledgerSnapshot(ledger)

	second, err := p.Run(ctx, "customers.csv", "loans.csv")
	require.NoError(t, err)

	assert.Equal(t, afterFirst, ledgerSnapshot(ledger))
	assert.True(t, decimal.NewFromInt(500000).Equal(ledger.customers[2].CurrentDebt))
	assert.True(t, ledger.customers[1].CurrentDebt.IsZero())

	assert.Equal(t, TableStats{Inserted: 2, Skipped: 1}, first.Customers)
	assert.Equal(t, TableStats{Inserted: 2, Skipped: 1}, first.Loans)
	assert.Equal(t, TableStats{Updated: 2, Skipped: 1}, second.Customers)
	assert.Equal(t, TableStats{Updated: 2, Skipped: 1}, second.Loans)
	assert.Equal(t, first.ReconciledCustomers, second.ReconciledCustomers)
	assert.Equal(t, first.Errors, second.Errors)
}

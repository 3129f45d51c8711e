package handler_test

import (
	"context"
	"io"
	"log/slog"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/domain/underwriting"
	"credit-engine/internal/ingestion"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func decimalEq(s string) any {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) RegisterCustomer(ctx context.Context, firstName, lastName string, age int, monthlySalary decimal.Decimal, phoneNumber string) (*customer.Customer, error) {
	args := m.Called(ctx, firstName, lastName, age, monthlySalary, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.Detail, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loan.Detail), args.Error(1)
}

func (m *MockLoanService) GetCustomerLoans(ctx context.Context, customerID int64, includeAll bool) ([]loan.Loan, error) {
	args := m.Called(ctx, customerID, includeAll)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]loan.Loan), args.Error(1)
}

type MockUnderwritingService struct {
	mock.Mock
}

func (m *MockUnderwritingService) CreditScore(ctx context.Context, customerID int64) (*underwriting.ScoreBreakdown, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*underwriting.ScoreBreakdown), args.Error(1)
}

func (m *MockUnderwritingService) CheckEligibility(ctx context.Context, req underwriting.Request) (*underwriting.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*underwriting.Result), args.Error(1)
}

func (m *MockUnderwritingService) CreateLoan(ctx context.Context, req underwriting.Request) (*underwriting.CreationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*underwriting.CreationResult), args.Error(1)
}

func (m *MockUnderwritingService) ReconcileCurrentDebt(ctx context.Context, customerID int64) (bool, error) {
	args := m.Called(ctx, customerID)
	return args.Bool(0), args.Error(1)
}

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Submit(ctx context.Context, customerSource, loanSource string) (*ingestion.Run, error) {
	args := m.Called(ctx, customerSource, loanSource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingestion.Run), args.Error(1)
}

func (m *MockIngestionService) Status(ctx context.Context, runID string) (*ingestion.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ingestion.Run), args.Error(1)
}

func (m *MockIngestionService) List(ctx context.Context, limit int) ([]ingestion.Run, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ingestion.Run), args.Error(1)
}

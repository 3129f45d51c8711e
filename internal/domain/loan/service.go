package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/pkg/apperrors"
)

type LoanService interface {
	GetLoan(ctx context.Context, loanID int64) (*Detail, error)

	// GetCustomerLoans lists the customer's active loans, or every loan when includeAll is set.
	GetCustomerLoans(ctx context.Context, customerID int64, includeAll bool) ([]Loan, error)
}

// Detail is a loan together with its borrower.
type Detail struct {
	Loan     *Loan
	Customer *customer.Customer
}

type loanServiceImpl struct {
	repo            Repository
	customerService customer.CustomerService
	now             func() time.Time
	logger          *slog.Logger
}

func NewLoanService(r Repository, cs customer.CustomerService, logger *slog.Logger) LoanService {
	if r == nil || cs == nil {
		panic("loan service dependencies cannot be nil")
	}
	return &loanServiceImpl{
		repo:            r,
		customerService: cs,
		now:             time.Now,
		logger:          logger.With(slog.String("component", "loanService")),
	}
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Detail, error) {
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", slog.Int64("loanID", loanID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}

	cust, err := s.customerService.GetCustomer(ctx, l.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get borrower of loan %d: %w", loanID, err)
	}
	return &Detail{Loan: l, Customer: cust}, nil
}

func (s *loanServiceImpl) GetCustomerLoans(ctx context.Context, customerID int64, includeAll bool) ([]Loan, error) {
	if _, err := s.customerService.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	loans, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list customer loans", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans of customer %d: %w", customerID, err)
	}
	if includeAll {
		return loans, nil
	}
	return FilterActive(loans, s.now()), nil
}

package underwriting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	operationCheck  = "check"
	operationCreate = "create"
)

type Service interface {
	CreditScore(ctx context.Context, customerID int64) (*ScoreBreakdown, error)

	CheckEligibility(ctx context.Context, req Request) (*Result, error)

	// CreateLoan re-runs eligibility under a lock on the customer row and, if approved,
	// persists the loan and the new current debt in the same transaction.
	CreateLoan(ctx context.Context, req Request) (*CreationResult, error)

	// ReconcileCurrentDebt recomputes the stored current debt from active loans.
	ReconcileCurrentDebt(ctx context.Context, customerID int64) (changed bool, err error)
}

type CreationResult struct {
	Eligibility *Result
	Loan        *loan.Loan
}

func (r *CreationResult) Approved() bool {
	return r.Loan != nil
}

type service struct {
	customers customer.Repository
	loans     loan.Repository
	pub       event.EventPublisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(customers customer.Repository, loans loan.Repository, publisher event.EventPublisher, logger *slog.Logger) Service {
	if customers == nil || loans == nil {
		panic("underwriting repositories cannot be nil")
	}
	if publisher == nil {
		panic("event publisher cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &service{
		customers: customers,
		loans:     loans,
		pub:       publisher,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "underwritingService")),
	}
}

func (s *service) loadSnapshot(ctx context.Context, customerID int64) (*customer.Customer, []loan.Loan, error) {
	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}
	loans, err := s.loans.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load loans of customer %d: %w", customerID, err)
	}
	return cust, loans, nil
}

func (s *service) CreditScore(ctx context.Context, customerID int64) (*ScoreBreakdown, error) {
	cust, loans, err := s.loadSnapshot(ctx, customerID)
	if err != nil {
		return nil, err
	}

	score := CalculateScore(NewScoreInputs(cust, loans, s.now()))
	monitoring.RecordCreditScore(score.Score)
	s.logger.DebugContext(ctx, "Computed credit score",
		slog.Int64("customerID", customerID),
		slog.Int("score", score.Score),
		slog.Bool("debtOverride", score.DebtOverride),
	)
	return &score, nil
}

func (s *service) CheckEligibility(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cust, loans, err := s.loadSnapshot(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	res, err := Decide(cust, loans, req, s.now())
	if err != nil {
		return nil, err
	}
	monitoring.RecordEligibilityDecision(operationCheck, res.Approved, string(res.Reason))
	s.logger.InfoContext(ctx, "Checked eligibility",
		slog.Int64("customerID", req.CustomerID),
		slog.Bool("approved", res.Approved),
		slog.String("reason", string(res.Reason)),
		slog.Int("score", res.CreditScore),
	)
	return res, nil
}

func (s *service) CreateLoan(ctx context.Context, req Request) (result *CreationResult, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := s.logger.With(slog.Int64("customerID", req.CustomerID))

	tx, err := s.loans.BeginTx(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to begin loan creation transaction", slog.Any("error", err))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = s.loans.RollbackTx(ctx, tx)
			panic(p)
		}
		if !committed {
			if rbErr := s.loans.RollbackTx(ctx, tx); rbErr != nil {
				logger.ErrorContext(ctx, "Failed to roll back loan creation", slog.Any("error", rbErr))
			}
		}
	}()

	cust, err := s.customers.FindByIDForUpdate(ctx, tx, req.CustomerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to lock customer %d: %w", req.CustomerID, err)
	}

	loans, err := s.loans.FindByCustomerIDInTx(ctx, tx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans of customer %d: %w", req.CustomerID, err)
	}

	now := s.now()
	decision, err := Decide(cust, loans, req, now)
	if err != nil {
		return nil, err
	}
	monitoring.RecordEligibilityDecision(operationCreate, decision.Approved, string(decision.Reason))

	if !decision.Approved {
		logger.InfoContext(ctx, "Loan request rejected",
			slog.String("reason", string(decision.Reason)),
			slog.Int("score", decision.CreditScore),
		)
		return &CreationResult{Eligibility: decision}, nil
	}

	newLoan, err := loan.NewLoan(cust.CustomerID, req.LoanAmount, req.Tenure,
		decision.CorrectedInterestRate, decision.MonthlyInstallment, now)
	if err != nil {
		return nil, err
	}

	created, err := s.loans.CreateLoanInTx(ctx, tx, newLoan)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to insert loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	currentDebt := decision.ActiveDebt.Add(req.LoanAmount)
	if err = s.customers.UpdateCurrentDebtInTx(ctx, tx, cust.CustomerID, currentDebt); err != nil {
		logger.ErrorContext(ctx, "Failed to update current debt", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update current debt: %w", err)
	}

	if err = s.loans.CommitTx(ctx, tx); err != nil {
		logger.ErrorContext(ctx, "Failed to commit loan creation", slog.Any("error", err))
		return nil, fmt.Errorf("failed to commit loan creation: %w", err)
	}
	committed = true
	monitoring.RecordLoanCreated()

	logger.InfoContext(ctx, "Loan created",
		slog.Int64("loanID", created.LoanID),
		slog.String("currentDebt", currentDebt.String()),
	)
	s.publishLoanCreated(ctx, created, decision, currentDebt)

	return &CreationResult{Eligibility: decision, Loan: created}, nil
}

func (s *service) publishLoanCreated(ctx context.Context, l *loan.Loan, decision *Result, currentDebt decimal.Decimal) {
	evt := event.LoanCreatedEvent{
		LoanID:             l.LoanID,
		CustomerID:         l.CustomerID,
		LoanAmount:         l.LoanAmount,
		InterestRate:       l.InterestRate,
		MonthlyInstallment: l.MonthlyInstallment,
		Tenure:             l.Tenure,
		CreditScore:        decision.CreditScore,
		CurrentDebt:        currentDebt,
		Timestamp:          s.now(),
	}
	if err := s.pub.PublishLoanCreated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Loan created, but failed to publish event",
			slog.Int64("loanID", l.LoanID), slog.Any("error", err))
	}
}

func (s *service) ReconcileCurrentDebt(ctx context.Context, customerID int64) (changed bool, err error) {
	tx, err := s.loans.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.loans.RollbackTx(ctx, tx)
		}
	}()

	cust, err := s.customers.FindByIDForUpdate(ctx, tx, customerID)
	if err != nil {
		return false, err
	}
	loans, err := s.loans.FindByCustomerIDInTx(ctx, tx, customerID)
	if err != nil {
		return false, fmt.Errorf("failed to load loans of customer %d: %w", customerID, err)
	}

	debt := loan.ActiveDebt(loans, s.now())
	if debt.Equal(cust.CurrentDebt) {
		if err = s.loans.CommitTx(ctx, tx); err != nil {
			return false, fmt.Errorf("failed to commit reconciliation: %w", err)
		}
		monitoring.RecordDebtReconciled("unchanged")
		return false, nil
	}

	if err = s.customers.UpdateCurrentDebtInTx(ctx, tx, customerID, debt); err != nil {
		return false, fmt.Errorf("failed to update current debt: %w", err)
	}
	if err = s.loans.CommitTx(ctx, tx); err != nil {
		return false, fmt.Errorf("failed to commit reconciliation: %w", err)
	}
	monitoring.RecordDebtReconciled("updated")
	s.logger.InfoContext(ctx, "Reconciled current debt",
		slog.Int64("customerID", customerID),
		slog.String("previous", cust.CurrentDebt.String()),
		slog.String("current", debt.String()),
	)
	return true, nil
}

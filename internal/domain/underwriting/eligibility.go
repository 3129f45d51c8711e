package underwriting

import (
	"fmt"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type RejectionReason string

const (
	ReasonNone              RejectionReason = ""
	ReasonCreditScoreTooLow RejectionReason = "credit_score_too_low"
	ReasonEMIExceedsSalary  RejectionReason = "emi_exceeds_salary"
	ReasonLimitExceeded     RejectionReason = "limit_exceeded"
)

const (
	scoreNoFloor    = 50
	scoreMidFloor   = 30
	scoreMinimum    = 10
	approvedMessage = "Loan approved."

	// rateDecimalPlaces matches the NUMERIC(6,2) interest_rate column.
	rateDecimalPlaces = 2
)

var (
	midScoreRateFloor = decimal.NewFromInt(12)
	lowScoreRateFloor = decimal.NewFromInt(16)
	// RejectionRate is reported as the corrected rate when the score disqualifies the customer.
	RejectionRate = decimal.NewFromInt(100)

	salaryShare = decimal.RequireFromString("0.50")
)

type Request struct {
	CustomerID   int64
	LoanAmount   decimal.Decimal
	InterestRate decimal.Decimal
	Tenure       int
}

func (r Request) Validate() error {
	switch {
	case r.CustomerID <= 0:
		return apperrors.NewValidationError("customer_id", "must be positive")
	case !r.LoanAmount.IsPositive():
		return apperrors.NewValidationError("loan_amount", "must be positive")
	case !r.InterestRate.IsPositive():
		return apperrors.NewValidationError("interest_rate", "must be positive")
	case !r.InterestRate.Equal(r.InterestRate.Truncate(rateDecimalPlaces)):
		return apperrors.NewValidationError("interest_rate", "must have at most 2 decimal places")
	case r.Tenure <= 0:
		return apperrors.NewValidationError("tenure", "must be positive")
	}
	return nil
}

type Result struct {
	CustomerID            int64
	Approved              bool
	Reason                RejectionReason
	Message               string
	CreditScore           int
	InterestRate          decimal.Decimal
	CorrectedInterestRate decimal.Decimal
	Tenure                int
	MonthlyInstallment    decimal.Decimal
	// ActiveDebt is the principal of the customer's active loans before this request.
	ActiveDebt decimal.Decimal
}

// CorrectedInterestRate applies the score-banded rate floor. ok is false when the
// score is too low for any rate, in which case RejectionRate is returned.
func CorrectedInterestRate(score int, proposed decimal.Decimal) (rate decimal.Decimal, ok bool) {
	switch {
	case score > scoreNoFloor:
		return proposed, true
	case score > scoreMidFloor:
		return decimal.Max(proposed, midScoreRateFloor), true
	case score > scoreMinimum:
		return decimal.Max(proposed, lowScoreRateFloor), true
	default:
		return RejectionRate, false
	}
}

// Decide scores the customer over loans and evaluates the request. It has no side effects.
func Decide(cust *customer.Customer, loans []loan.Loan, req Request, now time.Time) (*Result, error) {
	score := CalculateScore(NewScoreInputs(cust, loans, now))
	return evaluate(score.Score, cust, loans, req, now)
}

func evaluate(score int, cust *customer.Customer, loans []loan.Loan, req Request, now time.Time) (*Result, error) {
	corrected, scoreOK := CorrectedInterestRate(score, req.InterestRate)

	emi, err := loan.CalculateEMI(req.LoanAmount, corrected, req.Tenure)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate installment: %w", err)
	}

	res := &Result{
		CustomerID:            cust.CustomerID,
		CreditScore:           score,
		InterestRate:          req.InterestRate,
		CorrectedInterestRate: corrected,
		Tenure:                req.Tenure,
		MonthlyInstallment:    emi,
		ActiveDebt:            loan.ActiveDebt(loans, now),
	}

	installments := loan.ActiveInstallments(loans, now).Add(emi)
	maxInstallments := cust.MonthlySalary.Mul(salaryShare)
	remaining := cust.ApprovedLimit.Sub(res.ActiveDebt)

	switch {
	case !scoreOK:
		res.Reason = ReasonCreditScoreTooLow
		res.Message = fmt.Sprintf("Credit score %d is too low for a loan.", score)
	case installments.GreaterThan(maxInstallments):
		res.Reason = ReasonEMIExceedsSalary
		res.Message = fmt.Sprintf("Monthly installments %s would exceed 50%% of monthly salary (%s).",
			installments.StringFixed(2), maxInstallments.StringFixed(2))
	case req.LoanAmount.GreaterThan(remaining):
		res.Reason = ReasonLimitExceeded
		res.Message = fmt.Sprintf("Requested amount %s exceeds remaining approved limit %s.",
			req.LoanAmount.StringFixed(2), remaining.StringFixed(2))
	default:
		res.Approved = true
		res.Message = approvedMessage
	}
	return res, nil
}

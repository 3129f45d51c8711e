package loan

import (
	"fmt"
	"time"

	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type Loan struct {
	LoanID             int64
	CustomerID         int64
	LoanAmount         decimal.Decimal
	Tenure             int
	InterestRate       decimal.Decimal
	MonthlyInstallment decimal.Decimal
	EMIsPaidOnTime     int
	StartDate          time.Time
	EndDate            time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewLoan builds an unsaved loan starting on startDate with no EMIs paid yet.
func NewLoan(customerID int64, amount decimal.Decimal, tenure int, interestRate, monthlyInstallment decimal.Decimal, startDate time.Time) (*Loan, error) {
	start := DateOf(startDate)
	l := &Loan{
		CustomerID:         customerID,
		LoanAmount:         amount,
		Tenure:             tenure,
		InterestRate:       interestRate,
		MonthlyInstallment: monthlyInstallment,
		StartDate:          start,
		EndDate:            EndDateFor(start, tenure),
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loan) Validate() error {
	switch {
	case l.CustomerID <= 0:
		return apperrors.NewValidationError("customer_id", "must be positive")
	case !l.LoanAmount.IsPositive():
		return apperrors.NewValidationError("loan_amount", "must be positive")
	case l.Tenure <= 0:
		return apperrors.NewValidationError("tenure", "must be positive")
	case l.InterestRate.IsNegative():
		return apperrors.NewValidationError("interest_rate", "cannot be negative")
	case l.MonthlyInstallment.IsNegative():
		return apperrors.NewValidationError("monthly_installment", "cannot be negative")
	case l.EMIsPaidOnTime < 0:
		return apperrors.NewValidationError("emis_paid_on_time", "cannot be negative")
	case l.StartDate.IsZero():
		return apperrors.NewValidationError("start_date", "is required")
	case l.EndDate.Before(l.StartDate):
		return apperrors.NewValidationError("end_date", fmt.Sprintf("%s is before start date", l.EndDate.Format(time.DateOnly)))
	}
	return nil
}

// IsActive reports whether now falls within [StartDate, EndDate], compared by calendar day.
func (l *Loan) IsActive(now time.Time) bool {
	today := DateOf(now)
	return !l.StartDate.After(today) && !l.EndDate.Before(today)
}

func (l *Loan) IsPast(now time.Time) bool {
	return l.EndDate.Before(DateOf(now))
}

func (l *Loan) RepaymentsLeft() int {
	return max(0, l.Tenure-l.EMIsPaidOnTime)
}

// ExpectedEMIsElapsed is the number of installments that should have been paid by now:
// whole calendar months since start, or the full tenure once the loan has matured.
func (l *Loan) ExpectedEMIsElapsed(now time.Time) int {
	if l.IsPast(now) {
		return l.Tenure
	}
	return min(max(0, wholeMonthsBetween(l.StartDate, DateOf(now))), l.Tenure)
}

// PaymentRatio is EMIs paid on time over EMIs expected, capped at 1.
// A loan with nothing due yet counts as fully on time.
func (l *Loan) PaymentRatio(now time.Time) decimal.Decimal {
	expected := l.ExpectedEMIsElapsed(now)
	if expected == 0 {
		return decimal.NewFromInt(1)
	}
	ratio := decimal.NewFromInt(int64(l.EMIsPaidOnTime)).Div(decimal.NewFromInt(int64(expected)))
	return decimal.Min(ratio, decimal.NewFromInt(1))
}

func ActiveDebt(loans []Loan, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for i := range loans {
		if loans[i].IsActive(now) {
			total = total.Add(loans[i].LoanAmount)
		}
	}
	return total
}

func ActiveInstallments(loans []Loan, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for i := range loans {
		if loans[i].IsActive(now) {
			total = total.Add(loans[i].MonthlyInstallment)
		}
	}
	return total
}

func FilterActive(loans []Loan, now time.Time) []Loan {
	active := make([]Loan, 0, len(loans))
	for _, l := range loans {
		if l.IsActive(now) {
			active = append(active, l)
		}
	}
	return active
}

// EndDateFor adds tenure months to start, clamping to the last day of the target
// month when start falls on a day that month does not have.
func EndDateFor(start time.Time, tenure int) time.Time {
	y, m, d := DateOf(start).Date()
	target := time.Date(y, m+time.Month(tenure), 1, 0, 0, 0, 0, time.UTC)
	lastDay := target.AddDate(0, 1, -1).Day()
	return time.Date(target.Year(), target.Month(), min(d, lastDay), 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func wholeMonthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

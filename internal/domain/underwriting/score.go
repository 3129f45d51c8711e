package underwriting

import (
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

const (
	MaxScore = 100
	MinScore = 0

	paymentHistoryWeight = 40
)

// ScoreInputs is the per-customer aggregate the score is computed from.
type ScoreInputs struct {
	TotalLoans       int
	CurrentYearLoans int
	TotalVolume      decimal.Decimal
	PaymentRatioSum  decimal.Decimal
	ActivePrincipal  decimal.Decimal
	ApprovedLimit    decimal.Decimal
}

type ScoreBreakdown struct {
	PaymentHistory      decimal.Decimal
	LoanCount           int
	CurrentYearActivity int
	LoanVolume          int
	DebtOverride        bool
	Score               int
}

// NewScoreInputs aggregates every loan of the customer. ActivePrincipal is derived
// from the loans rather than taken from the stored current debt.
func NewScoreInputs(cust *customer.Customer, loans []loan.Loan, now time.Time) ScoreInputs {
	in := ScoreInputs{
		TotalLoans:      len(loans),
		TotalVolume:     decimal.Zero,
		PaymentRatioSum: decimal.Zero,
		ActivePrincipal: loan.ActiveDebt(loans, now),
		ApprovedLimit:   cust.ApprovedLimit,
	}
	year := now.Year()
	for i := range loans {
		l := &loans[i]
		in.TotalVolume = in.TotalVolume.Add(l.LoanAmount)
		in.PaymentRatioSum = in.PaymentRatioSum.Add(l.PaymentRatio(now))
		if l.StartDate.Year() == year {
			in.CurrentYearLoans++
		}
	}
	return in
}

func CalculateScore(in ScoreInputs) ScoreBreakdown {
	b := ScoreBreakdown{
		PaymentHistory:      paymentHistoryComponent(in),
		LoanCount:           loanCountComponent(in.TotalLoans),
		CurrentYearActivity: currentYearComponent(in.CurrentYearLoans),
		LoanVolume:          loanVolumeComponent(in.TotalVolume, in.ApprovedLimit),
	}

	if in.ActivePrincipal.GreaterThan(in.ApprovedLimit) {
		b.DebtOverride = true
		b.Score = MinScore
		return b
	}

	total := b.PaymentHistory.
		Add(decimal.NewFromInt(int64(b.LoanCount + b.CurrentYearActivity + b.LoanVolume))).
		Round(0).
		IntPart()
	b.Score = int(min(max(total, MinScore), MaxScore))
	return b
}

func paymentHistoryComponent(in ScoreInputs) decimal.Decimal {
	weight := decimal.NewFromInt(paymentHistoryWeight)
	if in.TotalLoans == 0 {
		return weight
	}
	return weight.Mul(in.PaymentRatioSum).Div(decimal.NewFromInt(int64(in.TotalLoans)))
}

func loanCountComponent(n int) int {
	switch {
	case n <= 2:
		return 20
	case n <= 5:
		return 15
	case n <= 8:
		return 10
	default:
		return 5
	}
}

func currentYearComponent(n int) int {
	switch {
	case n == 0:
		return 20
	case n <= 2:
		return 15
	case n <= 4:
		return 10
	default:
		return 5
	}
}

var (
	volumeLowBand  = decimal.RequireFromString("0.30")
	volumeMidBand  = decimal.RequireFromString("0.60")
	volumeHighBand = decimal.RequireFromString("0.90")
)

func loanVolumeComponent(volume, approvedLimit decimal.Decimal) int {
	if !approvedLimit.IsPositive() {
		return 5
	}
	ratio := volume.Div(approvedLimit)
	switch {
	case ratio.LessThan(volumeLowBand):
		return 20
	case ratio.LessThan(volumeMidBand):
		return 15
	case ratio.LessThan(volumeHighBand):
		return 10
	default:
		return 5
	}
}

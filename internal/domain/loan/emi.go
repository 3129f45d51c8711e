package loan

import (
	"fmt"

	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

var (
	one           = decimal.NewFromInt(1)
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// CalculateEMI returns the reducing-balance monthly installment rounded half-up to 0.01.
// annualRate is a percentage; a zero rate degrades to principal / tenure.
func CalculateEMI(principal, annualRate decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if tenureMonths <= 0 {
		return decimal.Zero, fmt.Errorf("%w: tenure must be positive, got %d", apperrors.ErrInvalidArgument, tenureMonths)
	}
	if principal.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: principal cannot be negative", apperrors.ErrInvalidArgument)
	}
	if annualRate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: interest rate cannot be negative", apperrors.ErrInvalidArgument)
	}

	n := decimal.NewFromInt(int64(tenureMonths))
	r := annualRate.Div(monthsPerYear).Div(hundred)
	if r.IsZero() {
		return principal.Div(n).Round(2), nil
	}

	growth := one.Add(r).Pow(n)
	emi := principal.Mul(r).Mul(growth).Div(growth.Sub(one))
	return emi.Round(2), nil
}

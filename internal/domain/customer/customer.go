package customer

import (
	"fmt"
	"strings"
	"time"

	"credit-engine/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	MinRegistrationAge = 18
	MaxAge             = 120

	approvedLimitMultiplier = 36
)

var lakh = decimal.NewFromInt(100_000)

type Customer struct {
	CustomerID    int64           `json:"customerId"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Age           int             `json:"age"`
	PhoneNumber   string          `json:"phoneNumber"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
	CurrentDebt   decimal.Decimal `json:"currentDebt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ApprovedLimitFor returns 36 months of salary rounded half-up to the nearest lakh.
func ApprovedLimitFor(monthlySalary decimal.Decimal) decimal.Decimal {
	return monthlySalary.
		Mul(decimal.NewFromInt(approvedLimitMultiplier)).
		Div(lakh).
		Round(0).
		Mul(lakh)
}

// NewCustomer builds a customer for registration. The limit is derived from salary
// and the debt starts at zero.
func NewCustomer(firstName, lastName string, age int, phoneNumber string, monthlySalary decimal.Decimal) (*Customer, error) {
	c := &Customer{
		FirstName:     strings.TrimSpace(firstName),
		LastName:      strings.TrimSpace(lastName),
		Age:           age,
		PhoneNumber:   strings.TrimSpace(phoneNumber),
		MonthlySalary: monthlySalary,
		ApprovedLimit: ApprovedLimitFor(monthlySalary),
		CurrentDebt:   decimal.Zero,
	}
	if age < MinRegistrationAge {
		return nil, apperrors.NewValidationError("age", fmt.Sprintf("must be at least %d", MinRegistrationAge))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the record-level invariants shared by registration and ingestion.
func (c *Customer) Validate() error {
	switch {
	case c.FirstName == "":
		return apperrors.NewValidationError("first_name", "cannot be empty")
	case c.LastName == "":
		return apperrors.NewValidationError("last_name", "cannot be empty")
	case c.Age <= 0 || c.Age > MaxAge:
		return apperrors.NewValidationError("age", fmt.Sprintf("must be between 1 and %d", MaxAge))
	case !validPhoneNumber(c.PhoneNumber):
		return apperrors.NewValidationError("phone_number", "must be 7 to 15 digits")
	case !c.MonthlySalary.IsPositive():
		return apperrors.NewValidationError("monthly_salary", "must be positive")
	case c.ApprovedLimit.IsNegative():
		return apperrors.NewValidationError("approved_limit", "cannot be negative")
	case c.CurrentDebt.IsNegative():
		return apperrors.NewValidationError("current_debt", "cannot be negative")
	}
	return nil
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func validPhoneNumber(s string) bool {
	if len(s) < 7 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package dto

import (
	"strconv"
	"time"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/underwriting"

	"github.com/shopspring/decimal"
)

type RegisterCustomerRequest struct {
	FirstName     string          `json:"firstName" validate:"required,max=100"`
	LastName      string          `json:"lastName" validate:"required,max=100"`
	Age           int             `json:"age" validate:"gte=18,lte=120"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome" validate:"gt=0"`
	PhoneNumber   string          `json:"phoneNumber" validate:"required,numeric,min=7,max=15"`
}

func (r *RegisterCustomerRequest) Validate() error {
	return Struct(r)
}

type CustomerResponse struct {
	CustomerID    string    `json:"customerId"`
	Name          string    `json:"name"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Age           int       `json:"age"`
	PhoneNumber   string    `json:"phoneNumber"`
	MonthlyIncome string    `json:"monthlyIncome"`
	ApprovedLimit string    `json:"approvedLimit"`
	CurrentDebt   string    `json:"currentDebt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		CustomerID:    strconv.FormatInt(cust.CustomerID, 10),
		Name:          cust.FullName(),
		FirstName:     cust.FirstName,
		LastName:      cust.LastName,
		Age:           cust.Age,
		PhoneNumber:   cust.PhoneNumber,
		MonthlyIncome: money(cust.MonthlySalary),
		ApprovedLimit: money(cust.ApprovedLimit),
		CurrentDebt:   money(cust.CurrentDebt),
		CreatedAt:     cust.CreatedAt,
		UpdatedAt:     cust.UpdatedAt,
	}
}

type CreditScoreResponse struct {
	CustomerID          string `json:"customerId"`
	CreditScore         int    `json:"creditScore"`
	PaymentHistory      string `json:"paymentHistory"`
	LoanCount           int    `json:"loanCount"`
	CurrentYearActivity int    `json:"currentYearActivity"`
	LoanVolume          int    `json:"loanVolume"`
	DebtOverride        bool   `json:"debtOverride"`
}

func NewCreditScoreResponse(customerID int64, b *underwriting.ScoreBreakdown) CreditScoreResponse {
	return CreditScoreResponse{
		CustomerID:          strconv.FormatInt(customerID, 10),
		CreditScore:         b.Score,
		PaymentHistory:      b.PaymentHistory.StringFixed(2),
		LoanCount:           b.LoanCount,
		CurrentYearActivity: b.CurrentYearActivity,
		LoanVolume:          b.LoanVolume,
		DebtOverride:        b.DebtOverride,
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

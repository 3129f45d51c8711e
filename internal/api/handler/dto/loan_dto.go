package dto

import (
	"strconv"
	"time"

	"credit-engine/internal/domain/loan"
	"credit-engine/internal/domain/underwriting"

	"github.com/shopspring/decimal"
)

// LoanRequest is the body of both the eligibility check and the loan creation.
type LoanRequest struct {
	CustomerID   int64           `json:"customerId" validate:"gt=0"`
	LoanAmount   decimal.Decimal `json:"loanAmount" validate:"gt=0"`
	InterestRate decimal.Decimal `json:"interestRate" validate:"gt=0,lte=100"`
	Tenure       int             `json:"tenure" validate:"gt=0,lte=600"`
}

func (r *LoanRequest) Validate() error {
	return Struct(r)
}

func (r *LoanRequest) ToDomain() underwriting.Request {
	return underwriting.Request{
		CustomerID:   r.CustomerID,
		LoanAmount:   r.LoanAmount,
		InterestRate: r.InterestRate,
		Tenure:       r.Tenure,
	}
}

type EligibilityResponse struct {
	CustomerID            string `json:"customerId"`
	Approval              bool   `json:"approval"`
	Reason                string `json:"reason,omitempty"`
	Message               string `json:"message"`
	CreditScore           int    `json:"creditScore"`
	InterestRate          string `json:"interestRate"`
	CorrectedInterestRate string `json:"correctedInterestRate"`
	Tenure                int    `json:"tenure"`
	MonthlyInstallment    string `json:"monthlyInstallment"`
}

func NewEligibilityResponse(res *underwriting.Result) EligibilityResponse {
	return EligibilityResponse{
		CustomerID:            strconv.FormatInt(res.CustomerID, 10),
		Approval:              res.Approved,
		Reason:                string(res.Reason),
		Message:               res.Message,
		CreditScore:           res.CreditScore,
		InterestRate:          money(res.InterestRate),
		CorrectedInterestRate: money(res.CorrectedInterestRate),
		Tenure:                res.Tenure,
		MonthlyInstallment:    money(res.MonthlyInstallment),
	}
}

type LoanCreationResponse struct {
	LoanID             *string `json:"loanId"`
	CustomerID         string  `json:"customerId"`
	LoanApproved       bool    `json:"loanApproved"`
	Reason             string  `json:"reason,omitempty"`
	Message            string  `json:"message"`
	InterestRate       string  `json:"interestRate"`
	MonthlyInstallment string  `json:"monthlyInstallment"`
}

func NewLoanCreationResponse(res *underwriting.CreationResult) LoanCreationResponse {
	elig := res.Eligibility
	resp := LoanCreationResponse{
		CustomerID:         strconv.FormatInt(elig.CustomerID, 10),
		LoanApproved:       res.Approved(),
		Reason:             string(elig.Reason),
		Message:            elig.Message,
		InterestRate:       money(elig.CorrectedInterestRate),
		MonthlyInstallment: money(elig.MonthlyInstallment),
	}
	if res.Loan != nil {
		id := strconv.FormatInt(res.Loan.LoanID, 10)
		resp.LoanID = &id
	}
	return resp
}

type LoanSummaryResponse struct {
	LoanID             string `json:"loanId"`
	LoanAmount         string `json:"loanAmount"`
	InterestRate       string `json:"interestRate"`
	MonthlyInstallment string `json:"monthlyInstallment"`
	Tenure             int    `json:"tenure"`
	EMIsPaidOnTime     int    `json:"emisPaidOnTime"`
	RepaymentsLeft     int    `json:"repaymentsLeft"`
	StartDate          string `json:"startDate"`
	EndDate            string `json:"endDate"`
}

func NewLoanSummaryResponse(l *loan.Loan) LoanSummaryResponse {
	return LoanSummaryResponse{
		LoanID:             strconv.FormatInt(l.LoanID, 10),
		LoanAmount:         money(l.LoanAmount),
		InterestRate:       money(l.InterestRate),
		MonthlyInstallment: money(l.MonthlyInstallment),
		Tenure:             l.Tenure,
		EMIsPaidOnTime:     l.EMIsPaidOnTime,
		RepaymentsLeft:     l.RepaymentsLeft(),
		StartDate:          l.StartDate.Format(time.DateOnly),
		EndDate:            l.EndDate.Format(time.DateOnly),
	}
}

func NewLoanSummaryList(loans []loan.Loan) []LoanSummaryResponse {
	out := make([]LoanSummaryResponse, len(loans))
	for i := range loans {
		out[i] = NewLoanSummaryResponse(&loans[i])
	}
	return out
}

type LoanCustomerResponse struct {
	CustomerID  string `json:"customerId"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Age         int    `json:"age"`
}

type LoanDetailResponse struct {
	LoanSummaryResponse
	Customer LoanCustomerResponse `json:"customer"`
}

func NewLoanDetailResponse(d *loan.Detail) LoanDetailResponse {
	resp := LoanDetailResponse{LoanSummaryResponse: NewLoanSummaryResponse(d.Loan)}
	if c := d.Customer; c != nil {
		resp.Customer = LoanCustomerResponse{
			CustomerID:  strconv.FormatInt(c.CustomerID, 10),
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			PhoneNumber: c.PhoneNumber,
			Age:         c.Age,
		}
	}
	return resp
}

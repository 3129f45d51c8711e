package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"credit-engine/internal/api/handler"
	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/domain/underwriting"
	"credit-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLoanRouter() (*MockLoanService, *MockUnderwritingService, chi.Router) {
	ls := new(MockLoanService)
	us := new(MockUnderwritingService)
	h := handler.NewLoanHandler(ls, us, testLogger)
	r := chi.NewRouter()
	r.Post("/loans/eligibility", h.CheckEligibility)
	r.Post("/loans", h.CreateLoan)
	r.Get("/loans/{loanID}", h.GetLoan)
	return ls, us, r
}

func loanRequestMatcher() any {
	return mock.MatchedBy(func(req underwriting.Request) bool {
		return req.CustomerID == 7 &&
			req.LoanAmount.Equal(decimal.NewFromInt(500000)) &&
			req.InterestRate.Equal(decimal.NewFromInt(8)) &&
			req.Tenure == 48
	})
}

const loanBody = `{"customerId":7,"loanAmount":500000,"interestRate":8,"tenure":48}`

func approvedResult() *underwriting.Result {
	return &underwriting.Result{
		CustomerID:            7,
		Approved:              true,
		Message:               "Loan approved.",
		CreditScore:           68,
		InterestRate:          decimal.NewFromInt(8),
		CorrectedInterestRate: decimal.NewFromInt(8),
		Tenure:                48,
		MonthlyInstallment:    decimal.RequireFromString("12206.46"),
	}
}

func TestLoanHandler_CheckEligibility(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		_, us, r := newLoanRouter()
		us.On("CheckEligibility", mock.Anything, loanRequestMatcher()).Return(approvedResult(), nil).Once()

		rr := serve(r, http.MethodPost, "/loans/eligibility", []byte(loanBody))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp dto.EligibilityResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Approval)
		assert.Equal(t, "8.00", resp.CorrectedInterestRate)
		assert.Equal(t, "12206.46", resp.MonthlyInstallment)
		assert.Empty(t, resp.Reason)
		us.AssertExpectations(t)
	})

	t.Run("rejected is still 200", func(t *testing.T) {
		_, us, r := newLoanRouter()
		res := approvedResult()
		res.Approved = false
		res.Reason = underwriting.ReasonCreditScoreTooLow
		res.CreditScore = 5
		res.CorrectedInterestRate = underwriting.RejectionRate
		us.On("CheckEligibility", mock.Anything, loanRequestMatcher()).Return(res, nil).Once()

		rr := serve(r, http.MethodPost, "/loans/eligibility", []byte(loanBody))

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp dto.EligibilityResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Approval)
		assert.Equal(t, "credit_score_too_low", resp.Reason)
		assert.Equal(t, "100.00", resp.CorrectedInterestRate)
		us.AssertExpectations(t)
	})

	t.Run("invalid tenure", func(t *testing.T) {
		_, us, r := newLoanRouter()

		rr := serve(r, http.MethodPost, "/loans/eligibility", []byte(`{"customerId":7,"loanAmount":500000,"interestRate":8,"tenure":0}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "tenure", decodeError(t, rr).Field)
		us.AssertNotCalled(t, "CheckEligibility")
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, us, r := newLoanRouter()
		us.On("CheckEligibility", mock.Anything, loanRequestMatcher()).
			Return(nil, fmt.Errorf("%w: customer 7", apperrors.ErrNotFound)).Once()

		rr := serve(r, http.MethodPost, "/loans/eligibility", []byte(loanBody))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		us.AssertExpectations(t)
	})
}

func TestLoanHandler_CreateLoan(t *testing.T) {
	t.Run("approved loan is created", func(t *testing.T) {
		_, us, r := newLoanRouter()
		us.On("CreateLoan", mock.Anything, loanRequestMatcher()).Return(&underwriting.CreationResult{
			Eligibility: approvedResult(),
			Loan:        &loan.Loan{LoanID: 42, CustomerID: 7},
		}, nil).Once()

		rr := serve(r, http.MethodPost, "/loans", []byte(loanBody))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var resp dto.LoanCreationResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.LoanID)
		assert.Equal(t, "42", *resp.LoanID)
		assert.True(t, resp.LoanApproved)
		assert.Equal(t, "12206.46", resp.MonthlyInstallment)
		us.AssertExpectations(t)
	})

	t.Run("rejected loan has null id", func(t *testing.T) {
		_, us, r := newLoanRouter()
		res := approvedResult()
		res.Approved = false
		res.Reason = underwriting.ReasonEMIExceedsSalary
		res.Message = "Sum of current EMIs exceeds 50% of monthly salary."
		us.On("CreateLoan", mock.Anything, loanRequestMatcher()).
			Return(&underwriting.CreationResult{Eligibility: res}, nil).Once()

		rr := serve(r, http.MethodPost, "/loans", []byte(loanBody))

		assert.Equal(t, http.StatusOK, rr.Code)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
		assert.Nil(t, raw["loanId"])
		assert.Equal(t, false, raw["loanApproved"])
		assert.Equal(t, "emi_exceeds_salary", raw["reason"])
		us.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, us, r := newLoanRouter()

		rr := serve(r, http.MethodPost, "/loans", []byte(`{"customerId":`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		us.AssertNotCalled(t, "CreateLoan")
	})
}

func TestLoanHandler_GetLoan(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		ls, _, r := newLoanRouter()
		ls.On("GetLoan", mock.Anything, int64(42)).Return(&loan.Detail{
			Loan: &loan.Loan{
				LoanID:             42,
				CustomerID:         7,
				LoanAmount:         decimal.NewFromInt(100000),
				Tenure:             12,
				InterestRate:       decimal.RequireFromString("12.5"),
				MonthlyInstallment: decimal.RequireFromString("8908.29"),
				EMIsPaidOnTime:     3,
				StartDate:          start,
				EndDate:            loan.EndDateFor(start, 12),
			},
			Customer: &customer.Customer{CustomerID: 7, FirstName: "Ada", LastName: "Lovelace", PhoneNumber: "9876543210", Age: 30},
		}, nil).Once()

		rr := serve(r, http.MethodGet, "/loans/42", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp dto.LoanDetailResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "42", resp.LoanID)
		assert.Equal(t, "12.50", resp.InterestRate)
		assert.Equal(t, 9, resp.RepaymentsLeft)
		assert.Equal(t, "7", resp.Customer.CustomerID)
		assert.Equal(t, "Ada", resp.Customer.FirstName)
		ls.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		ls, _, r := newLoanRouter()
		ls.On("GetLoan", mock.Anything, int64(43)).Return(nil, fmt.Errorf("%w: loan 43", apperrors.ErrNotFound)).Once()

		rr := serve(r, http.MethodGet, "/loans/43", nil)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		ls.AssertExpectations(t)
	})

	t.Run("negative id", func(t *testing.T) {
		_, _, r := newLoanRouter()

		rr := serve(r, http.MethodGet, "/loans/-1", nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "loanID", decodeError(t, rr).Field)
	})
}

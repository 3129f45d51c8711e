package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/domain/underwriting"
)

type CustomerHandler struct {
	customers    customer.CustomerService
	loans        loan.LoanService
	underwriting underwriting.Service
	logger       *slog.Logger
}

func NewCustomerHandler(cs customer.CustomerService, ls loan.LoanService, us underwriting.Service, l *slog.Logger) *CustomerHandler {
	if cs == nil || ls == nil || us == nil {
		panic("customer handler services cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		customers:    cs,
		loans:        ls,
		underwriting: us,
		logger:       l.With("component", "CustomerHandler"),
	}
}

// RegisterCustomer handles POST /customers
// @Summary Register a customer
// @Description Registers a customer. The approved limit is 36 times the monthly income, rounded to the nearest lakh.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customer body dto.RegisterCustomerRequest true "Customer details"
// @Success 201 {object} dto.CustomerResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers [post]
// @Security BearerAuth
func (h *CustomerHandler) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode register request", "error", err)
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	cust, err := h.customers.RegisterCustomer(r.Context(), req.FirstName, req.LastName, req.Age, req.MonthlyIncome, req.PhoneNumber)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(cust))
}

// GetCustomer handles GET /customers/{customerID}
// @Summary Get a customer
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.CustomerResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /customers/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := int64URLParam(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	cust, err := h.customers.GetCustomer(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// ListCustomerLoans handles GET /customers/{customerID}/loans
// @Summary List a customer's loans
// @Description Lists the customer's active loans. Pass include=all to list past loans as well.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Param include query string false "Set to 'all' to include loans that have ended"
// @Success 200 {array} dto.LoanSummaryResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /customers/{customerID}/loans [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomerLoans(w http.ResponseWriter, r *http.Request) {
	customerID, err := int64URLParam(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	includeAll := strings.EqualFold(r.URL.Query().Get("include"), "all")

	loans, err := h.loans.GetCustomerLoans(r.Context(), customerID, includeAll)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanSummaryList(loans))
}

// GetCreditScore handles GET /customers/{customerID}/credit-score
// @Summary Get a customer's credit score
// @Description Computes the credit score from the customer's loan history, with the breakdown of its components.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.CreditScoreResponse
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /customers/{customerID}/credit-score [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCreditScore(w http.ResponseWriter, r *http.Request) {
	customerID, err := int64URLParam(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	breakdown, err := h.underwriting.CreditScore(r.Context(), customerID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCreditScoreResponse(customerID, breakdown))
}

package handler

import (
	"log/slog"
	"net/http"

	"credit-engine/internal/api/handler/dto"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/domain/underwriting"
)

type LoanHandler struct {
	loans        loan.LoanService
	underwriting underwriting.Service
	logger       *slog.Logger
}

func NewLoanHandler(ls loan.LoanService, us underwriting.Service, l *slog.Logger) *LoanHandler {
	if ls == nil || us == nil {
		panic("loan handler services cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		loans:        ls,
		underwriting: us,
		logger:       l.With("component", "LoanHandler"),
	}
}

func (h *LoanHandler) decodeLoanRequest(r *http.Request) (*dto.LoanRequest, error) {
	var req dto.LoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode loan request", "error", err)
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// CheckEligibility handles POST /loans/eligibility
// @Summary Check loan eligibility
// @Description Scores the customer and decides whether the requested loan would be approved, correcting the interest rate to the score band's floor.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanRequest true "Requested loan"
// @Success 200 {object} dto.EligibilityResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /loans/eligibility [post]
// @Security BearerAuth
func (h *LoanHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeLoanRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.underwriting.CheckEligibility(r.Context(), req.ToDomain())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewEligibilityResponse(result))
}

// CreateLoan handles POST /loans
// @Summary Create a loan
// @Description Re-checks eligibility and, if approved, books the loan at the corrected rate. A rejection is reported with loanApproved=false.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.LoanRequest true "Requested loan"
// @Success 201 {object} dto.LoanCreationResponse "Loan approved and created"
// @Success 200 {object} dto.LoanCreationResponse "Loan rejected"
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeLoanRequest(r)
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.underwriting.CreateLoan(r.Context(), req.ToDomain())
	if err != nil {
		respondError(w, err)
		return
	}

	status := http.StatusOK
	if result.Approved() {
		status = http.StatusCreated
	}
	respondJSON(w, status, dto.NewLoanCreationResponse(result))
}

// GetLoan handles GET /loans/{loanID}
// @Summary Get a loan
// @Description Returns a loan with its borrower.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.LoanDetailResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := int64URLParam(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}
	detail, err := h.loans.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanDetailResponse(detail))
}

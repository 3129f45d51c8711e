package dto

import (
	"time"

	"credit-engine/internal/ingestion"
)

type SubmitIngestionRequest struct {
	CustomerSource string `json:"customerSource" validate:"required_without=LoanSource,max=1024"`
	LoanSource     string `json:"loanSource" validate:"required_without=CustomerSource,max=1024"`
}

func (r *SubmitIngestionRequest) Validate() error {
	return Struct(r)
}

type IngestionSubmittedResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

type TableStatsResponse struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

type IngestionRunResponse struct {
	RunID               string               `json:"runId"`
	CustomerSource      string               `json:"customerSource,omitempty"`
	LoanSource          string               `json:"loanSource,omitempty"`
	Status              string               `json:"status"`
	Customers           TableStatsResponse   `json:"customers"`
	Loans               TableStatsResponse   `json:"loans"`
	ReconciledCustomers int                  `json:"reconciledCustomers"`
	Errors              []ingestion.RowError `json:"errors"`
	Error               string               `json:"error,omitempty"`
	SubmittedAt         time.Time            `json:"submittedAt"`
	StartedAt           *time.Time           `json:"startedAt,omitempty"`
	CompletedAt         *time.Time           `json:"completedAt,omitempty"`
}

func NewIngestionRunResponse(run *ingestion.Run) IngestionRunResponse {
	rowErrors := run.Errors
	if rowErrors == nil {
		rowErrors = []ingestion.RowError{}
	}
	return IngestionRunResponse{
		RunID:               run.ID,
		CustomerSource:      run.CustomerSource,
		LoanSource:          run.LoanSource,
		Status:              string(run.Status),
		Customers:           TableStatsResponse(run.Customers),
		Loans:               TableStatsResponse(run.Loans),
		ReconciledCustomers: run.ReconciledCustomers,
		Errors:              rowErrors,
		Error:               run.Error,
		SubmittedAt:         run.SubmittedAt,
		StartedAt:           run.StartedAt,
		CompletedAt:         run.CompletedAt,
	}
}

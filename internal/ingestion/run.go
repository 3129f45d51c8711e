package ingestion

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

const (
	TableCustomers = "customers"
	TableLoans     = "loans"
)

type TableStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// RowError describes a row that was not written. Row is the 1-based spreadsheet
// line including the header; 0 means the whole table.
type RowError struct {
	Table   string `json:"table"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type Summary struct {
	Customers           TableStats
	Loans               TableStats
	Errors              []RowError
	ReconciledCustomers int
}

func (s *Summary) addError(table string, row int, err error) {
	s.Errors = append(s.Errors, RowError{Table: table, Row: row, Message: err.Error()})
}

type Run struct {
	ID             string
	CustomerSource string
	LoanSource     string
	Status         Status
	Summary
	Error       string
	SubmittedAt time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

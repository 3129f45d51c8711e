package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoutingKeyCustomerRegistered = "customer.registered"
	RoutingKeyLoanCreated        = "loan.created"
	RoutingKeyIngestionCompleted = "ingestion.completed"
	RoutingKeyIngestionRequested = "ingestion.requested"
)

type EventPublisher interface {
	PublishCustomerRegistered(ctx context.Context, event CustomerRegisteredEvent) error
	PublishLoanCreated(ctx context.Context, event LoanCreatedEvent) error
	PublishIngestionCompleted(ctx context.Context, event IngestionCompletedEvent) error
}

type CustomerRegisteredEvent struct {
	CustomerID    int64           `json:"customerId"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	ApprovedLimit decimal.Decimal `json:"approvedLimit"`
	Timestamp     time.Time       `json:"timestamp"`
}

type LoanCreatedEvent struct {
	LoanID             int64           `json:"loanId"`
	CustomerID         int64           `json:"customerId"`
	LoanAmount         decimal.Decimal `json:"loanAmount"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	Tenure             int             `json:"tenure"`
	CreditScore        int             `json:"creditScore"`
	CurrentDebt        decimal.Decimal `json:"currentDebt"`
	Timestamp          time.Time       `json:"timestamp"`
}

type IngestionCompletedEvent struct {
	RunID             string    `json:"runId"`
	Status            string    `json:"status"`
	CustomersInserted int       `json:"customersInserted"`
	CustomersUpdated  int       `json:"customersUpdated"`
	LoansInserted     int       `json:"loansInserted"`
	LoansUpdated      int       `json:"loansUpdated"`
	RowErrors         int       `json:"rowErrors"`
	Timestamp         time.Time `json:"timestamp"`
}

// IngestionRequestedEvent asks the engine to queue an ingestion run.
type IngestionRequestedEvent struct {
	CustomerSource string `json:"customerSource"`
	LoanSource     string `json:"loanSource"`
	RequestedBy    string `json:"requestedBy,omitempty"`
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishCustomerRegistered(context.Context, CustomerRegisteredEvent) error {
	return nil
}

func (NopPublisher) PublishLoanCreated(context.Context, LoanCreatedEvent) error {
	return nil
}

func (NopPublisher) PublishIngestionCompleted(context.Context, IngestionCompletedEvent) error {
	return nil
}

var _ EventPublisher = NopPublisher{}

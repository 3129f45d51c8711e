package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

type CustomerWriter interface {
	Upsert(ctx context.Context, c *customer.Customer) (inserted bool, err error)
	FindByID(ctx context.Context, customerID int64) (*customer.Customer, error)
	SyncIDSequence(ctx context.Context) error
}

type LoanWriter interface {
	Upsert(ctx context.Context, l *loan.Loan) (inserted bool, err error)
	SyncIDSequence(ctx context.Context) error
}

// DebtReconciler recomputes a customer's stored current debt under the row lock.
type DebtReconciler interface {
	ReconcileCurrentDebt(ctx context.Context, customerID int64) (changed bool, err error)
}

// Runner executes one ingestion of a customer table and a loan table.
type Runner interface {
	Run(ctx context.Context, customerSource, loanSource string) (*Summary, error)
}

var (
	customerColumns = []string{"customer_id", "first_name", "last_name", "age", "phone_number", "monthly_salary"}
	loanColumns     = []string{"customer_id", "loan_id", "loan_amount", "tenure", "interest_rate", "start_date"}
)

type Pipeline struct {
	opener     Opener
	customers  CustomerWriter
	loans      LoanWriter
	reconciler DebtReconciler
	logger     *slog.Logger
}

func NewPipeline(opener Opener, customers CustomerWriter, loans LoanWriter, reconciler DebtReconciler, logger *slog.Logger) *Pipeline {
	if opener == nil {
		panic("source opener cannot be nil")
	}
	if customers == nil || loans == nil {
		panic("ingestion writers cannot be nil")
	}
	if reconciler == nil {
		panic("debt reconciler cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Pipeline{
		opener:     opener,
		customers:  customers,
		loans:      loans,
		reconciler: reconciler,
		logger:     logger.With(slog.String("component", "ingestionPipeline")),
	}
}

// Run loads the customer table, then the loan table, then reconciles the current debt
// of every affected customer. Either source may be empty. Bad rows are reported in the
// summary and never stop the run; the returned error is non-nil only when a whole
// table could not be read or the follow-up steps failed.
func (p *Pipeline) Run(ctx context.Context, customerSource, loanSource string) (*Summary, error) {
	customerSource = strings.TrimSpace(customerSource)
	loanSource = strings.TrimSpace(loanSource)
	if customerSource == "" && loanSource == "" {
		return nil, apperrors.NewValidationError("source", "at least one of the customer or loan source is required")
	}

	summary := &Summary{}
	affected := make(map[int64]struct{})
	var errs []error

	if customerSource != "" {
		if err := p.loadCustomers(ctx, customerSource, summary, affected); err != nil {
			summary.addError(TableCustomers, 0, err)
			errs = append(errs, fmt.Errorf("%s: %w", TableCustomers, err))
		}
	}
	if loanSource != "" {
		if err := p.loadLoans(ctx, loanSource, summary, affected); err != nil {
			summary.addError(TableLoans, 0, err)
			errs = append(errs, fmt.Errorf("%s: %w", TableLoans, err))
		}
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	p.reconcile(ctx, affected, summary)

	if summary.Customers.Inserted+summary.Customers.Updated > 0 {
		if err := p.customers.SyncIDSequence(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to sync customer id sequence: %w", err))
		}
	}
	if summary.Loans.Inserted+summary.Loans.Updated > 0 {
		if err := p.loans.SyncIDSequence(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to sync loan id sequence: %w", err))
		}
	}

	recordStats(TableCustomers, summary.Customers)
	recordStats(TableLoans, summary.Loans)

	p.logger.InfoContext(ctx, "ingestion finished",
		slog.Int("customersInserted", summary.Customers.Inserted),
		slog.Int("customersUpdated", summary.Customers.Updated),
		slog.Int("customersSkipped", summary.Customers.Skipped),
		slog.Int("loansInserted", summary.Loans.Inserted),
		slog.Int("loansUpdated", summary.Loans.Updated),
		slog.Int("loansSkipped", summary.Loans.Skipped),
		slog.Int("reconciledCustomers", summary.ReconciledCustomers),
		slog.Int("rowErrors", len(summary.Errors)))

	return summary, errors.Join(errs...)
}

func (p *Pipeline) readTable(ctx context.Context, source string, required []string) ([]record, error) {
	format, err := FormatOf(source)
	if err != nil {
		return nil, err
	}
	rc, err := p.opener.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	table, err := ReadTable(rc, format)
	if err != nil {
		return nil, err
	}
	if missing := table.missingColumns(required); len(missing) > 0 {
		return nil, apperrors.NewValidationError("header", "missing columns: "+strings.Join(missing, ", "))
	}
	return table.records(), nil
}

func (p *Pipeline) loadCustomers(ctx context.Context, source string, summary *Summary, affected map[int64]struct{}) error {
	records, err := p.readTable(ctx, source, customerColumns)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := parseCustomerRecord(rec)
		if err != nil {
			summary.Customers.Skipped++
			summary.addError(TableCustomers, rec.row, err)
			continue
		}
		inserted, err := p.customers.Upsert(ctx, c)
		if err != nil {
			summary.Customers.Skipped++
			summary.addError(TableCustomers, rec.row, err)
			p.logger.WarnContext(ctx, "customer row not written",
				slog.Int("row", rec.row), slog.Int64("customerId", c.CustomerID), slog.Any("error", err))
			continue
		}
		if inserted {
			summary.Customers.Inserted++
		} else {
			summary.Customers.Updated++
		}
		affected[c.CustomerID] = struct{}{}
	}
	return nil
}

func (p *Pipeline) loadLoans(ctx context.Context, source string, summary *Summary, affected map[int64]struct{}) error {
	records, err := p.readTable(ctx, source, loanColumns)
	if err != nil {
		return err
	}

	known := make(map[int64]bool, len(affected))
	for id := range affected {
		known[id] = true
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		l, err := parseLoanRecord(rec)
		if err != nil {
			summary.Loans.Skipped++
			summary.addError(TableLoans, rec.row, err)
			continue
		}

		exists, err := p.customerExists(ctx, known, l.CustomerID)
		if err != nil {
			summary.Loans.Skipped++
			summary.addError(TableLoans, rec.row, err)
			continue
		}
		if !exists {
			summary.Loans.Skipped++
			summary.addError(TableLoans, rec.row,
				fmt.Errorf("%w: customer %d does not exist", apperrors.ErrNotFound, l.CustomerID))
			continue
		}

		inserted, err := p.loans.Upsert(ctx, l)
		if err != nil {
			summary.Loans.Skipped++
			summary.addError(TableLoans, rec.row, err)
			p.logger.WarnContext(ctx, "loan row not written",
				slog.Int("row", rec.row), slog.Int64("loanId", l.LoanID), slog.Any("error", err))
			continue
		}
		if inserted {
			summary.Loans.Inserted++
		} else {
			summary.Loans.Updated++
		}
		affected[l.CustomerID] = struct{}{}
	}
	return nil
}

func (p *Pipeline) customerExists(ctx context.Context, known map[int64]bool, customerID int64) (bool, error) {
	if exists, ok := known[customerID]; ok {
		return exists, nil
	}
	_, err := p.customers.FindByID(ctx, customerID)
	switch {
	case err == nil:
		known[customerID] = true
		return true, nil
	case errors.Is(err, apperrors.ErrNotFound):
		known[customerID] = false
		return false, nil
	default:
		return false, err
	}
}

func (p *Pipeline) reconcile(ctx context.Context, affected map[int64]struct{}, summary *Summary) {
	ids := make([]int64, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.reconciler.ReconcileCurrentDebt(ctx, id); err != nil {
			summary.addError(TableCustomers, 0, fmt.Errorf("failed to reconcile current debt of customer %d: %w", id, err))
			continue
		}
		summary.ReconciledCustomers++
	}
}

func (t *Table) missingColumns(required []string) []string {
	present := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		present[normalizeHeader(h)] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func recordStats(table string, stats TableStats) {
	monitoring.RecordIngestedRows(table, "inserted", stats.Inserted)
	monitoring.RecordIngestedRows(table, "updated", stats.Updated)
	monitoring.RecordIngestedRows(table, "skipped", stats.Skipped)
}

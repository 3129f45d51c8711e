package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/underwriting"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/database/postgres"
	"credit-engine/internal/infrastructure/logging"
	"credit-engine/internal/ingestion"

	"github.com/spf13/cobra"
)

type options struct {
	configDir string
	customers string
	loans     string
	dataDir   string
	timeout   time.Duration
}

type summaryOutput struct {
	Customers           ingestion.TableStats `json:"customers"`
	Loans               ingestion.TableStats `json:"loans"`
	ReconciledCustomers int                  `json:"reconciledCustomers"`
	Errors              []ingestion.RowError `json:"errors"`
	Error               string               `json:"error,omitempty"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import customer and loan tables into the credit ledger",
		Long: `Reads customer and loan tables (CSV or XLSX, local or gs://bucket/object),
upserts them under their own ids, reconciles current debt for every affected
customer and prints a JSON summary.

Examples:
  ingest --customers customer_data.xlsx --loans loan_data.xlsx
  ingest --loans gs://ledger-imports/loans.csv --timeout 30m`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.customers == "" && opts.loans == "" {
				return errors.New("at least one of --customers or --loans is required")
			}
			return execute(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.configDir, "config", ".", "directory containing config.yml")
	cmd.Flags().StringVar(&opts.customers, "customers", "", "customer table source")
	cmd.Flags().StringVar(&opts.loans, "loans", "", "loan table source")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "override ingestion.dataDir for local sources")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "abort the run after this long (0 uses ingestion.runTimeout)")
	return cmd
}

func execute(ctx context.Context, opts *options, out io.Writer) error {
	cfg, err := config.LoadConfig(opts.configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeout := opts.timeout
	if timeout <= 0 {
		timeout = cfg.Ingestion.RunTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dbPool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbPool.Close()

	if cfg.Database.ApplySchema {
		if err := postgres.ApplySchema(ctx, dbPool, logger); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	dataDir := cfg.Ingestion.DataDir
	if opts.dataDir != "" {
		dataDir = opts.dataDir
	}

	customerRepo := postgres.NewCustomerRepository(dbPool, logger)
	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	underwritingService := underwriting.NewService(customerRepo, loanRepo, event.NopPublisher{}, logger)
	pipeline := ingestion.NewPipeline(ingestion.NewSourceOpener(dataDir), customerRepo, loanRepo, underwritingService, logger)

	return runIngestion(ctx, pipeline, opts.customers, opts.loans, out)
}

// runIngestion prints the summary even when the run reports errors.
func runIngestion(ctx context.Context, runner ingestion.Runner, customers, loans string, out io.Writer) error {
	summary, runErr := runner.Run(ctx, customers, loans)

	result := summaryOutput{Errors: []ingestion.RowError{}}
	if summary != nil {
		result.Customers = summary.Customers
		result.Loans = summary.Loans
		result.ReconciledCustomers = summary.ReconciledCustomers
		if summary.Errors != nil {
			result.Errors = summary.Errors
		}
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("ingestion finished with errors: %w", runErr)
	}
	return nil
}

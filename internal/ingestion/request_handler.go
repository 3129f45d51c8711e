package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"credit-engine/internal/event"
	"credit-engine/internal/pkg/apperrors"
)

// NewRequestHandler returns a message handler that submits ingestion.requested
// messages to svc. Malformed bodies and unknown routing keys are rejected as
// invalid so the consumer drops them.
func NewRequestHandler(svc Service, logger *slog.Logger) event.MessageHandler {
	return func(ctx context.Context, routingKey string, body []byte) error {
		if routingKey != event.RoutingKeyIngestionRequested {
			return fmt.Errorf("%w: unexpected routing key %q", apperrors.ErrInvalidArgument, routingKey)
		}

		var req event.IngestionRequestedEvent
		if err := json.Unmarshal(body, &req); err != nil {
			return fmt.Errorf("%w: malformed ingestion request: %v", apperrors.ErrInvalidArgument, err)
		}

		run, err := svc.Submit(ctx, req.CustomerSource, req.LoanSource)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "ingestion run submitted from message",
			slog.String("runId", run.ID),
			slog.String("requestedBy", req.RequestedBy))
		return nil
	}
}

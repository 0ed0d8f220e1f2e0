package service

import (
	"context"
	"strings"

	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/metrics"
	"go.uber.org/zap"
)

// Defaults holds values applied when a request leaves them out
type Defaults struct {
	// Owner is the record owner when neither the request nor the caller names one
	Owner string
	// ConvertedStatus is the lead status recorded on conversion when the request names none
	ConvertedStatus string
}

// callerName returns the identified caller, or "" for anonymous requests
func callerName(ctx context.Context) string {
	if user, ok := auth.FromContext(ctx); ok && !user.Anonymous {
		return strings.TrimSpace(user.DisplayName)
	}
	return ""
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// publishEvent sends an event after the write it describes has committed.
// Failures are logged and counted but never fail the request.
func publishEvent(ctx context.Context, publisher events.Publisher, logger *zap.Logger, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		metrics.RecordEventPublishFailure(event.Type)
		logger.Warn("Failed to publish event",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}

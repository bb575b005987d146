package audit

import (
	"context"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
)

var _ domain.AuditSink = LogSink{}

// LogSink writes audit events to the service log. It is used when no broker is configured.
type LogSink struct{}

func (LogSink) Record(_ context.Context, event domain.AuditEvent) error {
	fields := logger.Fields{
		"action":       event.Action,
		"level":        event.Level,
		"outcome":      event.Outcome,
		"actorId":      event.ActorID,
		"resourceType": event.ResourceType,
		"resourceId":   event.ResourceID,
		"occurredAt":   event.OccurredAt,
	}
	if event.Reference != "" {
		fields["reference"] = event.Reference
	}
	if event.Amount != nil {
		fields["amount"] = event.Amount.StringFixed(2)
	}
	if len(event.Balances) > 0 {
		fields["balances"] = event.Balances
	}
	if len(event.Details) > 0 {
		fields["details"] = event.Details
	}

	if event.Level == domain.AuditLevelInfo || event.Level == "" {
		logger.Info("audit event", fields)
		return nil
	}

	fields["errorKind"] = event.ErrorKind
	fields["error"] = event.Error
	if event.Level == domain.AuditLevelWarning {
		logger.Warn("audit event", fields)
	} else {
		logger.Error("audit event", nil, fields)
	}
	return nil
}

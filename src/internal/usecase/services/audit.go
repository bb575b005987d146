package services

import (
	"context"
	"errors"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/shopspring/decimal"
)

// auditor forwards events to the audit sink. A failing sink is logged and never
// changes the outcome of the operation that produced the event.
type auditor struct {
	sink domain.AuditSink
	now  func() time.Time
}

func newAuditor(sink domain.AuditSink, now func() time.Time) auditor {
	return auditor{sink: sink, now: now}
}

func (a auditor) record(ctx context.Context, event domain.AuditEvent, opErr error) {
	if a.sink == nil {
		return
	}

	event.Level = domain.AuditLevelFor(opErr)
	event.Outcome = domain.AuditOutcomeSuccess
	if opErr != nil {
		event.Outcome = domain.AuditOutcomeFailure
		event.ErrorKind = domain.KindOf(opErr)
		event.Error = opErr.Error()

		var violation *domain.DomainRuleViolation
		if errors.As(opErr, &violation) {
			if event.Details == nil {
				event.Details = map[string]any{}
			}
			event.Details["rule"] = string(violation.Rule)
			for k, v := range violation.Details {
				event.Details[k] = v
			}
		}
	}
	event.OccurredAt = a.now()

	if err := a.sink.Record(context.WithoutCancel(ctx), event); err != nil {
		logger.Error("audit sink record failed", err, logger.Fields{
			"action":     event.Action,
			"resourceId": event.ResourceID,
			"outcome":    event.Outcome,
		})
	}
}

func amountPtr(amount decimal.Decimal) *decimal.Decimal {
	return &amount
}

func balanceChange(accountID string, before, after decimal.Decimal) domain.BalanceChange {
	return domain.BalanceChange{AccountID: accountID, Before: before, After: after}
}

// logOutcome logs rejected operations at WARN and infrastructure failures at ERROR.
func logOutcome(message string, err error, fields logger.Fields) {
	switch domain.KindOf(err) {
	case "":
		logger.Info(message+" success", fields)
	case domain.KindInternal, domain.KindConcurrency:
		logger.Error(message+" failed", err, fields)
	default:
		warn := logger.Fields{"error": err.Error(), "errorKind": domain.KindOf(err)}
		for k, v := range fields {
			warn[k] = v
		}
		logger.Warn(message+" rejected", warn)
	}
}

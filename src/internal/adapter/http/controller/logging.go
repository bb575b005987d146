package controller

import (
	"net/http"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/middleware"
	"github.com/jade-bank/core-ledger/src/internal/logger"
)

// requestFields tags every line with the route and, when known, the caller.
func requestFields(r *http.Request) logger.Fields {
	fields := logger.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if r.URL.RawQuery != "" {
		fields["query"] = r.URL.RawQuery
	}
	if actor, ok := middleware.ActorFromContext(r.Context()); ok {
		fields["actorId"] = actor.OwnerID
		fields["actorRole"] = string(actor.Role)
	}
	return fields
}

func logRequest(r *http.Request, payload any) {
	fields := requestFields(r)
	fields["payload"] = logger.SanitizePayload(payload)
	logger.Info("http request", fields)
}

// logResponse logs 2xx at info, 4xx at warn and 5xx at error.
func logResponse(r *http.Request, status int, payload any, start time.Time) {
	fields := requestFields(r)
	fields["status"] = status
	fields["durationMs"] = time.Since(start).Milliseconds()
	fields["response"] = logger.SanitizePayload(payload)

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("http response", nil, fields)
	case status >= http.StatusBadRequest:
		logger.Warn("http response", fields)
	default:
		logger.Info("http response", fields)
	}
}

func logError(r *http.Request, err error, extra logger.Fields) {
	fields := requestFields(r)
	for k, v := range extra {
		fields[k] = v
	}
	if status, ok := extra["status"].(int); ok && status < http.StatusInternalServerError {
		fields["error"] = err.Error()
		logger.Warn("http handler rejected request", fields)
		return
	}
	logger.Error("http handler error", err, fields)
}

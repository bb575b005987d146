package controller

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/adapter/http/middleware"
	"github.com/jade-bank/core-ledger/src/internal/commons"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respond[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T, start time.Time) {
	response := commons.SuccessResponse(message, data)
	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}

// fail maps err to its HTTP status and writes the error envelope.
func fail[T any](w http.ResponseWriter, r *http.Request, err error, start time.Time) {
	status, response := errorResponse[T](err)
	logError(r, err, logger.Fields{"status": status, "kind": response.Kind})
	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}

func errorResponse[T any](err error) (int, commons.Response[T]) {
	kind := domain.KindOf(err)
	status, response := statusFor[T](kind, err)
	return status, response.WithKind(string(kind))
}

func statusFor[T any](kind domain.ErrorKind, err error) (int, commons.Response[T]) {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest, commons.ErrorResponse[T]("validation failed", errorMessages(err)...)
	case domain.KindDomainRule:
		var violation *domain.DomainRuleViolation
		if errors.As(err, &violation) {
			return http.StatusUnprocessableEntity, commons.ErrorResponse[T](violation.Message, string(violation.Rule))
		}
		return http.StatusUnprocessableEntity, commons.ErrorResponse[T]("request rejected", err.Error())
	case domain.KindAuthorization:
		return http.StatusForbidden, commons.ErrorResponse[T]("forbidden", err.Error())
	case domain.KindNotFound:
		return http.StatusNotFound, commons.ErrorResponse[T]("not found", err.Error())
	case domain.KindConcurrency:
		return http.StatusConflict, commons.ErrorResponse[T]("concurrent update, retry the request")
	default:
		return http.StatusInternalServerError, commons.ErrorResponse[T]("internal error", "Unable to process request right now")
	}
}

// errorMessages flattens joined validation errors into one message per field.
func errorMessages(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var messages []string
		for _, e := range joined.Unwrap() {
			messages = append(messages, errorMessages(e)...)
		}
		return messages
	}
	return []string{err.Error()}
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request, dst any, start time.Time) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		logError(r, err, nil)
		response := commons.ErrorResponse[T]("invalid request body", err.Error()).WithKind(string(domain.KindValidation))
		writeJSON(w, http.StatusBadRequest, response)
		logResponse(r, http.StatusBadRequest, response, start)
		return false
	}
	logRequest(r, dst)
	return true
}

// requireActor writes 401 when the request carries no caller identity.
func requireActor[T any](w http.ResponseWriter, r *http.Request, start time.Time) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response := commons.ErrorResponse[T]("unauthorized", "caller identity headers are required").WithKind("unauthenticated")
		writeJSON(w, http.StatusUnauthorized, response)
		logResponse(r, http.StatusUnauthorized, response, start)
		return domain.Actor{}, false
	}
	return actor, true
}

func protect(handler http.HandlerFunc, authMiddleware func(http.Handler) http.Handler) http.Handler {
	if authMiddleware == nil {
		return handler
	}
	return authMiddleware(handler)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, commons.SuccessResponse("ok", map[string]string{"status": "up"}))
}

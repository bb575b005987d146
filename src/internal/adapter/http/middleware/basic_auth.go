package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/jade-bank/core-ledger/src/internal/commons"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

const authRealm = `Basic realm="jade-ledger", charset="UTF-8"`

// BasicAuth admits channels presenting channelID and a key matching channelKeyHash.
// It authenticates the calling application; Identity names the owner it acts for.
func BasicAuth(channelID, channelKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fields := logger.Fields{"method": r.Method, "path": r.URL.Path}

			if channelID == "" || channelKeyHash == "" {
				logger.Error("channel auth is not configured", nil, fields)
				deny(w, http.StatusInternalServerError, "internal error", "channel authentication is not configured")
				return
			}

			id, key, ok := r.BasicAuth()
			switch {
			case !ok:
				fields["reason"] = "missing"
			case !secureEqual(id, channelID):
				fields["reason"] = "unknown_channel"
			case !keyMatches(channelKeyHash, key):
				fields["reason"] = "bad_key"
			default:
				logger.Debug("channel authenticated", fields)
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("channel authentication failed", fields)
			w.Header().Set("WWW-Authenticate", authRealm)
			deny(w, http.StatusUnauthorized, "unauthorized", "valid channel credentials are required")
		})
	}
}

func deny(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(commons.ErrorResponse[struct{}](message, detail).WithKind("unauthenticated"))
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func keyMatches(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// HashChannelKey produces the bcrypt hash BasicAuth compares presented keys against.
func HashChannelKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

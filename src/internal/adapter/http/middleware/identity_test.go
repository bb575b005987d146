package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jade-bank/core-ledger/src/internal/domain"
)

const ownerID = "7b0e3c52-3f61-4a0e-9a57-0c6f9d1f2a11"

func captureActor(seen *domain.Actor, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen, *found = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentity_DefaultsToCustomerRole(t *testing.T) {
	var actor domain.Actor
	var found bool

	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	req.Header.Set(OwnerIDHeader, ownerID)

	rr := httptest.NewRecorder()
	Identity(captureActor(&actor, &found)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !found || actor.OwnerID != ownerID || actor.Role != domain.RoleCustomer {
		t.Fatalf("unexpected actor %+v (found=%v)", actor, found)
	}
}

func TestIdentity_ReadsRoleHeader(t *testing.T) {
	var actor domain.Actor
	var found bool

	req := httptest.NewRequest(http.MethodGet, "/loans", nil)
	req.Header.Set(OwnerIDHeader, ownerID)
	req.Header.Set(RoleHeader, "Admin")

	rr := httptest.NewRecorder()
	Identity(captureActor(&actor, &found)).ServeHTTP(rr, req)

	if !found || actor.Role != domain.RoleAdmin {
		t.Fatalf("expected admin actor, got %+v", actor)
	}
}

func TestIdentity_PassesAnonymousRequests(t *testing.T) {
	var actor domain.Actor
	found := true

	rr := httptest.NewRecorder()
	Identity(captureActor(&actor, &found)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/owners", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if found {
		t.Fatalf("expected no actor in context")
	}
}

func TestIdentity_RejectsInvalidHeaders(t *testing.T) {
	cases := map[string][2]string{
		"malformed owner id": {"not-a-uuid", "customer"},
		"unknown role":       {ownerID, "superuser"},
	}

	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			var actor domain.Actor
			var found bool

			req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
			req.Header.Set(OwnerIDHeader, headers[0])
			req.Header.Set(RoleHeader, headers[1])

			rr := httptest.NewRecorder()
			Identity(captureActor(&actor, &found)).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
			}
		})
	}
}

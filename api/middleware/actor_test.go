package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "middleware-test", Output: io.Discard})
}

func TestActorPassesThroughWithoutHeader(t *testing.T) {
	var sawActor bool
	handler := Actor(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawActor = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if sawActor {
		t.Fatal("no header must mean no actor in context")
	}
}

func TestActorInjectsValidHeader(t *testing.T) {
	actorID := uuid.New()
	handler := Actor(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := ActorFromContext(r.Context())
		if !ok || got != actorID {
			t.Fatalf("expected actor %s in context, got %s (%v)", actorID, got, ok)
		}
		if required, err := RequireActor(r.Context()); err != nil || required != actorID {
			t.Fatalf("require actor: %s, %v", required, err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", nil)
	req.Header.Set(ActorIDHeader, actorID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestActorRejectsMalformedHeader(t *testing.T) {
	handler := Actor(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a malformed header")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", nil)
	req.Header.Set(ActorIDHeader, "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestRequireActorWithoutHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", nil)
	if _, err := RequireActor(req.Context()); err == nil {
		t.Fatal("expected error without actor")
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Error("expected a generated request id in the context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("response header %q does not echo the context id %q",
			rec.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestIDHonorsCaller(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "sih-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "sih-42" {
		t.Errorf("expected the caller's id to survive, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestAPIKeyAuth(t *testing.T) {
	keys := map[string]string{"secret-key": "hopital-nord"}
	var clientID string
	h := APIKeyAuth(keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID = GetClientID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("invalid key: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/convert", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("bearer key: expected 200, got %d", rec.Code)
	}
	if clientID != "hopital-nord" {
		t.Errorf("expected the client id in context, got %q", clientID)
	}
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("mapper bug")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/convert", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

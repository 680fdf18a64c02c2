package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arkmint/arkmint/internal/model"
	"github.com/arkmint/arkmint/internal/service"
	"github.com/arkmint/arkmint/internal/store"
)

func newAuthService(t *testing.T) (*service.AuthService, string) {
	t.Helper()
	st, err := store.Open(store.Options{})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	if err := st.CreateNaan(ctx, &model.Naan{Naan: 12345, Name: "Test"}); err != nil {
		t.Fatalf("CreateNaan: %v", err)
	}
	svc := service.NewAuthService(st)
	plain, err := svc.IssueKey(ctx, 12345, "test")
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}
	return svc, plain
}

func TestAuthenticate(t *testing.T) {
	svc, plain := newAuthService(t)

	var gotNaan *model.Naan
	handler := Authenticate(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotNaan = GetNaan(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"bearer token", "Bearer " + plain, http.StatusOK},
		{"bare token", plain, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotNaan = nil
			req := httptest.NewRequest("POST", "/mint", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotNaan == nil || gotNaan.Naan != 12345 {
					t.Errorf("authenticated naan = %+v", gotNaan)
				}
			} else {
				if gotNaan != nil {
					t.Error("handler ran for an unauthenticated request")
				}
				if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("error Content-Type = %q", ct)
				}
			}
		})
	}
}

func TestGetNaanAbsent(t *testing.T) {
	if n := GetNaan(context.Background()); n != nil {
		t.Errorf("GetNaan on empty context: got %+v", n)
	}
}

func TestRequestID(t *testing.T) {
	var ctxID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
	}))

	// Generated when absent.
	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	headerID := rr.Header().Get("X-Request-ID")
	if headerID == "" {
		t.Fatal("no X-Request-ID on response")
	}
	if ctxID != headerID {
		t.Errorf("context ID %q != header ID %q", ctxID, headerID)
	}

	// Echoed when the client sends one.
	req = httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "client-chosen-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "client-chosen-id" {
		t.Errorf("echoed ID = %q", got)
	}
	if ctxID != "client-chosen-id" {
		t.Errorf("context ID = %q", ctxID)
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var limited bool
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/ark:/12345/x7abc", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Error("per-IP limit never kicked in")
	}
}

func TestRateLimitByToken(t *testing.T) {
	handler := RateLimitByToken(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(token string) int {
		req := httptest.NewRequest("POST", "/mint", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	// Exhaust one credential's bucket.
	var limited bool
	for i := 0; i < 5; i++ {
		if do("token-a") == http.StatusTooManyRequests {
			limited = true
		}
	}
	if !limited {
		t.Fatal("per-token limit never kicked in")
	}

	// A different credential still gets through.
	if code := do("token-b"); code != http.StatusOK {
		t.Errorf("other token blocked: status %d", code)
	}
}

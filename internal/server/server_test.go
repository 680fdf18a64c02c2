package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arkmint/arkmint/internal/model"
	"github.com/arkmint/arkmint/internal/service"
	"github.com/arkmint/arkmint/internal/store"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// testEnv holds all the shared state for integration tests.
type testEnv struct {
	server  *Server
	store   *store.Store
	authSvc *service.AuthService
}

// newTestEnv creates a fresh test environment with an in-memory store and a
// fully wired Server.
func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, DefaultConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	st, err := store.Open(store.Options{}) // in-memory SQLite
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(st)
	minter := service.NewMinter(st, logger)
	resolver := service.NewResolver(st, "")

	srv := New(cfg, st, authSvc, minter, resolver, logger)

	return &testEnv{
		server:  srv,
		store:   st,
		authSvc: authSvc,
	}
}

// seedNaan registers a naming authority and returns it.
func (e *testEnv) seedNaan(t *testing.T, naan int64) *model.Naan {
	t.Helper()
	n := &model.Naan{Naan: naan, Name: "Test Authority", URL: "https://ark.example.edu"}
	if err := e.store.CreateNaan(context.Background(), n); err != nil {
		t.Fatalf("seedNaan: %v", err)
	}
	return n
}

// seedKey issues an API key for the naan and returns the plaintext.
func (e *testEnv) seedKey(t *testing.T, naan int64) string {
	t.Helper()
	plain, err := e.authSvc.IssueKey(context.Background(), naan, "test")
	if err != nil {
		t.Fatalf("seedKey: %v", err)
	}
	return plain
}

// do executes an HTTP request against the test server and returns the recorder.
// headers is an optional map of header key-value pairs.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// doAuth executes an HTTP request with a bearer token.
func (e *testEnv) doAuth(t *testing.T, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("jsonBody: %v", err)
	}
	return buf
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

// mint performs an authenticated mint and returns the qualified ark string.
func (e *testEnv) mint(t *testing.T, token string, req model.MintRequest) string {
	t.Helper()
	rr := e.doAuth(t, "POST", "/mint", jsonBody(t, req), token)
	assertStatus(t, rr, http.StatusOK)

	var resp model.MintResponse
	decodeJSON(t, rr, &resp)
	if resp.Ark == "" {
		t.Fatal("mint: got empty ark")
	}
	return resp.Ark
}

// ---------------------------------------------------------------------------
// Health probes
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "GET", "/healthz", nil, nil)
	assertStatus(t, rr, http.StatusOK)

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("healthz status = %q", resp["status"])
	}
}

func TestReadyz(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "GET", "/readyz", nil, nil)
	assertStatus(t, rr, http.StatusOK)
}

func TestRequestIDHeader(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "GET", "/healthz", nil, nil)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}

// ---------------------------------------------------------------------------
// Minting
// ---------------------------------------------------------------------------

func TestMintRequiresAuth(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)

	body := jsonBody(t, model.MintRequest{Naan: 12345, Shoulder: "/x7"})
	rr := e.do(t, "POST", "/mint", body, nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	rr = e.doAuth(t, "POST", "/mint", jsonBody(t, model.MintRequest{Naan: 12345, Shoulder: "/x7"}), "wrong-token")
	assertStatus(t, rr, http.StatusUnauthorized)

	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	if resp.Error.Code != http.StatusUnauthorized {
		t.Errorf("error code = %d", resp.Error.Code)
	}
}

func TestMint(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)
	token := e.seedKey(t, 12345)

	ark := e.mint(t, token, model.MintRequest{
		Naan:       12345,
		Shoulder:   "/x7",
		URL:        "https://example.edu/item/1",
		Metadata:   `{"title":"First"}`,
		Commitment: "permanent",
	})

	if !strings.HasPrefix(ark, "ark:/12345/x7") {
		t.Errorf("minted ark %q has wrong prefix", ark)
	}

	stored, err := e.store.GetArk(context.Background(), strings.TrimPrefix(ark, "ark:/"))
	if err != nil {
		t.Fatalf("minted ark not in store: %v", err)
	}
	if stored.URL != "https://example.edu/item/1" || stored.Commitment != "permanent" {
		t.Errorf("stored ark: got %+v", stored)
	}
}

func TestMintRejectsForeignNaan(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)
	e.seedNaan(t, 67890)
	token := e.seedKey(t, 12345)

	rr := e.doAuth(t, "POST", "/mint", jsonBody(t, model.MintRequest{Naan: 67890, Shoulder: "/x7"}), token)
	assertStatus(t, rr, http.StatusForbidden)
}

func TestMintValidation(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)
	token := e.seedKey(t, 12345)

	// Malformed JSON.
	rr := e.doAuth(t, "POST", "/mint", strings.NewReader("{not json"), token)
	assertStatus(t, rr, http.StatusBadRequest)

	// Missing required fields.
	rr = e.doAuth(t, "POST", "/mint", jsonBody(t, model.MintRequest{Naan: 12345}), token)
	assertStatus(t, rr, http.StatusBadRequest)
	rr = e.doAuth(t, "POST", "/mint", jsonBody(t, model.MintRequest{Shoulder: "/x7"}), token)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestMintWithLegacyKey(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)

	token, err := e.authSvc.IssueLegacyKey(context.Background(), 12345)
	if err != nil {
		t.Fatalf("IssueLegacyKey: %v", err)
	}

	ark := e.mint(t, token, model.MintRequest{Naan: 12345, Shoulder: "/x7", URL: "https://example.edu/1"})
	if !strings.HasPrefix(ark, "ark:/12345/x7") {
		t.Errorf("minted ark %q has wrong prefix", ark)
	}
}

// ---------------------------------------------------------------------------
// Updating
// ---------------------------------------------------------------------------

func TestUpdate(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)
	token := e.seedKey(t, 12345)

	ark := e.mint(t, token, model.MintRequest{Naan: 12345, Shoulder: "/x7", URL: "https://example.edu/old"})

	rr := e.doAuth(t, "PUT", "/update", jsonBody(t, model.UpdateRequest{
		Ark:      ark,
		URL:      "https://example.edu/new",
		Metadata: `{"title":"Revised"}`,
	}), token)
	assertStatus(t, rr, http.StatusOK)

	stored, err := e.store.GetArk(context.Background(), strings.TrimPrefix(ark, "ark:/"))
	if err != nil {
		t.Fatalf("GetArk: %v", err)
	}
	if stored.URL != "https://example.edu/new" || stored.Metadata != `{"title":"Revised"}` {
		t.Errorf("update not persisted: got %+v", stored)
	}
}

func TestUpdateErrors(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)
	e.seedNaan(t, 67890)
	token := e.seedKey(t, 12345)

	// Unauthenticated.
	rr := e.do(t, "PUT", "/update", jsonBody(t, model.UpdateRequest{Ark: "ark:/12345/x7abc"}), nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	// Malformed ark.
	rr = e.doAuth(t, "PUT", "/update", jsonBody(t, model.UpdateRequest{Ark: "not-an-ark"}), token)
	assertStatus(t, rr, http.StatusBadRequest)

	// Someone else's naan.
	rr = e.doAuth(t, "PUT", "/update", jsonBody(t, model.UpdateRequest{Ark: "ark:/67890/x7abc"}), token)
	assertStatus(t, rr, http.StatusForbidden)

	// Well-formed but never minted.
	rr = e.doAuth(t, "PUT", "/update", jsonBody(t, model.UpdateRequest{Ark: "ark:/12345/x7neverminted"}), token)
	assertStatus(t, rr, http.StatusNotFound)
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

func TestMintResolveRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)
	token := e.seedKey(t, 12345)

	ark := e.mint(t, token, model.MintRequest{Naan: 12345, Shoulder: "/x7", URL: "https://example.edu/item/1"})

	rr := e.do(t, "GET", "/"+ark, nil, nil)
	assertStatus(t, rr, http.StatusFound)
	if loc := rr.Header().Get("Location"); loc != "https://example.edu/item/1" {
		t.Errorf("Location = %q", loc)
	}
}

func TestResolveReservedArk(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)
	token := e.seedKey(t, 12345)

	// Minted with no target URL.
	ark := e.mint(t, token, model.MintRequest{Naan: 12345, Shoulder: "/x7"})

	rr := e.do(t, "GET", "/"+ark, nil, nil)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestResolveUnknownArkFallsBack(t *testing.T) {
	e := newTestEnv(t)
	e.seedNaan(t, 12345)

	// Known naan, unknown ark: redirect to the authority's own resolver.
	rr := e.do(t, "GET", "/ark:/12345/x7unknown1", nil, nil)
	assertStatus(t, rr, http.StatusFound)
	if loc := rr.Header().Get("Location"); loc != "https://ark.example.edu/ark:/12345/x7unknown1" {
		t.Errorf("Location = %q", loc)
	}

	// Unknown naan: redirect to the global resolver.
	rr = e.do(t, "GET", "/ark:/99999/x7unknown1", nil, nil)
	assertStatus(t, rr, http.StatusFound)
	if loc := rr.Header().Get("Location"); loc != service.DefaultGlobalResolver+"/ark:/99999/x7unknown1" {
		t.Errorf("Location = %q", loc)
	}
}

func TestResolveInvalidArk(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, "GET", "/ark:/not-a-naan/x", nil, nil)
	assertStatus(t, rr, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

func TestResolveRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 3
	e := newTestEnvWithConfig(t, cfg)
	e.seedNaan(t, 12345)

	var limited bool
	for i := 0; i < 10; i++ {
		rr := e.do(t, "GET", "/ark:/12345/x7abc", nil, nil)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("resolver was never rate limited")
	}
}

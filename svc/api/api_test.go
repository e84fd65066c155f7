package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"pastelite/cfg"
	"pastelite/pkg/clock"
	"pastelite/svc/store"
	"pastelite/svc/svc"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 = int64(1_700_000_000_000)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testCfg() *cfg.Cfg {
	return &cfg.Cfg{
		Port:            "0",
		Environment:     "test",
		TestMode:        true,
		MaxPasteSize:    1024,
		ContextTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
	}
}

func newTestServer(t *testing.T, c *cfg.Cfg) *Server {
	t.Helper()
	st, err := store.New(store.Options{Capacity: c.StoreCapacity})
	require.NoError(t, err)
	return NewServer(c, svc.NewPaste(st, c), clock.Fixed(t0))
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func at(ms int64) map[string]string {
	return map[string]string{TestNowHeader: strconv.FormatInt(ms, 10)}
}

func create(t *testing.T, s *Server, body string, headers map[string]string) CreateResp {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/pastes", body, headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp CreateResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

type getBody struct {
	Content        string  `json:"content"`
	RemainingViews *int64  `json:"remaining_views"`
	ExpiresAt      *string `json:"expires_at"`
}

func get(t *testing.T, s *Server, id string, headers map[string]string) (int, getBody, map[string]any) {
	t.Helper()
	rec := do(t, s, http.MethodGet, "/api/pastes/"+id, "", headers)
	var body getBody
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body, raw
}

func TestHealthAndRoot(t *testing.T) {
	s := newTestServer(t, testCfg())

	rec := do(t, s, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	rec = do(t, s, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestCreatePaste(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"hello"}`, nil)

	_, err := uuid.Parse(resp.ID)
	assert.NoError(t, err)
	assert.Equal(t, "/p/"+resp.ID, resp.URL)
}

func TestCreatePasteUsesPublicBaseURL(t *testing.T) {
	c := testCfg()
	c.PublicBaseURL = "https://paste.example.com"
	s := newTestServer(t, c)
	resp := create(t, s, `{"content":"hello"}`, nil)
	assert.Equal(t, "https://paste.example.com/p/"+resp.ID, resp.URL)
}

func TestCreatePasteRejectsBadInput(t *testing.T) {
	s := newTestServer(t, testCfg())
	tests := []struct {
		name string
		body string
	}{
		{"missing content", `{}`},
		{"null content", `{"content":null}`},
		{"empty content", `{"content":""}`},
		{"numeric content", `{"content":42}`},
		{"string ttl", `{"content":"x","ttl_seconds":"10"}`},
		{"fractional max views", `{"content":"x","max_views":1.5}`},
		{"string max views", `{"content":"x","max_views":"3"}`},
		{"malformed json", `{"content":`},
		{"not an object", `["x"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/pastes", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "INVALID_INPUT", body["code"])
		})
	}
}

func TestCreatePasteRequiresJSON(t *testing.T) {
	s := newTestServer(t, testCfg())
	rec := do(t, s, http.MethodPost, "/api/pastes", `{"content":"x"}`,
		map[string]string{"Content-Type": "text/plain"})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCreatePasteTooLarge(t *testing.T) {
	s := newTestServer(t, testCfg())

	rec := do(t, s, http.MethodPost, "/api/pastes", `{"content":"`+strings.Repeat("a", 1025)+`"}`, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/pastes", `{"content":"`+strings.Repeat("a", 4096)+`"}`, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRoundTripUnlimited(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"line1\nline2 <b>","ttl_seconds":null,"max_views":null}`, nil)

	for i := 0; i < 5; i++ {
		code, body, raw := get(t, s, resp.ID, at(t0+int64(i)*1_000_000_000))
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "line1\nline2 <b>", body.Content)
		assert.Nil(t, body.RemainingViews)
		assert.Contains(t, raw, "remaining_views")
		assert.Nil(t, raw["remaining_views"])
		assert.Nil(t, raw["expires_at"])
	}
}

func TestTTLBoundary(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"x","ttl_seconds":10}`, at(t0))

	code, body, _ := get(t, s, resp.ID, at(t0+10_000))
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, body.ExpiresAt)
	exp, err := time.Parse(time.RFC3339Nano, *body.ExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, t0+10_000, exp.UnixMilli())

	code, _, _ = get(t, s, resp.ID, at(t0+10_001))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestViewQuota(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"x","max_views":2}`, nil)

	code, body, _ := get(t, s, resp.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(1), *body.RemainingViews)

	code, body, _ = get(t, s, resp.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), *body.RemainingViews)

	code, _, _ = get(t, s, resp.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestZeroMaxViewsIsAlreadyExhausted(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"x","max_views":0}`, nil)
	code, _, _ := get(t, s, resp.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTestClockHeaderIgnoredOutsideTestMode(t *testing.T) {
	c := testCfg()
	c.TestMode = false
	s := newTestServer(t, c)
	resp := create(t, s, `{"content":"x","ttl_seconds":1}`, nil)

	code, _, _ := get(t, s, resp.ID, at(t0+60_000))
	assert.Equal(t, http.StatusOK, code)
}

func TestUnparsableTestClockFallsBack(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"x","ttl_seconds":1}`, nil)

	code, _, _ := get(t, s, resp.ID, map[string]string{TestNowHeader: "soon"})
	assert.Equal(t, http.StatusOK, code)
}

func TestNotFoundResponsesAreIdentical(t *testing.T) {
	s := newTestServer(t, testCfg())
	expired := create(t, s, `{"content":"x","ttl_seconds":1}`, at(t0))
	used := create(t, s, `{"content":"x","max_views":1}`, at(t0))
	code, _, _ := get(t, s, used.ID, at(t0))
	require.Equal(t, http.StatusOK, code)

	later := at(t0 + 5_000)
	shapes := make([]map[string]any, 0, 3)
	for _, id := range []string{expired.ID, used.ID, uuid.NewString()} {
		code, _, raw := get(t, s, id, later)
		assert.Equal(t, http.StatusNotFound, code)
		delete(raw, "request_id")
		shapes = append(shapes, raw)
	}
	assert.Equal(t, shapes[0], shapes[1])
	assert.Equal(t, shapes[0], shapes[2])
	assert.Equal(t, "paste not found", shapes[0]["error"])
}

func TestHTMLViewEscapesAndCountsViews(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"<script>alert('x')</script> & co","max_views":2}`, nil)

	rec := do(t, s, http.MethodGet, resp.URL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	html := rec.Body.String()
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "&amp; co")

	code, body, _ := get(t, s, resp.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(0), *body.RemainingViews)

	rec = do(t, s, http.MethodGet, resp.URL, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Paste not found\n", rec.Body.String())
}

func TestHTMLViewUnknown(t *testing.T) {
	s := newTestServer(t, testCfg())
	rec := do(t, s, http.MethodGet, "/p/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Paste not found\n", rec.Body.String())
}

func TestConcurrentReadsHonourQuota(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"x","max_views":5}`, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	codes := map[int]int{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/api/pastes/"+resp.ID, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			mu.Lock()
			codes[rec.Code]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, codes[http.StatusOK])
	assert.Equal(t, 45, codes[http.StatusNotFound])
}

func TestReadsAreNotCacheable(t *testing.T) {
	s := newTestServer(t, testCfg())
	resp := create(t, s, `{"content":"x"}`, nil)
	rec := do(t, s, http.MethodGet, "/api/pastes/"+resp.ID, "", nil)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsBasicAuth(t *testing.T) {
	c := testCfg()
	c.MetricsUser = "ops"
	c.MetricsPass = cfg.NewSecret("secret")
	s := newTestServer(t, c)

	rec := do(t, s, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("ops", "secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pastelite_paste_created_total")
}

func TestCORSPreflight(t *testing.T) {
	c := testCfg()
	c.AllowedOrigins = []string{"https://app.example"}
	s := newTestServer(t, c)

	rec := do(t, s, http.MethodOptions, "/api/pastes", "", map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, s, http.MethodOptions, "/api/pastes", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBoundedStoreOverHTTP(t *testing.T) {
	c := testCfg()
	c.StoreCapacity = 1
	s := newTestServer(t, c)
	first := create(t, s, `{"content":"a"}`, nil)
	second := create(t, s, `{"content":"b"}`, nil)

	code, _, _ := get(t, s, first.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, body, _ := get(t, s, second.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "b", body.Content)
}

func TestCreateBodyWithoutContentLength(t *testing.T) {
	s := newTestServer(t, testCfg())
	req := httptest.NewRequest(http.MethodPost, "/api/pastes", bytes.NewBufferString(`{"content":"chunked"}`))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

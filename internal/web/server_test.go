package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/osintdesk/internal/config"
	"github.com/JonMunkholm/osintdesk/internal/core"
	"github.com/JonMunkholm/osintdesk/internal/remote"
	"github.com/prometheus/client_golang/prometheus"
)

// fakeReference is a ReferenceSearcher with a canned answer.
type fakeReference struct {
	records []core.Record
	err     error
	queries []string
}

func (f *fakeReference) Search(_ context.Context, query string) ([]core.Record, error) {
	f.queries = append(f.queries, query)
	return f.records, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           5000,
			RequestTimeout: 5 * time.Second,
		},
		Upload: config.UploadConfig{
			MaxFileSize:    1 << 20,
			MaxRequestSize: 4 << 20,
		},
		Session: config.SessionConfig{
			IdleTTL:    time.Hour,
			CookieName: "osintdesk_session",
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, deps Deps) *Server {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	if deps.Service == nil {
		deps.Service = core.NewService(core.Options{MaxFileSize: cfg.Upload.MaxFileSize})
	}
	if deps.Sessions == nil {
		deps.Sessions = core.NewSessionStore()
	}
	s := NewServer(cfg, deps)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

// client keeps the session cookie between requests.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == c.srv.cfg.Session.CookieName {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) upload(path string, files map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			c.t.Fatalf("CreateFormFile: %v", err)
		}
		io.WriteString(part, content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

const peopleCSV = "name,city\nIvan,Moscow\nAnna,Kazan\nOleg,moscow\n"

func TestUploadThenLookup(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil, Deps{})}

	rec := c.upload("/api/databases", map[string]string{
		"people.csv": peopleCSV,
		"scan.pdf":   "%PDF",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	if c.cookie == nil {
		t.Fatal("upload did not set a session cookie")
	}

	var up struct {
		Success bool           `json:"success"`
		Data    uploadResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if !up.Success || up.Data.Added != 1 || up.Data.Failed != 1 {
		t.Errorf("upload = %+v, want 1 added 1 failed", up)
	}
	for _, f := range up.Data.Files {
		if f.File == "scan.pdf" && f.Code != "FILE002" {
			t.Errorf("scan.pdf code = %q, want FILE002", f.Code)
		}
		if f.File == "people.csv" && (f.Database == nil || f.Database.RecordCount != 3) {
			t.Errorf("people.csv result = %+v, want 3 records", f)
		}
	}

	rec = c.postJSON("/api/lookup", `{"query":"mosc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var lk struct {
		Data struct {
			Total   int `json:"total"`
			Results []struct {
				Database string           `json:"database"`
				Matches  []map[string]any `json:"matches"`
			} `json:"results"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &lk); err != nil {
		t.Fatalf("decode lookup: %v", err)
	}
	if lk.Data.Total != 2 || len(lk.Data.Results) != 1 || lk.Data.Results[0].Database != "people.csv" {
		t.Errorf("lookup = %+v, want 2 matches in people.csv", lk.Data)
	}
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name       string
		remote     core.RemoteSource
		upload     bool
		body       string
		wantStatus int
		wantCode   string
	}{
		{"empty query", nil, true, `{"query":"  "}`, http.StatusBadRequest, "VAL001"},
		{"no databases", nil, false, `{"query":"ivan"}`, http.StatusBadRequest, "VAL002"},
		{"bad body", nil, true, `{"query":`, http.StatusBadRequest, "VAL004"},
		{"remote down and nothing local", &fakeReference{err: errors.New("boom")}, true, `{"query":"zzz"}`, http.StatusBadGateway, "SRCH001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := core.NewService(core.Options{Remote: tt.remote})
			c := &client{t: t, srv: newTestServer(t, nil, Deps{Service: svc})}
			if tt.upload {
				c.upload("/api/databases", map[string]string{"people.csv": peopleCSV})
			}

			rec := c.postJSON("/api/lookup", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["code"] != tt.wantCode || body["success"] != false {
				t.Errorf("body = %v, want code %s", body, tt.wantCode)
			}
		})
	}
}

func TestLookup_RemoteFailureKeepsLocalHits(t *testing.T) {
	svc := core.NewService(core.Options{Remote: &fakeReference{err: errors.New("boom")}})
	c := &client{t: t, srv: newTestServer(t, nil, Deps{Service: svc})}
	c.upload("/api/databases", map[string]string{"people.csv": peopleCSV})

	rec := c.postJSON("/api/lookup", `{"query":"anna"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	data := decodeBody(t, rec)["data"].(map[string]any)
	if data["total"] != float64(1) || data["remoteWarning"] == nil {
		t.Errorf("data = %v, want 1 local match and a remote warning", data)
	}
}

func TestLookup_UnsuccessfulRemoteIsNotAFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"index offline"}`))
	}))
	defer ts.Close()

	svc := core.NewService(core.Options{Remote: remote.New(ts.URL, time.Second)})
	c := &client{t: t, srv: newTestServer(t, nil, Deps{Service: svc})}
	c.upload("/api/databases", map[string]string{"people.csv": peopleCSV})

	rec := c.postJSON("/api/lookup", `{"query":"nobody-matches-this"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	data := decodeBody(t, rec)["data"].(map[string]any)
	if data["total"] != float64(0) || data["remoteWarning"] != nil {
		t.Errorf("data = %v, want an empty result without a remote warning", data)
	}
}

func TestUpload_NoFiles(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil, Deps{})}

	rec := c.upload("/api/databases", nil)
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["code"] != "FILE004" {
		t.Errorf("empty multipart = %d %s, want 400 FILE004", rec.Code, rec.Body.String())
	}

	rec = c.postJSON("/api/databases", `{}`)
	if rec.Code != http.StatusBadRequest || decodeBody(t, rec)["code"] != "FILE004" {
		t.Errorf("non-multipart = %d %s, want 400 FILE004", rec.Code, rec.Body.String())
	}
}

func TestUpload_RequestTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxRequestSize = 64
	c := &client{t: t, srv: newTestServer(t, cfg, Deps{})}

	rec := c.upload("/api/databases", map[string]string{"big.txt": strings.Repeat("x", 1024)})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestListAndRemoveDatabases(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil, Deps{})}
	c.upload("/api/databases", map[string]string{"a.txt": "one\ntwo\n"})
	c.upload("/api/databases", map[string]string{"a.txt": "three\n"})
	c.upload("/api/databases", map[string]string{"b.json": `[{"x":1}]`})

	rec := c.do(httptest.NewRequest(http.MethodGet, "/api/databases", nil))
	if got := len(decodeBody(t, rec)["data"].([]any)); got != 3 {
		t.Fatalf("listed %d databases, want 3", got)
	}

	rec = c.do(httptest.NewRequest(http.MethodDelete, "/api/databases/a.txt", nil))
	data := decodeBody(t, rec)["data"].(map[string]any)
	if data["removed"] != float64(2) || len(data["databases"].([]any)) != 1 {
		t.Errorf("remove = %v, want 2 removed and 1 left", data)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, nil, Deps{})
	alice := &client{t: t, srv: srv}
	bob := &client{t: t, srv: srv}

	alice.upload("/api/databases", map[string]string{"people.csv": peopleCSV})

	rec := bob.postJSON("/api/lookup", `{"query":"ivan"}`)
	if decodeBody(t, rec)["code"] != "VAL002" {
		t.Errorf("second session saw the first one's databases: %s", rec.Body.String())
	}
}

func TestEndSession(t *testing.T) {
	sessions := core.NewSessionStore()
	c := &client{t: t, srv: newTestServer(t, nil, Deps{Sessions: sessions})}
	c.upload("/api/databases", map[string]string{"a.txt": "x\n"})
	if sessions.Count() != 1 {
		t.Fatalf("sessions = %d, want 1", sessions.Count())
	}

	rec := c.do(httptest.NewRequest(http.MethodDelete, "/api/session", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if sessions.Count() != 0 {
		t.Errorf("sessions = %d after end, want 0", sessions.Count())
	}
	if c.cookie == nil || c.cookie.MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", c.cookie)
	}
}

func TestDatabaseSearch(t *testing.T) {
	ref := &fakeReference{records: []core.Record{
		core.NewFieldRecord(core.Field{Name: "name", Value: "Ivan"}),
	}}

	tests := []struct {
		name       string
		ref        ReferenceSearcher
		wantStatus int
		wantBody   string
	}{
		{"no store", nil, http.StatusOK, `{"data":[],"success":true}`},
		{"records", ref, http.StatusOK, `{"data":[{"name":"Ivan"}],"success":true}`},
		{"store error", &fakeReference{err: errors.New("conn reset")}, http.StatusInternalServerError, `{"error":"An unexpected error occurred","success":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &client{t: t, srv: newTestServer(t, nil, Deps{Reference: tt.ref})}
			rec := c.postJSON("/api/database-search", `{"query":"iv"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

// The remote client and the search endpoint speak the same protocol.
func TestDatabaseSearch_RemoteClientRoundTrip(t *testing.T) {
	ref := &fakeReference{records: []core.Record{
		core.NewFieldRecord(core.Field{Name: "z", Value: "1"}, core.Field{Name: "a", Value: "Ivan"}),
		core.NewTextRecord("ivan@example.com"),
	}}
	backend := newTestServer(t, nil, Deps{Reference: ref})
	ts := httptest.NewServer(backend.Router())
	defer ts.Close()

	recs, err := remote.New(ts.URL, time.Second).Search(context.Background(), "ivan")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(recs))
	}
	if f := recs[0].Fields(); f[0].Name != "z" || f[1].Name != "a" {
		t.Errorf("field order lost: %v", f)
	}
	if len(ref.queries) != 1 || ref.queries[0] != "ivan" {
		t.Errorf("reference queries = %v", ref.queries)
	}
}

func TestTools(t *testing.T) {
	tests := []struct {
		path       string
		body       string
		wantStatus int
		wantData   string
	}{
		{"/api/phone-lookup", `{"phone":"+79990000000"}`, http.StatusOK, `"country":"Russia"`},
		{"/api/social-analysis", `{"username":"ivan","platform":"vk"}`, http.StatusOK, `"status":"Profile found"`},
		{"/api/metadata-analysis", `{"fileInfo":"a.jpg"}`, http.StatusOK, `"camera":"Example Camera"`},
		{"/api/geolocation", `{"query":"Moscow"}`, http.StatusOK, `"coordinates":"55.7558, 37.6176"`},
		{"/api/document-verify", `{"docType":"snils","docNumber":"1"}`, http.StatusOK, `"docTypeName":"СНИЛС"`},
		{"/api/phone-lookup", `{}`, http.StatusBadRequest, `"code":"VAL003"`},
		{"/api/geolocation", `not json`, http.StatusBadRequest, `"code":"VAL004"`},
	}

	c := &client{t: t, srv: newTestServer(t, nil, Deps{})}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.body, func(t *testing.T) {
			rec := c.postJSON(tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantData) {
				t.Errorf("body = %s, want it to contain %s", rec.Body.String(), tt.wantData)
			}
		})
	}
}

func TestNeuralAssistant(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil, Deps{})}

	rec := c.postJSON("/api/neural-assistant", `{"message":"hi"}`)
	body := decodeBody(t, rec)
	if body["success"] != true || body["response"] == "" {
		t.Errorf("body = %v, want a scripted response", body)
	}
}

func TestPages(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil, Deps{})}

	rec := c.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No databases loaded") {
		t.Fatalf("GET / = %d", rec.Code)
	}

	rec = c.upload("/databases", map[string]string{"people.csv": peopleCSV})
	if !strings.Contains(rec.Body.String(), "loaded (3 records)") {
		t.Errorf("upload page missing success notice: %s", rec.Body.String())
	}

	form := func(path, values string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	rec = c.do(form("/search", "query=kazan"))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<strong>city:</strong> Kazan") {
		t.Errorf("search page = %d, missing match", rec.Code)
	}

	rec = c.do(form("/search", "query="))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "Code: VAL001") {
		t.Errorf("empty search page = %d, missing VAL001 alert", rec.Code)
	}

	rec = c.do(form("/databases/remove", "name=people.csv"))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("remove status = %d, want 303", rec.Code)
	}
	rec = c.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "No databases loaded") {
		t.Error("database still listed after removal")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc := core.NewService(core.Options{Metrics: core.NewMetrics(reg)})
	c := &client{t: t, srv: newTestServer(t, nil, Deps{Service: svc, Gatherer: reg})}
	c.upload("/api/databases", map[string]string{"a.txt": "x\n"})

	rec := c.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["sessions"] != float64(1) {
		t.Errorf("health = %v", body)
	}

	rec = c.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `osintdesk_files_ingested_total{kind="text",status="ok"} 1`) {
		t.Errorf("metrics missing ingest counter:\n%s", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	c := &client{t: t, srv: newTestServer(t, nil, Deps{})}
	rec := c.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2, UploadLimit: 1}
	c := &client{t: t, srv: newTestServer(t, cfg, Deps{})}

	for i := 0; i < 2; i++ {
		if rec := c.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}
	rec := c.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("third request = %d, want 429 with Retry-After", rec.Code)
	}
}

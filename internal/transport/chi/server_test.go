package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/sitekit/internal/domain"
	domcompletion "github.com/kailas-cloud/sitekit/internal/domain/completion"
	"github.com/kailas-cloud/sitekit/internal/metrics"
	"github.com/kailas-cloud/sitekit/internal/repository/item"
	"github.com/kailas-cloud/sitekit/internal/session"
	catalogsvc "github.com/kailas-cloud/sitekit/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/sitekit/internal/usecase/health"
)

func TestMain(m *testing.M) {
	metrics.RegisterDomainMetrics()
	os.Exit(m.Run())
}

type fakeCompleter struct {
	result     domcompletion.Result
	lastPrompt string
}

func (f *fakeCompleter) GetCompletion(_ context.Context, prompt string) domcompletion.Result {
	f.lastPrompt = prompt
	return f.result
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeHealthCompletion struct{ err error }

func (f fakeHealthCompletion) HealthCheck(context.Context) error { return f.err }

type testEnv struct {
	srv       *httptest.Server
	completer *fakeCompleter
	pages     *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := item.NewMemory()
	catalog := catalogsvc.New(mem, nil).WithMaxBatchSize(3)
	pages := session.NewManager(mem, session.Config{TTL: time.Minute, PageSize: 10}, nil)
	t.Cleanup(pages.Close)

	completer := &fakeCompleter{result: domcompletion.Success("Hello!")}
	health := healthuc.New(fakePinger{}, fakeHealthCompletion{})

	s := NewServer(completer, catalog, pages, health, nil)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, completer: completer, pages: pages}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	code, body := e.do(t, "POST", "/api/v1/items", `{"items":[
		{"id":"1","title":"Hex bolt","skUs":"BOLT-1,BOLT-2","itemDetailedDescription":"Steel hex bolt","mfgPartNos":"M-100"},
		{"id":"2","title":"Nut","skUs":"NUT-7","itemDetailedDescription":"Brass nut","mfgPartNos":"M-200"}
	]}`)
	if code != http.StatusOK {
		t.Fatalf("seed: status %d, body %v", code, body)
	}
}

func TestCreateCompletion_Success(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.do(t, "POST", "/api/v1/completions", `{"prompt":"Say hi"}`)
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	if body["status"] != "ok" || body["content"] != "Hello!" {
		t.Errorf("unexpected body: %v", body)
	}
	if _, ok := body["kind"]; ok {
		t.Errorf("success body carries kind: %v", body)
	}
	if e.completer.lastPrompt != "Say hi" {
		t.Errorf("prompt: got %q", e.completer.lastPrompt)
	}
}

func TestCreateCompletion_FailureIsTagged(t *testing.T) {
	e := newTestEnv(t)
	e.completer.result = domcompletion.Failure(domcompletion.KindSecret, "secret not found")

	code, body := e.do(t, "POST", "/api/v1/completions", `{"prompt":""}`)
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	if body["status"] != "error" || body["kind"] != "secret" || body["message"] != "secret not found" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestCreateCompletion_BadBody(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.do(t, "POST", "/api/v1/completions", `{"prompt":`)
	if code != http.StatusBadRequest {
		t.Fatalf("status: got %d", code)
	}
	if body["code"] != string(codeBadRequest) {
		t.Errorf("code: got %v", body["code"])
	}
}

func TestLegacyCompletion(t *testing.T) {
	tests := []struct {
		name   string
		result domcompletion.Result
		want   string
	}{
		{"reply", domcompletion.Success("Hello!"), "Hello!"},
		{"no choices", domcompletion.NoChoices(), "No response generated."},
		{"transport", domcompletion.Failure(domcompletion.KindTransport, "connection refused"), "Error: connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.completer.result = tt.result

			code, body := e.do(t, "POST", LegacyCompletionPath, `{"prompt":"x"}`)
			if code != http.StatusOK {
				t.Fatalf("status: got %d", code)
			}
			if body["result"] != tt.want {
				t.Errorf("result: got %q, want %q", body["result"], tt.want)
			}
		})
	}
}

func TestListCategories(t *testing.T) {
	e := newTestEnv(t)

	code, body := e.do(t, "GET", "/api/v1/categories", "")
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	items, _ := body["items"].([]any)
	if len(items) != 3 {
		t.Fatalf("categories: got %d", len(items))
	}
	first, _ := items[0].(map[string]any)
	if first["name"] != "Search Item by SKUs" || first["field"] != "skUs" {
		t.Errorf("first category: %v", first)
	}
}

func TestImportItems_PerItemErrors(t *testing.T) {
	e := newTestEnv(t)

	long := strings.Repeat("x", 200)
	code, body := e.do(t, "POST", "/api/v1/items",
		fmt.Sprintf(`{"items":[{"id":"a","title":"A"},{"id":%q,"title":"B"}]}`, long))
	if code != http.StatusOK {
		t.Fatalf("status: got %d", code)
	}
	if body["succeeded"] != float64(1) || body["failed"] != float64(1) {
		t.Errorf("counts: %v", body)
	}
	items, _ := body["items"].([]any)
	bad, _ := items[1].(map[string]any)
	errObj, _ := bad["error"].(map[string]any)
	if bad["status"] != "error" || errObj["code"] != string(codeValidationFailed) {
		t.Errorf("bad item: %v", bad)
	}
}

func TestImportItems_Validation(t *testing.T) {
	e := newTestEnv(t)

	code, _ := e.do(t, "POST", "/api/v1/items", `{"items":[]}`)
	if code != http.StatusBadRequest {
		t.Errorf("empty: got %d", code)
	}

	code, body := e.do(t, "POST", "/api/v1/items", `{"items":[{"id":"1"},{"id":"2"},{"id":"3"},{"id":"4"}]}`)
	if code != http.StatusRequestEntityTooLarge {
		t.Errorf("too large: got %d", code)
	}
	if body["message"] != domain.ErrBatchTooLarge.Error() {
		t.Errorf("message: got %v", body["message"])
	}
}

func TestItems_EscapedIDs(t *testing.T) {
	e := newTestEnv(t)
	code, body := e.do(t, "POST", "/api/v1/items",
		`{"items":[{"id":"kit/10%","title":"Kit"},{"id":"hex bolt","title":"Bolt"}]}`)
	if code != http.StatusOK || body["succeeded"] != float64(2) {
		t.Fatalf("import: status %d body %v", code, body)
	}

	tests := []struct {
		path, wantID string
	}{
		{"/api/v1/items/kit%2F10%25", "kit/10%"},
		{"/api/v1/items/hex%20bolt", "hex bolt"},
	}
	for _, tt := range tests {
		code, body := e.do(t, "GET", tt.path, "")
		if code != http.StatusOK {
			t.Fatalf("GET %s: status %d body %v", tt.path, code, body)
		}
		if body["id"] != tt.wantID {
			t.Errorf("GET %s: id = %v, want %q", tt.path, body["id"], tt.wantID)
		}
	}

	if code, _ := e.do(t, "DELETE", "/api/v1/items/kit%2F10%25", ""); code != http.StatusNoContent {
		t.Fatalf("delete: status %d", code)
	}
	if code, _ := e.do(t, "GET", "/api/v1/items/kit%2F10%25", ""); code != http.StatusNotFound {
		t.Errorf("get deleted: status %d", code)
	}
}

func TestPathParam(t *testing.T) {
	tests := []struct {
		target, want string
	}{
		{"/x/plain", "plain"},
		{"/x/a%2Fb", "a/b"},
		{"/x/100%25", "100%"},
		{"/x/hex%20bolt", "hex bolt"},
		{"/x/a,b", "a,b"},
	}
	for _, tt := range tests {
		var (
			got string
			err error
		)
		r := chi.NewRouter()
		r.Get("/x/{id}", func(_ http.ResponseWriter, req *http.Request) {
			got, err = pathParam(req, "id")
		})
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", tt.target, http.NoBody))

		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.target, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestItems_GetDelete(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	code, body := e.do(t, "GET", "/api/v1/items/1", "")
	if code != http.StatusOK {
		t.Fatalf("get: status %d", code)
	}
	if body["skUs"] != "BOLT-1,BOLT-2" || body["itemDetailedDescription"] != "Steel hex bolt" {
		t.Errorf("get: unexpected body %v", body)
	}

	code, _ = e.do(t, "DELETE", "/api/v1/items/1", "")
	if code != http.StatusNoContent {
		t.Fatalf("delete: status %d", code)
	}

	code, body = e.do(t, "GET", "/api/v1/items/1", "")
	if code != http.StatusNotFound {
		t.Fatalf("get deleted: status %d", code)
	}
	if body["code"] != string(codeNotFound) {
		t.Errorf("code: got %v", body["code"])
	}
}

func TestPages_SearchFlow(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	code, page := e.do(t, "POST", "/api/v1/pages", "")
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	id, _ := page["id"].(string)
	if id == "" {
		t.Fatalf("create: missing id in %v", page)
	}
	view, _ := page["view"].(map[string]any)
	if view["total"] != float64(2) || view["filter"] != nil {
		t.Errorf("initial view: %v", view)
	}
	if page["category"] != "Search Item by SKUs" {
		t.Errorf("default category: %v", page["category"])
	}

	code, view = e.do(t, "POST", "/api/v1/pages/"+id+"/events",
		`{"type":"keypress","key":"Enter","input":"  bolt-2 ","category":"Search Item by SKUs"}`)
	if code != http.StatusOK {
		t.Fatalf("enter: status %d", code)
	}
	f, _ := view["filter"].(map[string]any)
	if view["total"] != float64(1) || f["field"] != "skUs" || f["value"] != "bolt-2" {
		t.Errorf("after enter: %v", view)
	}

	// Non-Enter keys leave the view alone.
	code, view = e.do(t, "POST", "/api/v1/pages/"+id+"/events",
		`{"type":"keypress","key":"a","input":""}`)
	if code != http.StatusOK || view["total"] != float64(1) {
		t.Errorf("other key: status %d view %v", code, view)
	}

	code, view = e.do(t, "POST", "/api/v1/pages/"+id+"/events", `{"type":"click"}`)
	if code != http.StatusOK {
		t.Fatalf("click: status %d", code)
	}
	if view["total"] != float64(2) || view["filter"] != nil {
		t.Errorf("after clearing click: %v", view)
	}

	code, results := e.do(t, "GET", "/api/v1/pages/"+id+"/results", "")
	if code != http.StatusOK || results["revision"] != view["revision"] {
		t.Errorf("results: status %d body %v", code, results)
	}
}

func TestPages_UnknownCategoryKeepsView(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	_, page := e.do(t, "POST", "/api/v1/pages", "")
	id, _ := page["id"].(string)

	code, view := e.do(t, "POST", "/api/v1/pages/"+id+"/events",
		`{"type":"click","input":"bolt","category":"Search by Price"}`)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if view["total"] != float64(2) || view["filter"] != nil {
		t.Errorf("unknown category changed the view: %v", view)
	}
}

func TestPages_Errors(t *testing.T) {
	e := newTestEnv(t)

	code, _ := e.do(t, "POST", "/api/v1/pages/missing/events", `{"type":"click"}`)
	if code != http.StatusNotFound {
		t.Errorf("unknown page: got %d", code)
	}
	code, _ = e.do(t, "GET", "/api/v1/pages/missing/results", "")
	if code != http.StatusNotFound {
		t.Errorf("unknown page results: got %d", code)
	}

	_, page := e.do(t, "POST", "/api/v1/pages", "")
	id, _ := page["id"].(string)

	for _, body := range []string{`{"type":"scroll"}`, `{"type":"keypress"}`} {
		code, resp := e.do(t, "POST", "/api/v1/pages/"+id+"/events", body)
		if code != http.StatusBadRequest {
			t.Errorf("%s: got %d", body, code)
		}
		if resp["message"] != domain.ErrInvalidEvent.Error() {
			t.Errorf("%s: message %v", body, resp["message"])
		}
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		db         error
		completion error
		wantCode   int
		wantStatus string
	}{
		{"healthy", nil, nil, http.StatusOK, "ok"},
		{"degraded", errors.New("down"), nil, http.StatusOK, "degraded"},
		{"unhealthy", errors.New("down"), errors.New("down"), http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(nil, nil, nil,
				healthuc.New(fakePinger{tt.db}, fakeHealthCompletion{tt.completion}), nil)
			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))

			if rr.Code != tt.wantCode {
				t.Errorf("code: got %d, want %d", rr.Code, tt.wantCode)
			}
			var resp healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status: got %s, want %s", resp.Status, tt.wantStatus)
			}
			if len(resp.Checks) != 2 {
				t.Errorf("checks: %v", resp.Checks)
			}
		})
	}
}

func TestHandleDomainError_HidesInternals(t *testing.T) {
	s := NewServer(nil, nil, nil, nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/items/x", http.NoBody)
	s.handleDomainError(rr, req, fmt.Errorf("redis: connection reset by peer 10.0.0.3"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("code: got %d", rr.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "internal error" || resp.Code != codeInternalError {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSafeDomainMessage(t *testing.T) {
	wrapped := fmt.Errorf("item %q: %w", "x", domain.ErrNotFound)
	if got := safeDomainMessage(wrapped); got != "not found" {
		t.Errorf("got %q", got)
	}
	if got := safeDomainMessage(errors.New("boom")); got != "internal error" {
		t.Errorf("got %q", got)
	}
}

package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/querylab/internal/config"
	"github.com/hyperjump/querylab/internal/elastic"
	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/keyword"
	"github.com/hyperjump/querylab/internal/labs"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/querydsl"
	"github.com/hyperjump/querylab/internal/search"
	"github.com/hyperjump/querylab/internal/server"
	"github.com/hyperjump/querylab/internal/storage"
)

type searchCall struct {
	path string
	body string
}

type cluster struct {
	mu    sync.Mutex
	calls []searchCall
	hits  int
}

func (c *cluster) searches() []searchCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]searchCall(nil), c.calls...)
}

func (c *cluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet && r.URL.Path == "/" {
		_, _ = io.WriteString(w, `{"version":{"number":"7.17.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
		return
	}
	body, _ := io.ReadAll(r.Body)
	if !strings.HasSuffix(r.URL.Path, "/_search") {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"root_cause":[{"reason":"no handler"}]},"status":404}`)
		return
	}
	c.mu.Lock()
	c.calls = append(c.calls, searchCall{r.URL.Path, string(body)})
	n := c.hits
	c.mu.Unlock()

	hits := make([]map[string]interface{}, n)
	for i := range hits {
		hits[i] = map[string]interface{}{
			"_index":  strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/_search"),
			"_id":     string(rune('1' + i)),
			"_score":  1.5,
			"_source": map[string]interface{}{"review_title": "Comfortable and durable"},
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"took":      3,
		"timed_out": false,
		"hits": map[string]interface{}{
			"total":     map[string]interface{}{"value": n, "relation": "eq"},
			"max_score": 1.5,
			"hits":      hits,
		},
	})
}

type stack struct {
	api     *httptest.Server
	cluster *cluster
}

func newStack(t *testing.T, hits int) *stack {
	t.Helper()
	c := &cluster{hits: hits}
	es := httptest.NewServer(c)
	t.Cleanup(es.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Elasticsearch.URL = es.URL
	cfg.Elasticsearch.APIKey = "e2e-key"
	cfg.Storage.DatabasePath = filepath.Join(dir, "querylab.db")
	cfg.Server.StaticDir = filepath.Join(dir, "static")

	logger := zap.NewNop()
	registry, err := labs.NewRegistry(labs.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := keyword.NewCatalog()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog.Close() })
	if err := catalog.IndexAll(registry.List()); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	client, err := elastic.NewClient(elastic.Config{
		URL:     cfg.Elasticsearch.URL,
		APIKey:  cfg.Elasticsearch.APIKey,
		Timeout: cfg.Elasticsearch.Timeout,
	}, elastic.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	engine := search.NewEngine(registry, client, &cfg.Elasticsearch, search.WithLogger(logger))
	srv := server.NewServer(engine, registry, catalog, store, client, cfg, logger)

	api := httptest.NewServer(srv.Router())
	t.Cleanup(api.Close)
	return &stack{api: api, cluster: c}
}

func (s *stack) do(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.api.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return res.StatusCode
}

// An example loaded for another dataset is retargeted, run, and graded.
func TestE2E_ExampleRetargetRunChallenge(t *testing.T) {
	s := newStack(t, 2)

	var example struct {
		Query   string         `json:"query"`
		Dataset models.Dataset `json:"dataset"`
	}
	if code := s.do(t, http.MethodGet, "/api/v1/labs/match/examples/example_1?dataset=product_reviews", nil, &example); code != http.StatusOK {
		t.Fatalf("get example: status %d", code)
	}
	field, ok := querydsl.ExtractField(jsonv.MustParse(example.Query), "")
	if !ok || field != "review_title" {
		t.Fatalf("example field = %q, %v; want review_title", field, ok)
	}

	var run models.RunResult
	code := s.do(t, http.MethodPost, "/api/v1/labs/match/run", map[string]interface{}{
		"query":    `{"query":{"match":{"product_name":"wireless"}}}`,
		"dataset":  "product_reviews",
		"retarget": true,
	}, &run)
	if code != http.StatusOK {
		t.Fatalf("run: status %d", code)
	}
	if !run.Retargeted || run.Field != "review_title" || run.Type != string(querydsl.Match) {
		t.Errorf("run = retargeted %v type %q field %q", run.Retargeted, run.Type, run.Field)
	}
	if run.Response == nil || len(run.Response.Hits.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %+v", run.Response)
	}

	calls := s.cluster.searches()
	if len(calls) != 1 || calls[0].path != "/product_reviews/_search" {
		t.Fatalf("search calls = %+v", calls)
	}
	sent := jsonv.MustParse(calls[0].body)
	want := jsonv.MustParse(`{"query":{"match":{"review_title":"comfortable"}}}`)
	if !jsonv.Equal(sent, want) {
		t.Errorf("sent %s, want %s", calls[0].body, jsonv.Marshal(want))
	}

	var status models.ChallengeStatus
	s.do(t, http.MethodPost, "/api/v1/labs/match/challenge", map[string]interface{}{
		"query":   `{"query":{"match":{"review_text":{"query":"comfortable durable","operator":"and"}}}}`,
		"dataset": "product_reviews",
		"number":  2,
	}, &status)
	if !status.IsValid {
		t.Errorf("challenge 2 should pass: %+v", status)
	}

	s.do(t, http.MethodPost, "/api/v1/labs/match/challenge", map[string]interface{}{
		"query":   `{"query":{"match":{"review_text":"comfortable"}}}`,
		"dataset": "product_reviews",
		"number":  2,
	}, &status)
	if status.IsValid || status.Message != "Query is missing required elements" {
		t.Errorf("challenge without operator: %+v", status)
	}
}

// Introspection feeds a swap that the cluster then receives verbatim.
func TestE2E_IntrospectSwapRun(t *testing.T) {
	s := newStack(t, 1)
	query := `{"query":{"query_string":{"query":"wireless","default_field":"product_name"}}}`

	var report struct {
		Type       querydsl.Type `json:"type"`
		Field      string        `json:"field"`
		Classified bool          `json:"classified"`
		HasField   bool          `json:"has_field"`
	}
	s.do(t, http.MethodPost, "/api/v1/query/introspect", map[string]interface{}{"query": json.RawMessage(query)}, &report)
	if report.Type != querydsl.QueryString || report.Field != "product_name" || !report.HasField {
		t.Fatalf("introspect = %+v", report)
	}

	var swapped struct {
		Query   json.RawMessage `json:"query"`
		Changed bool            `json:"changed"`
	}
	s.do(t, http.MethodPost, "/api/v1/query/swap", map[string]interface{}{
		"query":     json.RawMessage(query),
		"old_field": report.Field,
		"new_field": "product_description",
		"new_value": "bluetooth",
	}, &swapped)
	if !swapped.Changed {
		t.Fatal("swap reported no change")
	}
	want := `{"query":{"query_string":{"query":"bluetooth","default_field":"product_description"}}}`
	if !jsonv.Equal(jsonv.MustParse(string(swapped.Query)), jsonv.MustParse(want)) {
		t.Fatalf("swap = %s, want %s", swapped.Query, want)
	}

	var run models.RunResult
	if code := s.do(t, http.MethodPost, "/api/v1/labs/query_string/run", map[string]interface{}{
		"query":   string(swapped.Query),
		"dataset": "products",
	}, &run); code != http.StatusOK {
		t.Fatalf("run: status %d", code)
	}
	calls := s.cluster.searches()
	if len(calls) != 1 || !jsonv.Equal(jsonv.MustParse(calls[0].body), jsonv.MustParse(want)) {
		t.Fatalf("search calls = %+v", calls)
	}
}

// Examples failing against an empty cluster are reported, not errored.
func TestE2E_ValidateExamples(t *testing.T) {
	s := newStack(t, 0)
	var report models.ExampleReport
	if code := s.do(t, http.MethodPost, "/api/v1/labs/term/validate", nil, &report); code != http.StatusOK {
		t.Fatalf("validate: status %d", code)
	}
	if len(report.Results) == 0 {
		t.Fatal("no examples checked")
	}
	for _, c := range report.Results {
		if c.Valid {
			t.Errorf("%s/%s should fail on an empty cluster", c.ExampleID, c.Dataset)
		}
	}
}

// The editor text of a session survives between requests.
func TestE2E_SessionState(t *testing.T) {
	s := newStack(t, 0)

	var created map[string]string
	if code := s.do(t, http.MethodPost, "/api/v1/sessions", nil, &created); code != http.StatusCreated {
		t.Fatalf("new session: status %d", code)
	}
	sid := created["session_id"]
	if sid == "" {
		t.Fatal("empty session id")
	}

	path := "/api/v1/sessions/" + sid + "/states/match/example_1/products"
	text := `{"query":{"match":{"product_name":"headphones"}}}`
	if code := s.do(t, http.MethodPut, path, map[string]string{"query_text": text}, nil); code != http.StatusOK {
		t.Fatalf("put state: status %d", code)
	}

	var st models.EditorState
	if code := s.do(t, http.MethodGet, path, nil, &st); code != http.StatusOK {
		t.Fatalf("get state: status %d", code)
	}
	if st.QueryText != text || st.Dataset != models.Products {
		t.Errorf("state = %+v", st)
	}

	if code := s.do(t, http.MethodDelete, "/api/v1/sessions/"+sid, nil, nil); code != http.StatusOK && code != http.StatusNoContent {
		t.Fatalf("delete session: status %d", code)
	}
	if code := s.do(t, http.MethodGet, path, nil, nil); code != http.StatusNotFound {
		t.Errorf("state after delete: status %d", code)
	}
}

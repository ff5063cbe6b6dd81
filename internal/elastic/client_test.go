package elastic

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method, path, query, auth, body string
}

type requestLog struct {
	mu   sync.Mutex
	reqs []recorded
}

func (l *requestLog) all() []recorded {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recorded(nil), l.reqs...)
}

// fakeCluster answers like an Elasticsearch 7.17 node and records every
// request except the client's product check.
func fakeCluster(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *requestLog) {
	t.Helper()
	log := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet && r.URL.Path == "/" {
			_, _ = io.WriteString(w, `{"version":{"number":"7.17.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		log.mu.Lock()
		log.reqs = append(log.reqs, recorded{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization"), string(body)})
		log.mu.Unlock()
		handle(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

func newTestClient(t *testing.T, url string) Client {
	t.Helper()
	c, err := NewClient(Config{URL: url, APIKey: "secret"})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{URL: "http://localhost:9200"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSearch(t *testing.T) {
	srv, reqs := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"took":3,"timed_out":false,"hits":{"total":{"value":2,"relation":"eq"},"max_score":1.5,
			"hits":[{"_index":"products","_id":"p1","_score":1.5,"_source":{"product_name":"Wireless Mouse"}},
			        {"_index":"products","_id":"p2","_score":0.7,"_source":{"product_name":"Wireless Keyboard"}}]}}`)
	})
	c := newTestClient(t, srv.URL)

	body := `{"query":{"match":{"product_name":"wireless"}}}`
	resp, err := c.Search(context.Background(), "products", []byte(body), 5)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Took)
	assert.Equal(t, 2, resp.Hits.Total.Value)
	assert.Equal(t, []string{"p1", "p2"}, resp.IDs())
	assert.JSONEq(t, `{"product_name":"Wireless Mouse"}`, string(resp.Hits.Hits[0].Source))

	require.Len(t, reqs.all(), 1)
	got := reqs.all()[0]
	assert.Equal(t, "/products/_search", got.path)
	assert.Contains(t, got.query, "size=5")
	assert.Equal(t, "ApiKey secret", got.auth)
	assert.Equal(t, body, got.body)
}

func TestSearch_ErrorResponse(t *testing.T) {
	srv, _ := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"root_cause":[{"type":"parsing_exception","reason":"unknown query [mach]"}],"type":"parsing_exception","reason":"unknown query [mach]"},"status":400}`)
	})
	c := newTestClient(t, srv.URL)

	_, err := c.Search(context.Background(), "products", []byte(`{"query":{"mach":{}}}`), 0)
	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	assert.Equal(t, "unknown query [mach]", re.Reason())
	assert.Contains(t, err.Error(), "400")
}

func TestResponseError_Reason(t *testing.T) {
	assert.Equal(t, "boom", (&ResponseError{Body: []byte(`{"error":"boom"}`)}).Reason())
	assert.Equal(t, "plain text", (&ResponseError{Body: []byte("plain text\n")}).Reason())
	assert.Equal(t, "r", (&ResponseError{Body: []byte(`{"error":{"reason":"r"}}`)}).Reason())
}

func TestAnalyzeAndExplain(t *testing.T) {
	srv, reqs := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/_analyze"):
			_, _ = io.WriteString(w, `{"tokens":[{"token":"wireless","start_offset":0,"end_offset":8,"type":"<ALPHANUM>","position":0}]}`)
		case strings.Contains(r.URL.Path, "/_explain/"):
			_, _ = io.WriteString(w, `{"_index":"products","_id":"p1","matched":true,"explanation":{"value":1.2,"description":"weight(product_name:wireless)","details":[{"value":2.2,"description":"idf"}]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := newTestClient(t, srv.URL)

	an, err := c.Analyze(context.Background(), "products", []byte(`{"analyzer":"standard","text":"Wireless"}`))
	require.NoError(t, err)
	require.Len(t, an.Tokens, 1)
	assert.Equal(t, "wireless", an.Tokens[0].Token)

	ex, err := c.Explain(context.Background(), "products", "p1", []byte(`{"query":{"match":{"product_name":"wireless"}}}`))
	require.NoError(t, err)
	assert.True(t, ex.Matched)
	assert.Equal(t, 1.2, ex.Explanation.Value)
	require.Len(t, ex.Explanation.Details, 1)

	assert.Equal(t, "/products/_analyze", reqs.all()[0].path)
	assert.Equal(t, "/products/_explain/p1", reqs.all()[1].path)
}

func TestESQL(t *testing.T) {
	srv, reqs := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"columns":[{"name":"product_name","type":"text"},{"name":"product_price","type":"double"}],"values":[["Mouse",19.99],["Keyboard",49.5]]}`)
	})
	c := newTestClient(t, srv.URL)

	out, err := c.ESQL(context.Background(), "FROM products | LIMIT 2")
	require.NoError(t, err)
	require.Len(t, out.Columns, 2)
	require.Len(t, out.Values, 2)
	assert.Equal(t, "product_price", out.Columns[1].Name)
	assert.Equal(t, `19.99`, string(out.Values[0][1]))

	got := reqs.all()[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/_query", got.path)
	assert.JSONEq(t, `{"query":"FROM products | LIMIT 2"}`, got.body)
}

func TestESQL_Error(t *testing.T) {
	srv, _ := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"verification_exception","reason":"Unknown column [nope]"}}`)
	})
	c := newTestClient(t, srv.URL)

	_, err := c.ESQL(context.Background(), "FROM products | KEEP nope")
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Unknown column [nope]", re.Reason())
}

func TestDo_ForwardsRequest(t *testing.T) {
	srv, reqs := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"ok":true}`)
	})
	c := newTestClient(t, srv.URL)

	res, err := c.Do(context.Background(), http.MethodPut, "products/_doc/1", "refresh=true", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	got := reqs.all()[0]
	assert.Equal(t, recorded{http.MethodPut, "/products/_doc/1", "refresh=true", "ApiKey secret", `{"a":1}`}, got)
}

func TestPing(t *testing.T) {
	srv, _ := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(t, srv.URL)
	assert.NoError(t, c.Ping(context.Background()))
}

// Package elastic talks to the Elasticsearch cluster that hosts the lab datasets.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/hyperjump/querylab/internal/models"
)

const defaultTimeout = 30 * time.Second

// ErrNoAPIKey is returned by NewClient when no API key is configured.
var ErrNoAPIKey = errors.New("elasticsearch API key is not configured")

// Client exposes the Elasticsearch operations the labs need.
type Client interface {
	Search(ctx context.Context, index string, body []byte, size int) (*models.SearchResponse, error)
	Analyze(ctx context.Context, index string, body []byte) (*models.AnalyzeResponse, error)
	Explain(ctx context.Context, index, id string, body []byte) (*models.ExplainResponse, error)
	ESQL(ctx context.Context, query string) (*models.ESQLResponse, error)
	// Do forwards a raw request. The caller must close the response body.
	Do(ctx context.Context, method, path, rawQuery string, body io.Reader) (*http.Response, error)
	Ping(ctx context.Context) error
}

// ResponseError is a non-2xx answer from the cluster.
type ResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("elasticsearch returned %d: %s", e.StatusCode, e.Reason())
}

// Reason extracts the error reason from the response body, falling back to the raw body.
func (e *ResponseError) Reason() string {
	for _, path := range []string{"error.root_cause.0.reason", "error.reason", "error"} {
		if r := gjson.GetBytes(e.Body, path); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return strings.TrimSpace(string(e.Body))
}

// Config configures a client.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	// Transport replaces the default HTTP transport, e.g. in tests.
	Transport http.RoundTripper
}

// ClientOption configures a client.
type ClientOption func(*client)

// WithLogger sets a logger for request debugging.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *client) { c.logger = l }
}

// client is a wrapper for the ES library client.
type client struct {
	*es7.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient returns a client for cfg.URL authenticated with cfg.APIKey.
func NewClient(cfg Config, opts ...ClientOption) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: cfg.Timeout,
		}
	}
	esClient, err := es7.NewClient(es7.Config{
		Addresses: []string{cfg.URL},
		APIKey:    cfg.APIKey,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	c := &client{Client: esClient, timeout: cfg.Timeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) Search(ctx context.Context, index string, body []byte, size int) (*models.SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	opts := []func(*esapi.SearchRequest){
		c.Client.Search.WithContext(ctx),
		c.Client.Search.WithIndex(index),
		c.Client.Search.WithBody(bytes.NewReader(body)),
	}
	if size > 0 {
		opts = append(opts, c.Client.Search.WithSize(size))
	}
	res, err := c.Client.Search(opts...)
	if err != nil {
		return nil, err
	}
	var out models.SearchResponse
	if err := c.decode(res, &out); err != nil {
		return nil, err
	}
	c.logger.Debug("search", zap.String("index", index), zap.Int("hits", len(out.Hits.Hits)), zap.Int("took_ms", out.Took))
	return &out, nil
}

func (c *client) Analyze(ctx context.Context, index string, body []byte) (*models.AnalyzeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	analyze := c.Client.Indices.Analyze
	opts := []func(*esapi.IndicesAnalyzeRequest){
		analyze.WithContext(ctx),
		analyze.WithBody(bytes.NewReader(body)),
	}
	if index != "" {
		opts = append(opts, analyze.WithIndex(index))
	}
	res, err := analyze(opts...)
	if err != nil {
		return nil, err
	}
	var out models.AnalyzeResponse
	if err := c.decode(res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Explain(ctx context.Context, index, id string, body []byte) (*models.ExplainResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	explain := c.Client.Explain
	res, err := explain(index, id, explain.WithContext(ctx), explain.WithBody(bytes.NewReader(body)))
	if err != nil {
		return nil, err
	}
	var out models.ExplainResponse
	if err := c.decode(res, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ESQL runs an ES|QL query through the _query endpoint, which the v7 API
// does not wrap.
func (c *client) ESQL(ctx context.Context, query string) (*models.ESQLResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/_query", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	res, err := c.Perform(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &ResponseError{StatusCode: res.StatusCode, Body: data}
	}
	var out models.ESQLResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode ES|QL response: %w", err)
	}
	return &out, nil
}

func (c *client) Do(ctx context.Context, method, path, rawQuery string, body io.Reader) (*http.Response, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = rawQuery
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	c.logger.Debug("proxy request", zap.String("method", method), zap.String("path", path))
	return c.Perform(req)
}

func (c *client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return &ResponseError{StatusCode: res.StatusCode}
	}
	return nil
}

func (c *client) decode(res *esapi.Response, into interface{}) error {
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.IsError() {
		return &ResponseError{StatusCode: res.StatusCode, Body: data}
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Package search runs lab queries against Elasticsearch.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/querylab/internal/config"
	"github.com/hyperjump/querylab/internal/elastic"
	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/labs"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/querydsl"
	"github.com/hyperjump/querylab/internal/validation"
)

var (
	// ErrInvalidQuery is returned for query text that cannot be run.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrLabNotFound is returned for an unknown lab or example.
	ErrLabNotFound = labs.ErrNotFound
	// ErrNoBackend is returned when no Elasticsearch client is configured.
	ErrNoBackend = errors.New("elasticsearch is not configured")
)

// validationSize is the number of hits requested when validating examples.
const validationSize = 100

// Engine runs lab queries.
type Engine struct {
	labs         *labs.Registry
	client       elastic.Client
	defaultIndex models.Dataset
	logger       *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for query events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine. client may be nil, in which case every
// operation that needs the cluster fails with ErrNoBackend.
func NewEngine(registry *labs.Registry, client elastic.Client, cfg *config.ElasticsearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		labs:         registry,
		client:       client,
		defaultIndex: models.Dataset(cfg.DefaultIndex),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasBackend reports whether a cluster client is configured.
func (e *Engine) HasBackend() bool { return e.client != nil }

func (e *Engine) lab(id string) (*models.LabConfig, error) {
	lab, ok := e.labs.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLabNotFound, id)
	}
	return lab, nil
}

// dataset picks the request's dataset, then the example's own, then the default.
func (e *Engine) dataset(lab *models.LabConfig, req *models.RunRequest) models.Dataset {
	if req.Dataset != "" {
		return req.Dataset
	}
	if ex, ok := lab.Example(req.ExampleID); ok {
		return ex.Index
	}
	return e.defaultIndex
}

// Run executes a lab query. Query DSL text is parsed, validated and, when
// requested, retargeted to the dataset before it is sent. ES|QL text is sent
// as is.
func (e *Engine) Run(ctx context.Context, req *models.RunRequest) (*models.RunResult, error) {
	startTime := time.Now()
	if err := ProcessRequest(req); err != nil {
		return nil, err
	}
	lab, err := e.lab(req.LabID)
	if err != nil {
		return nil, err
	}
	result := &models.RunResult{
		LabID:   lab.ID,
		Dataset: e.dataset(lab, req),
		Query:   req.Query,
	}

	if lab.IsESQL() {
		if e.client == nil {
			return nil, ErrNoBackend
		}
		out, err := e.client.ESQL(ctx, req.Query)
		if err != nil {
			return nil, fmt.Errorf("ES|QL query failed: %w", err)
		}
		result.ESQL = out
		result.QueryTime = time.Since(startTime).Milliseconds()
		return result, nil
	}

	q, err := ParseQuery(req.Query)
	if err != nil {
		return nil, err
	}
	if req.Retarget {
		res := labs.Retarget(lab, q, result.Dataset)
		if res.Changed {
			q = res.Query
			result.Query = string(jsonv.MarshalIndent(q, "", "  "))
			result.Retargeted = true
		}
	}
	report := querydsl.Inspect(q, "")
	result.Type = string(report.Type)
	result.Field = report.Field

	if e.client == nil {
		return nil, ErrNoBackend
	}
	resp, err := e.client.Search(ctx, string(result.Dataset), jsonv.Marshal(q), req.Size)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	result.Response = resp
	result.QueryTime = time.Since(startTime).Milliseconds()
	e.logger.Debug("lab query",
		zap.String("lab", lab.ID),
		zap.String("dataset", string(result.Dataset)),
		zap.String("type", result.Type),
		zap.String("field", result.Field),
		zap.Int("hits", len(resp.Hits.Hits)),
		zap.Int64("query_time_ms", result.QueryTime))
	return result, nil
}

// Challenge runs the attempt and grades it. Query text that cannot be run is
// graded rather than returned as an error; cluster failures are returned.
func (e *Engine) Challenge(ctx context.Context, req *models.ChallengeRequest) (models.ChallengeStatus, error) {
	if err := req.Validate(); err != nil {
		return models.ChallengeStatus{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	lab, err := e.lab(req.LabID)
	if err != nil {
		return models.ChallengeStatus{}, err
	}
	var resp *models.SearchResponse
	result, err := e.Run(ctx, &req.RunRequest)
	switch {
	case errors.Is(err, ErrInvalidQuery):
	case err != nil:
		return models.ChallengeStatus{}, err
	default:
		resp = result.Response
		// An ES|QL run has no hits; it still counts as having run.
		if resp == nil && result.ESQL != nil {
			resp = &models.SearchResponse{}
		}
	}
	return validation.ValidateChallenge(req.Query, resp, req.Number, lab), nil
}

// Analyze runs the _analyze API on index.
func (e *Engine) Analyze(ctx context.Context, index string, body []byte) (*models.AnalyzeResponse, error) {
	if e.client == nil {
		return nil, ErrNoBackend
	}
	return e.client.Analyze(ctx, index, body)
}

// Explain explains how document id scores against the query in body.
func (e *Engine) Explain(ctx context.Context, index, id string, body []byte) (*models.ExplainResponse, error) {
	if e.client == nil {
		return nil, ErrNoBackend
	}
	if _, err := ParseQuery(string(body)); err != nil {
		return nil, err
	}
	return e.client.Explain(ctx, index, id, body)
}

// ValidateExamples runs every example of a lab on each dataset it has a
// template for. An example is valid when it runs and matches something.
func (e *Engine) ValidateExamples(ctx context.Context, labID string) (*models.ExampleReport, error) {
	lab, err := e.lab(labID)
	if err != nil {
		return nil, err
	}
	if e.client == nil {
		return nil, ErrNoBackend
	}
	report := &models.ExampleReport{Results: []models.ExampleCheck{}}
	for i := range lab.Examples {
		ex := &lab.Examples[i]
		for _, d := range exampleDatasets(ex) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			check := e.checkExample(ctx, lab, ex, d)
			report.Results = append(report.Results, check)
			report.Total++
			if check.Valid {
				report.Valid++
			} else {
				report.Invalid++
			}
		}
	}
	e.logger.Info("validated lab examples",
		zap.String("lab", lab.ID), zap.Int("total", report.Total), zap.Int("invalid", report.Invalid))
	return report, nil
}

func exampleDatasets(ex *models.QueryExample) []models.Dataset {
	if ex.Template.Shared() {
		return []models.Dataset{ex.Index}
	}
	var out []models.Dataset
	for _, d := range models.Datasets {
		if _, ok := ex.Template.For(d); ok {
			out = append(out, d)
		}
	}
	return out
}

func (e *Engine) checkExample(ctx context.Context, lab *models.LabConfig, ex *models.QueryExample, d models.Dataset) models.ExampleCheck {
	check := models.ExampleCheck{LabID: lab.ID, ExampleID: ex.ID, Dataset: d}
	text, err := labs.ExampleQuery(lab, ex, d)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	result, err := e.Run(ctx, &models.RunRequest{
		LabID: lab.ID, ExampleID: ex.ID, Dataset: d, Query: text, Size: validationSize,
	})
	if err != nil {
		check.Error = err.Error()
		return check
	}
	if result.Response != nil {
		check.Count = result.Response.Hits.Total.Value
	} else {
		check.Count = result.Count()
	}
	if check.Count == 0 {
		if lab.IsESQL() {
			check.Error = "Query returned 0 rows"
		} else {
			check.Error = "Query returned 0 hits"
		}
		return check
	}
	check.Valid = true
	return check
}

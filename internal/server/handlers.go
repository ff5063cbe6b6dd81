package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/querylab/internal/elastic"
	"github.com/hyperjump/querylab/internal/jsonv"
	"github.com/hyperjump/querylab/internal/keyword"
	"github.com/hyperjump/querylab/internal/labs"
	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/querydsl"
	"github.com/hyperjump/querylab/internal/search"
	"github.com/hyperjump/querylab/internal/storage"
)

const maxCatalogLimit = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"elasticsearch_url": s.config.Elasticsearch.URL,
		"has_apikey":        s.config.Elasticsearch.HasAPIKey(),
	})
}

func (s *Server) lab(w http.ResponseWriter, r *http.Request) (*models.LabConfig, bool) {
	id := chi.URLParam(r, "id")
	lab, ok := s.labs.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "lab not found: "+id)
		return nil, false
	}
	return lab, true
}

func (s *Server) handleListLabs(w http.ResponseWriter, r *http.Request) {
	list := s.labs.List()
	summaries := make([]models.LabSummary, len(list))
	for i, lab := range list {
		summaries[i] = lab.Summary()
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"labs":   summaries,
		"active": s.config.Labs.Active,
	})
}

func (s *Server) handleGetLab(w http.ResponseWriter, r *http.Request) {
	lab, ok := s.lab(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, lab)
}

type exampleResponse struct {
	LabID     string         `json:"lab_id"`
	ExampleID string         `json:"example_id"`
	Dataset   models.Dataset `json:"dataset"`
	Query     string         `json:"query"`
}

func (s *Server) handleGetExample(w http.ResponseWriter, r *http.Request) {
	lab, ok := s.lab(w, r)
	if !ok {
		return
	}
	ex, ok := lab.Example(chi.URLParam(r, "exampleID"))
	if !ok {
		s.respondError(w, http.StatusNotFound, "example not found")
		return
	}
	dataset := ex.Index
	if d := r.URL.Query().Get("dataset"); d != "" {
		var err error
		if dataset, err = models.ParseDataset(d); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	text, err := labs.ExampleQuery(lab, ex, dataset)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, exampleResponse{LabID: lab.ID, ExampleID: ex.ID, Dataset: dataset, Query: text})
}

type retargetRequest struct {
	Query   string         `json:"query"`
	Dataset models.Dataset `json:"dataset"`
}

type retargetResponse struct {
	Query       string         `json:"query"`
	Changed     bool           `json:"changed"`
	Type        querydsl.Type  `json:"type,omitempty"`
	OldField    string         `json:"old_field,omitempty"`
	NewField    string         `json:"new_field,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Dataset     models.Dataset `json:"dataset"`
}

func (s *Server) handleRetarget(w http.ResponseWriter, r *http.Request) {
	lab, ok := s.lab(w, r)
	if !ok {
		return
	}
	var req retargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Dataset.Valid() {
		s.respondError(w, http.StatusBadRequest, "unknown dataset: "+string(req.Dataset))
		return
	}
	text, res, err := labs.RetargetText(lab, req.Query, req.Dataset)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, retargetResponse{
		Query:       text,
		Changed:     res.Changed,
		Type:        res.Type,
		OldField:    res.OldField,
		NewField:    res.NewField,
		Suggestions: res.Suggestions,
		Dataset:     req.Dataset,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req models.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.LabID = chi.URLParam(r, "id")
	s.logger.Debug("run request", zap.String("lab", req.LabID), zap.String("dataset", string(req.Dataset)), zap.Bool("retarget", req.Retarget))
	result, err := s.engine.Run(r.Context(), &req)
	if err != nil {
		s.respondEngineError(w, "run failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.LabID = chi.URLParam(r, "id")
	status, err := s.engine.Challenge(r.Context(), &req)
	if err != nil {
		s.respondEngineError(w, "challenge failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleValidateExamples(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.ValidateExamples(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondEngineError(w, "example validation failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

type catalogResponse struct {
	Query      string                `json:"query"`
	Hits       []*keyword.CatalogHit `json:"hits"`
	DidYouMean string                `json:"did_you_mean,omitempty"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("q")
	limit := 10
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxCatalogLimit)
	}
	opts := &keyword.SearchOptions{
		LabID:      q.Get("lab"),
		TitleBoost: 2,
		Fuzzy:      q.Get("fuzzy") == "true",
	}
	hits, err := s.catalog.Search(r.Context(), text, limit, opts)
	if err != nil {
		s.logger.Error("catalog search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := catalogResponse{Query: text, Hits: hits}
	if len(hits) == 0 {
		if suggestion, ok := s.catalog.DidYouMean(text); ok {
			resp.DidYouMean = suggestion
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// decodeQuery accepts a query as a JSON object or as JSON text in a string.
func decodeQuery(raw json.RawMessage) (jsonv.Value, error) {
	if len(raw) == 0 {
		return nil, errors.New("query is required")
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return jsonv.ParseString(text)
	}
	return jsonv.Parse(raw)
}

type introspectRequest struct {
	Query json.RawMessage `json:"query"`
	Type  querydsl.Type   `json:"type,omitempty"`
	LabID string          `json:"lab_id,omitempty"`
}

type introspectResponse struct {
	Type        querydsl.Type `json:"type,omitempty"`
	Field       string        `json:"field,omitempty"`
	Classified  bool          `json:"classified"`
	HasField    bool          `json:"has_field"`
	KnownType   bool          `json:"known_type"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	var req introspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := decodeQuery(req.Query)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	report := querydsl.Inspect(q, req.Type)
	resp := introspectResponse{
		Type:       report.Type,
		Field:      report.Field,
		Classified: report.Classified(),
		HasField:   report.HasField(),
		KnownType:  report.Type.Known(),
	}
	if req.LabID != "" && report.HasField() {
		lab, ok := s.labs.Get(req.LabID)
		if !ok {
			s.respondError(w, http.StatusNotFound, "lab not found: "+req.LabID)
			return
		}
		resp.Suggestions = labs.SuggestFields(lab, report.Field)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type swapRequest struct {
	Query    json.RawMessage `json:"query"`
	OldField string          `json:"old_field"`
	NewField string          `json:"new_field"`
	NewValue json.RawMessage `json:"new_value"`
	Type     querydsl.Type   `json:"type,omitempty"`
}

type swapResponse struct {
	Query   jsonv.Value `json:"query"`
	Changed bool        `json:"changed"`
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := decodeQuery(req.Query)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.NewField == "" {
		s.respondError(w, http.StatusBadRequest, "new_field is required")
		return
	}
	if len(req.NewValue) == 0 {
		s.respondError(w, http.StatusBadRequest, "new_value is required")
		return
	}
	newValue, err := jsonv.Parse(req.NewValue)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid new_value: "+err.Error())
		return
	}
	out := querydsl.SwapField(q, req.OldField, req.NewField, newValue, req.Type)
	s.respondJSON(w, http.StatusOK, swapResponse{Query: out, Changed: !jsonv.Equal(q, out)})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !json.Valid(body) {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.engine.Analyze(r.Context(), r.URL.Query().Get("index"), body)
	if err != nil {
		s.respondEngineError(w, "analyze failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	index, id := q.Get("index"), q.Get("id")
	if index == "" || id == "" {
		s.respondError(w, http.StatusBadRequest, "index and id are required")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	resp, err := s.engine.Explain(r.Context(), index, id, body)
	if err != nil {
		s.respondEngineError(w, "explain failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.storage.CountSessions(ctx)
	if err != nil {
		s.logger.Error("status: count sessions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	states, err := s.storage.CountStates(ctx)
	if err != nil {
		s.logger.Error("status: count editor states failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	docs, err := s.catalog.DocCount()
	if err != nil {
		s.logger.Error("status: catalog count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"labs":              s.labs.Len(),
		"catalog_documents": docs,
		"sessions":          sessions,
		"editor_states":     states,
		"elasticsearch": map[string]interface{}{
			"url":           s.config.Elasticsearch.URL,
			"has_apikey":    s.config.Elasticsearch.HasAPIKey(),
			"default_index": s.config.Elasticsearch.DefaultIndex,
		},
		"config": map[string]interface{}{
			"labs_directory": s.config.Labs.Directory,
			"watch_labs":     s.config.Labs.WatchOrDefault(),
			"active_lab":     s.config.Labs.Active,
			"database_path":  s.config.Storage.DatabasePath,
		},
	}
	if n, err := storage.DiskUsageBytes(storage.DatabaseFiles(s.config.Storage.DatabasePath)...); err == nil {
		resp["disk_usage_bytes"] = n
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondEngineError maps engine and cluster errors to HTTP statuses.
func (s *Server) respondEngineError(w http.ResponseWriter, msg string, err error) {
	var respErr *elastic.ResponseError
	var urlErr *url.Error
	switch {
	case errors.Is(err, search.ErrInvalidQuery):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrLabNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &respErr):
		s.logger.Warn(msg, zap.Int("status", respErr.StatusCode), zap.String("reason", respErr.Reason()))
		s.respondError(w, http.StatusBadGateway, respErr.Reason())
	case errors.As(err, &urlErr):
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}

package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// hopHeaders are not copied from a proxied response.
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Content-Encoding":  true,
	"Content-Length":    true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
}

// handleProxy forwards /api/elasticsearch/<path> to the cluster with the
// server's credentials, so the browser never sees the API key.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	if !s.config.Elasticsearch.HasAPIKey() || s.client == nil {
		s.respondError(w, http.StatusInternalServerError, "ELASTICSEARCH_APIKEY is not configured")
		return
	}
	path := "/" + chi.URLParam(r, "*")
	var body io.Reader
	if r.ContentLength != 0 {
		body = r.Body
	}
	resp, err := s.client.Do(r.Context(), r.Method, path, r.URL.RawQuery, body)
	if err != nil {
		s.logger.Error("proxy request failed", zap.String("method", r.Method), zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "failed to reach elasticsearch: "+err.Error())
		return
	}
	defer resp.Body.Close()

	for k, vs := range resp.Header {
		if hopHeaders[http.CanonicalHeaderKey(k)] {
			continue
		}
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Debug("proxy copy interrupted", zap.Error(err))
	}
}

func (s *Server) indexFile() (string, bool) {
	if s.config.Server.StaticDir == "" {
		return "", false
	}
	path := filepath.Join(s.config.Server.StaticDir, "index.html")
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// handleIndex serves the UI bundle, or a JSON hint when it has not been built.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	path, ok := s.indexFile()
	if !ok {
		s.respondJSON(w, http.StatusOK, map[string]string{
			"message": "UI bundle not found; the API is served under /api/v1",
			"health":  "/health",
		})
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) staticHandler() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.Dir(s.config.Server.StaticDir)))
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/querylab/internal/models"
	"github.com/hyperjump/querylab/internal/storage"
)

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.storage.NewSession(r.Context())
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleListStates(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	ok, err := s.storage.SessionExists(r.Context(), sid)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	states, err := s.storage.ListStates(r.Context(), sid)
	if err != nil {
		s.logger.Error("list editor states failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"session_id": sid, "states": states})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	n, err := s.storage.DeleteSession(r.Context(), sid)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("delete session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"status": "deleted", "states_removed": n})
}

// stateKey reads and checks the editor-state key from the URL. The lab and
// example must exist.
func (s *Server) stateKey(w http.ResponseWriter, r *http.Request) (models.EditorState, bool) {
	key := models.EditorState{
		SessionID: chi.URLParam(r, "sid"),
		LabID:     chi.URLParam(r, "labID"),
		ExampleID: chi.URLParam(r, "exampleID"),
	}
	d, err := models.ParseDataset(chi.URLParam(r, "dataset"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return key, false
	}
	key.Dataset = d
	lab, ok := s.labs.Get(key.LabID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "lab not found: "+key.LabID)
		return key, false
	}
	if _, ok := lab.Example(key.ExampleID); !ok {
		s.respondError(w, http.StatusNotFound, "example not found: "+key.ExampleID)
		return key, false
	}
	return key, true
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	key, ok := s.stateKey(w, r)
	if !ok {
		return
	}
	st, err := s.storage.GetState(r.Context(), key.SessionID, key.LabID, key.ExampleID, key.Dataset)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "editor state not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	key, ok := s.stateKey(w, r)
	if !ok {
		return
	}
	var body struct {
		QueryText string `json:"query_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key.QueryText = body.QueryText
	if err := s.storage.SaveState(r.Context(), &key); err != nil {
		if errors.Is(err, storage.ErrInvalidState) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("save editor state failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, key)
}

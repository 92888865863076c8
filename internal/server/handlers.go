package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/search"
	"github.com/hyperjump/sakuin/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	searchID := uuid.New().String()
	s.logger.Debug("search request",
		zap.String("search_id", searchID),
		zap.String("query", query.Query),
		zap.Int("limit", query.Limit),
	)
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, search.ErrNoIndex):
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("search failed", zap.String("search_id", searchID), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.logger.Debug("search completed",
		zap.String("search_id", searchID),
		zap.Int("results", len(response.Results)),
	)
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.respondError(w, http.StatusBadRequest, "missing id parameter")
		return
	}
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc")
	if docID == "" {
		s.respondError(w, http.StatusBadRequest, "missing doc parameter")
		return
	}
	ord, err := strconv.Atoi(r.URL.Query().Get("ord"))
	if err != nil || ord < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid ord parameter")
		return
	}
	sec, err := s.storage.GetSection(r.Context(), docID, ord)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "section not found")
		return
	}
	s.respondJSON(w, http.StatusOK, sec)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("reindex requested")
	stats, err := s.indexer.Rebuild(r.Context(), s.cfg.Corpus.Directories)
	if err != nil {
		s.logger.Error("reindex failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": stats.Documents,
		"sections":  stats.Sections,
		"terms":     stats.Terms,
		"warnings":  stats.Warnings,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sectionCount, err := s.storage.CountSections(ctx)
	if err != nil {
		s.logger.Error("status: count sections failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents": docCount,
		"sections":  sectionCount,
	}
	if terms, _, _, ok := s.engine.IndexStats(); ok {
		resp["index_terms"] = terms
	}
	if diskBytes, err := storage.DiskUsageBytes(s.cfg.Storage.DatabasePath, s.cfg.Storage.SegmentPath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = map[string]interface{}{
		"database_path":       s.cfg.Storage.DatabasePath,
		"segment_path":        s.cfg.Storage.SegmentPath,
		"corpus_directories":  s.cfg.Corpus.Directories,
		"stopwords_enabled":   s.cfg.Search.StopwordsEnabled,
		"suggestions_enabled": s.cfg.Search.SuggestionsEnabled,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

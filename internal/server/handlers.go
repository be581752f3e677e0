package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/bookmarks"
	"github.com/hyperjump/shiori/internal/embedding"
	"github.com/hyperjump/shiori/internal/models"
)

// Messages returned with 503 responses.
const (
	MsgProviderUnconfigured = "embedding provider not configured or credential invalid"
	MsgProviderUnavailable  = "embedding provider unavailable"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Search.FloorLimit(queryInt(r, "limit", s.config.Search.DefaultLimit))
	query := models.SearchQuery{Query: r.URL.Query().Get("q"), Limit: limit}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondFailure(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response.Results)
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := s.bookmarks.List(r.Context(), queryInt(r, "offset", 0), queryInt(r, "limit", 0))
	if err != nil {
		s.respondFailure(w, "list bookmarks failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	list, err := s.bookmarks.Favorites(r.Context())
	if err != nil {
		s.respondFailure(w, "list favorites failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	var input models.BookmarkInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("create bookmark request", zap.String("title", input.Title), zap.String("url", input.URL))
	b, err := s.bookmarks.Create(r.Context(), &input)
	if err != nil {
		s.respondFailure(w, "create bookmark failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBookmark(w http.ResponseWriter, r *http.Request) {
	b, err := s.bookmarks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondFailure(w, "get bookmark failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBookmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch models.BookmarkPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("update bookmark request", zap.String("id", id))
	b, err := s.bookmarks.Update(r.Context(), id, &patch)
	if err != nil {
		s.respondFailure(w, "update bookmark failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete bookmark request", zap.String("id", id))
	if err := s.bookmarks.Delete(r.Context(), id); err != nil {
		s.respondFailure(w, "delete bookmark failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, true)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.setFavorite(w, r, false)
}

func (s *Server) setFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	b, err := s.bookmarks.SetFavorite(r.Context(), chi.URLParam(r, "id"), favorite)
	if err != nil {
		s.respondFailure(w, "set favorite failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := BuildStatus(r.Context(), s.config, s.bookmarks, s.embeddings, s.logger)
	if err != nil {
		s.respondFailure(w, "status failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

// respondFailure maps service errors onto HTTP statuses.
func (s *Server) respondFailure(w http.ResponseWriter, msg string, err error) {
	switch {
	case embedding.IsUnconfigured(err):
		s.logger.Warn(msg, zap.String("kind", embedding.Kind(err)), zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, MsgProviderUnconfigured)
	case embedding.IsUnavailable(err):
		s.logger.Warn(msg, zap.String("kind", embedding.Kind(err)), zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, MsgProviderUnavailable)
	case errors.Is(err, bookmarks.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "bookmark not found")
	case errors.Is(err, bookmarks.ErrTagNotFound):
		s.respondError(w, http.StatusNotFound, "tag not found")
	case errors.Is(err, bookmarks.ErrCollectionNotFound):
		s.respondError(w, http.StatusNotFound, "collection not found")
	case errors.Is(err, bookmarks.ErrAlreadyExists):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, bookmarks.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// pathID parses the numeric {id} route parameter. It writes a 400 response and returns false
// when the parameter is not a number.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// queryInt parses an integer query parameter, falling back to def when absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

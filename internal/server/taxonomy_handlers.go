package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/models"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.bookmarks.Tags(r.Context())
	if err != nil {
		s.respondFailure(w, "list tags failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var input models.TagInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("create tag request", zap.String("name", input.Name))
	t, err := s.bookmarks.CreateTag(r.Context(), &input)
	if err != nil {
		s.respondFailure(w, "create tag failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	t, err := s.bookmarks.GetTag(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "get tag failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var patch models.TagPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.bookmarks.UpdateTag(r.Context(), id, &patch)
	if err != nil {
		s.respondFailure(w, "update tag failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.bookmarks.DeleteTag(r.Context(), id); err != nil {
		s.respondFailure(w, "delete tag failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": "deleted"})
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.bookmarks.Collections(r.Context())
	if err != nil {
		s.respondFailure(w, "list collections failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, collections)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var input models.CollectionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("create collection request", zap.String("name", input.Name))
	c, err := s.bookmarks.CreateCollection(r.Context(), &input)
	if err != nil {
		s.respondFailure(w, "create collection failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	c, err := s.bookmarks.GetCollection(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "get collection failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleCollectionBookmarks(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	list, err := s.bookmarks.InCollection(r.Context(), id)
	if err != nil {
		s.respondFailure(w, "list collection bookmarks failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var patch models.CollectionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.bookmarks.UpdateCollection(r.Context(), id, &patch)
	if err != nil {
		s.respondFailure(w, "update collection failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.bookmarks.DeleteCollection(r.Context(), id); err != nil {
		s.respondFailure(w, "delete collection failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": "deleted"})
}

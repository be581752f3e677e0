package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/shiori/internal/bookmarks"
	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/embedding"
	"github.com/hyperjump/shiori/internal/lifecycle"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/search"
	"github.com/hyperjump/shiori/internal/storage"
	"github.com/hyperjump/shiori/internal/store"
	"github.com/hyperjump/shiori/internal/vector"
)

// switchableEmbedder delegates to the mock embedder unless an error is set.
type switchableEmbedder struct {
	mu    sync.Mutex
	inner *embedding.MockEmbedder
	err   error
	calls int
}

func (e *switchableEmbedder) Embed(ctx context.Context, text string) (vector.Vector, error) {
	e.mu.Lock()
	e.calls++
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return e.inner.Embed(ctx, text)
}

func (e *switchableEmbedder) Dimensions() int { return e.inner.Dimensions() }
func (e *switchableEmbedder) Close() error    { return nil }

func (e *switchableEmbedder) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

type testEnv struct {
	handler  http.Handler
	embedder *switchableEmbedder
	svc      *bookmarks.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "shiori.db")
	cfg.Embedding.Provider = config.ProviderMock
	cfg.Embedding.Dimensions = 16

	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	es, err := store.NewSQLiteStore(st.DB(), 16, nil)
	require.NoError(t, err)

	e := &switchableEmbedder{inner: embedding.NewMockEmbedder(16)}
	svc := bookmarks.NewService(st, lifecycle.NewManager(e, es))
	engine := search.NewEngine(search.NewRanker(e, es, nil), svc, &cfg.Search, nil)
	srv := NewServer(engine, svc, es, cfg, nil)
	return &testEnv{handler: srv.Router(), embedder: e, svc: svc}
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)
	return w
}

func (env *testEnv) create(t *testing.T, title, description string) *models.Bookmark {
	t.Helper()
	b, err := env.svc.Create(context.Background(), &models.BookmarkInput{
		Title: title, URL: "https://example.com/" + title, Description: description,
	})
	require.NoError(t, err)
	return b
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out["error"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestSearch_ReturnsRankedBookmarks(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "Go", "The Go programming language")
	env.create(t, "Bread", "Sourdough baking guide")
	target := env.create(t, "Rust", "Systems language")

	w := env.do(t, http.MethodGet, "/api/v1/bookmarks/search?q="+"Rust+Systems+language", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var results []*models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&results))
	require.Len(t, results, 3)
	assert.Equal(t, target.ID, results[0].ID)
	assert.NotContains(t, w.Body.String(), "score")
}

func TestSearch_EmptyQuery(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "Go", "The Go programming language")
	calls := env.embedder.calls

	w := env.do(t, http.MethodGet, "/api/v1/bookmarks/search?q=%20%20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	assert.Equal(t, calls, env.embedder.calls)
}

func TestSearch_LimitClamp(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 20; i++ {
		env.create(t, fmt.Sprintf("Item%d", i), "desc")
	}
	tests := []struct {
		query string
		want  int
	}{
		{"q=item", 15},
		{"q=item&limit=100", 15},
		{"q=item&limit=3", 3},
		{"q=item&limit=0", 1},
		{"q=item&limit=-4", 1},
		{"q=item&limit=abc", 15},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/bookmarks/search?"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			var results []*models.Bookmark
			require.NoError(t, json.NewDecoder(w.Body).Decode(&results))
			assert.Len(t, results, tt.want)
		})
	}
}

func TestSearch_ProviderFailuresMapTo503(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unconfigured", fmt.Errorf("%w: no API key configured", embedding.ErrAuthentication), MsgProviderUnconfigured},
		{"unavailable", fmt.Errorf("%w after 4 attempts: %w", embedding.ErrUnavailable, embedding.ErrRateLimited), MsgProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.create(t, "Go", "The Go programming language")
			env.embedder.fail(tt.err)

			w := env.do(t, http.MethodGet, "/api/v1/bookmarks/search?q=golang", nil)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, tt.want, decodeError(t, w))
		})
	}
}

func TestSearch_ProviderErrorIs500(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.fail(fmt.Errorf("%w: 400 bad request", embedding.ErrProvider))

	w := env.do(t, http.MethodGet, "/api/v1/bookmarks/search?q=golang", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBookmarkCRUD(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/bookmarks", models.BookmarkInput{
		Title: "Go", URL: "https://go.dev", Description: "The Go programming language",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	w = env.do(t, http.MethodGet, "/api/v1/bookmarks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	title := "Golang"
	w = env.do(t, http.MethodPut, "/api/v1/bookmarks/"+created.ID, models.BookmarkPatch{Title: &title})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&updated))
	assert.Equal(t, "Golang", updated.Title)

	w = env.do(t, http.MethodPost, "/api/v1/bookmarks/"+created.ID+"/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var favs []*models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&favs))
	assert.Len(t, favs, 1)
	w = env.do(t, http.MethodDelete, "/api/v1/bookmarks/"+created.ID+"/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/bookmarks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []*models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 1)

	w = env.do(t, http.MethodDelete, "/api/v1/bookmarks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/bookmarks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBookmark_Errors(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/bookmarks", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/bookmarks", models.BookmarkInput{Title: "Go"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "url is required")

	env.embedder.fail(fmt.Errorf("%w: 401", embedding.ErrAuthentication))
	w = env.do(t, http.MethodPost, "/api/v1/bookmarks", models.BookmarkInput{
		Title: "Go", URL: "https://go.dev", Description: "The Go programming language",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, MsgProviderUnconfigured, decodeError(t, w))

	n, err := env.svc.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	env.create(t, "Go", "The Go programming language")

	w := env.do(t, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.EqualValues(t, 1, status.Bookmarks)
	assert.Equal(t, 1, status.Embeddings)
	assert.Equal(t, "sqlite", status.EmbeddingBackend)
	assert.Equal(t, 16, status.Dimensions)
	assert.Positive(t, status.DiskUsageBytes)
}

func TestCreateBookmark_DuplicateIDConflicts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/bookmarks", models.BookmarkInput{
		ID: "fixed", Title: "Go", URL: "https://go.dev", Description: "The Go programming language",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/bookmarks", models.BookmarkInput{
		ID: "fixed", Title: "Bread", URL: "https://bread.example", Description: "Sourdough baking guide",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decodeError(t, w), "already exists")

	w = env.do(t, http.MethodGet, "/api/v1/bookmarks/search?q=Go+The+Go+programming+language", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var results []*models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, "fixed", results[0].ID)
	assert.Equal(t, "Go", results[0].Title)
}

func TestTagsAndCollections(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/tags", models.TagInput{Name: "golang"})
	require.Equal(t, http.StatusCreated, w.Code)
	var tag models.Tag
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tag))
	assert.Contains(t, bookmarks.DefaultColors, tag.Color)

	w = env.do(t, http.MethodPost, "/api/v1/tags", models.TagInput{Name: "golang"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/tags", models.TagInput{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/collections", models.CollectionInput{Name: "Reading", Icon: "rocket"})
	require.Equal(t, http.StatusCreated, w.Code)
	var col models.Collection
	require.NoError(t, json.NewDecoder(w.Body).Decode(&col))
	assert.Equal(t, "rocket", col.Icon)

	w = env.do(t, http.MethodPost, "/api/v1/bookmarks", models.BookmarkInput{
		Title: "Go", URL: "https://go.dev", Description: "The Go programming language",
		CollectionID: &col.ID, TagIDs: []int64{tag.ID, 77},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, []string{"golang"}, created.Tags)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/collections/%d", col.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&col))
	assert.Equal(t, 1, col.Count)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/collections/%d/bookmarks", col.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members []*models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&members))
	require.Len(t, members, 1)
	assert.Equal(t, created.ID, members[0].ID)

	name := "Books"
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/collections/%d", col.ID), models.CollectionPatch{Name: &name})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/tags", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tags []*models.Tag
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tags))
	require.Len(t, tags, 1)
	assert.Equal(t, 1, tags[0].Count)

	missing := int64(999)
	w = env.do(t, http.MethodPost, "/api/v1/bookmarks", models.BookmarkInput{
		Title: "Rust", URL: "https://rust-lang.org", Description: "Systems language", CollectionID: &missing,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/tags/%d", tag.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tags/%d", tag.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "tag not found", decodeError(t, w))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/collections/%d", col.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/collections/%d", col.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "collection not found", decodeError(t, w))

	w = env.do(t, http.MethodGet, "/api/v1/bookmarks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var kept models.Bookmark
	require.NoError(t, json.NewDecoder(w.Body).Decode(&kept))
	assert.Nil(t, kept.CollectionID)
	assert.Empty(t, kept.Tags)

	w = env.do(t, http.MethodGet, "/api/v1/tags/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/render"
	"github.com/mithrel/inkpad/pkg/api"
)

func newTestServer(t *testing.T) (*Server, *db.Store) {
	t.Helper()
	cfg := viper.New()
	cfg.Set("export.page_size", 200)
	cfg.Set("live.send_buffer", 64)
	cfg.Set("live.ping_interval", "30s")

	store, closer, err := db.Open(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })

	return New(cfg, store, render.New(), nil), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodGet, "/", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="editor"`)
	assert.Contains(t, body, `id="preview"`)
}

func TestIndexPage_LoadsDoc(t *testing.T) {
	s, store := newTestServer(t)
	d, err := store.Docs.CreateDoc(context.Background(), api.Document{ID: "d1", Title: "T", Body: "# Loaded"})
	require.NoError(t, err)

	w := doJSON(t, s.Router(), http.MethodGet, "/?doc="+d.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# Loaded")

	w = doJSON(t, s.Router(), http.MethodGet, "/?doc=missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIndexPage_WatchMode(t *testing.T) {
	s, _ := newTestServer(t)
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Watched heading"), 0o600))
	s.SetWatchFile(path)

	w := doJSON(t, s.Router(), http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "# Watched heading")
	assert.Contains(t, body, "readonly")
	assert.Contains(t, body, "watching")
	assert.Regexp(t, `readOnly:\s*true`, body)
	assert.NotContains(t, body, `id="save"`)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s.Router(), http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRenderEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("heading renders as h1", func(t *testing.T) {
		w := doJSON(t, s.Router(), http.MethodPost, "/v1/render", map[string]string{"content": "# Hello"}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var res api.RenderResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Contains(t, res.HTML, "<h1")
		assert.Contains(t, res.HTML, "Hello")
		assert.Equal(t, api.HashContent("# Hello"), res.Hash)
	})

	t.Run("empty content yields empty preview", func(t *testing.T) {
		w := doJSON(t, s.Router(), http.MethodPost, "/v1/render", map[string]string{"content": ""}, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var res api.RenderResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Empty(t, res.HTML)
		assert.Equal(t, api.HashContent(""), res.Hash)
	})

	t.Run("bad json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/render", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDocCRUD(t *testing.T) {
	s, _ := newTestServer(t)
	r := s.Router()

	var created api.Document
	t.Run("create", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/docs/", map[string]any{"title": "First", "body": "# one", "tags": []string{"demo"}}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, int64(1), created.Version)
	})

	t.Run("get", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/v1/docs/"+created.ID, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("update bumps version", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/v1/docs/"+created.ID, map[string]any{"body": "# two"}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var updated api.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		assert.Equal(t, int64(2), updated.Version)
		assert.Equal(t, "# two", updated.Body)
	})

	t.Run("stale If-Version conflicts and returns latest", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/v1/docs/"+created.ID, map[string]any{"body": "# stale"},
			map[string]string{"If-Version": "1"})
		require.Equal(t, http.StatusConflict, w.Code)
		var latest api.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
		assert.Equal(t, int64(2), latest.Version)
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/v1/docs/", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var docs []api.Document
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &docs))
		assert.Len(t, docs, 1)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/v1/docs/"+created.ID, nil, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = doJSON(t, r, http.MethodGet, "/v1/docs/"+created.ID, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAuthGuardsMutations(t *testing.T) {
	s, _ := newTestServer(t)
	s.cfg.Set("auth.token", "sekrit")
	r := s.Router()

	t.Run("reads stay open", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/v1/docs/", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("create without token is rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/docs/", map[string]any{"title": "x"}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("create with token succeeds", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/v1/docs/", map[string]any{"title": "x"},
			map[string]string{"Authorization": "Bearer sekrit"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Hello", firstLine("# Hello\nbody"))
	assert.Equal(t, "plain text", firstLine("\n\nplain text"))
	assert.Contains(t, firstLine(""), "Untitled")
}

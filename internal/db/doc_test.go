package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/inkpad/pkg/api"
)

func setupTestDB(t *testing.T) (*Store, context.Context) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, closer, err := openSQLite(ctx, "sqlite://"+dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })

	return store, ctx
}

func testDoc(id, title, body string, tags ...string) api.Document {
	now := time.Now().UTC().Truncate(time.Second)
	return api.Document{
		ID:        id,
		Version:   1,
		Title:     title,
		Body:      body,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUpdateDocCAS(t *testing.T) {
	store, ctx := setupTestDB(t)
	repo := store.Docs

	initial := testDoc("doc-1", "Initial", "Body", "demo")

	t.Run("CreateDoc initializes version", func(t *testing.T) {
		created, err := repo.CreateDoc(ctx, initial)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Version)
	})

	t.Run("UpdateDocCAS increments version normally", func(t *testing.T) {
		cur, err := repo.GetDoc(ctx, initial.ID)
		require.NoError(t, err)

		cur.Title = "Updated"
		cur.Version = cur.Version + 1
		cur.UpdatedAt = time.Now().UTC()

		updated, err := repo.UpdateDocCAS(ctx, cur, cur.Version-1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)
		assert.Equal(t, "Updated", updated.Title)
	})

	t.Run("UpdateDocCAS rejects stale version", func(t *testing.T) {
		cur, err := repo.GetDoc(ctx, initial.ID)
		require.NoError(t, err)

		cur.Title = "Stale write"
		cur.Version = cur.Version + 1
		_, err = repo.UpdateDocCAS(ctx, cur, 1) // current is 2 by now
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("UpdateDocCAS on missing doc", func(t *testing.T) {
		_, err := repo.UpdateDocCAS(ctx, testDoc("nope", "x", "y"), 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateDoc twice conflicts", func(t *testing.T) {
		_, err := repo.CreateDoc(ctx, initial)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestDeleteDoc(t *testing.T) {
	store, ctx := setupTestDB(t)
	repo := store.Docs

	_, err := repo.CreateDoc(ctx, testDoc("doc-del", "Bye", "Body"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDoc(ctx, "doc-del"))

	_, err = repo.GetDoc(ctx, "doc-del")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.DeleteDoc(ctx, "doc-del"), ErrNotFound)
}

func TestListDocs_TagFilters(t *testing.T) {
	store, ctx := setupTestDB(t)
	repo := store.Docs

	mk := func(id string, tags ...string) {
		_, err := repo.CreateDoc(ctx, testDoc(id, id, "body", tags...))
		require.NoError(t, err)
	}
	mk("a", "work")
	mk("b", "work", "draft")
	mk("c", "home")

	t.Run("any", func(t *testing.T) {
		docs, err := repo.ListDocs(ctx, Filter{Any: []string{"work"}})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("all", func(t *testing.T) {
		docs, err := repo.ListDocs(ctx, Filter{All: []string{"work", "draft"}})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "b", docs[0].ID)
	})

	t.Run("no filter returns all", func(t *testing.T) {
		docs, err := repo.ListDocs(ctx, Filter{})
		require.NoError(t, err)
		assert.Len(t, docs, 3)
	})

	t.Run("limit", func(t *testing.T) {
		docs, err := repo.ListDocs(ctx, Filter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})
}

func TestSearchDocs(t *testing.T) {
	store, ctx := setupTestDB(t)
	repo := store.Docs

	_, err := repo.CreateDoc(ctx, testDoc("s1", "Grocery list", "milk eggs bread"))
	require.NoError(t, err)
	_, err = repo.CreateDoc(ctx, testDoc("s2", "Meeting notes", "quarterly planning agenda"))
	require.NoError(t, err)

	t.Run("matches body", func(t *testing.T) {
		docs, err := repo.SearchDocs(ctx, Filter{Query: "quarterly"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "s2", docs[0].ID)
	})

	t.Run("prefix match", func(t *testing.T) {
		docs, err := repo.SearchDocs(ctx, Filter{Query: "groc"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "s1", docs[0].ID)
	})

	t.Run("quotes in query are harmless", func(t *testing.T) {
		_, err := repo.SearchDocs(ctx, Filter{Query: `"unbalanced`})
		assert.NoError(t, err)
	})

	t.Run("empty query lists all", func(t *testing.T) {
		docs, err := repo.SearchDocs(ctx, Filter{})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})
}

func TestRevisionLog(t *testing.T) {
	store, ctx := setupTestDB(t)

	d, err := store.Docs.CreateDoc(ctx, testDoc("r1", "Rev", "v1"))
	require.NoError(t, err)

	d.Body = "v2"
	d.Version = 2
	d.UpdatedAt = time.Now().UTC()
	_, err = store.Docs.UpdateDocCAS(ctx, d, 1)
	require.NoError(t, err)

	require.NoError(t, store.Docs.DeleteDoc(ctx, "r1"))

	evs, _, err := store.Revisions.List(ctx, api.Cursor{}, 0)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, api.EventUpsert, evs[0].Type)
	assert.Equal(t, api.EventUpsert, evs[1].Type)
	assert.Equal(t, api.EventDelete, evs[2].Type)
	require.NotNil(t, evs[1].Doc)
	assert.Equal(t, "v2", evs[1].Doc.Body)
}

func TestMemStore_MirrorsSQLiteSemantics(t *testing.T) {
	ctx := context.Background()
	store, closer, err := Open(ctx, "mem://")
	require.NoError(t, err)
	defer closer.Close()

	d, err := store.Docs.CreateDoc(ctx, testDoc("m1", "Mem", "body", "x"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Version)

	d.Body = "changed"
	d.Version = 2
	_, err = store.Docs.UpdateDocCAS(ctx, d, 99)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = store.Docs.UpdateDocCAS(ctx, d, 1)
	require.NoError(t, err)

	docs, err := store.Docs.SearchDocs(ctx, Filter{Query: "changed"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, store.Docs.DeleteDoc(ctx, d.ID))
	evs, _, err := store.Revisions.List(ctx, api.Cursor{}, 0)
	require.NoError(t, err)
	require.NotEmpty(t, evs)
	last := evs[len(evs)-1]
	assert.Equal(t, api.EventDelete, last.Type)
	assert.False(t, last.Time.IsZero(), "delete events carry a timestamp")
}

package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/inkpad/pkg/api"
)

func dialLive(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) liveReply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var r liveReply
	require.NoError(t, conn.ReadJSON(&r))
	return r
}

func TestLive_EditProducesPreview(t *testing.T) {
	s, _ := newTestServer(t)
	conn := dialLive(t, s)

	require.NoError(t, conn.WriteJSON(liveRequest{Type: "edit", Seq: 1, Content: "# Hello"}))
	r := readReply(t, conn)

	assert.Equal(t, "preview", r.Type)
	assert.Equal(t, int64(1), r.Seq)
	assert.Contains(t, r.HTML, "<h1")
	assert.Contains(t, r.HTML, "Hello")
	assert.Equal(t, api.HashContent("# Hello"), r.Hash)
}

func TestLive_EmptyEditYieldsEmptyPreview(t *testing.T) {
	s, _ := newTestServer(t)
	conn := dialLive(t, s)

	require.NoError(t, conn.WriteJSON(liveRequest{Type: "edit", Seq: 1, Content: ""}))
	r := readReply(t, conn)

	assert.Equal(t, "preview", r.Type)
	assert.Empty(t, r.HTML)
	assert.Equal(t, api.HashContent(""), r.Hash)
}

func TestLive_RepliesFollowEditOrder(t *testing.T) {
	s, _ := newTestServer(t)
	conn := dialLive(t, s)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, conn.WriteJSON(liveRequest{Type: "edit", Seq: i, Content: strings.Repeat("#", int(i)) + " h"}))
	}
	for i := int64(1); i <= 5; i++ {
		r := readReply(t, conn)
		assert.Equal(t, i, r.Seq, "replies must arrive in edit order")
	}
}

func TestLive_SaveCreatesThenUpdates(t *testing.T) {
	s, store := newTestServer(t)
	conn := dialLive(t, s)

	require.NoError(t, conn.WriteJSON(liveRequest{Type: "save", Seq: 1, Title: "Pad", Content: "# v1"}))
	r := readReply(t, conn)
	require.Equal(t, "saved", r.Type)
	require.NotNil(t, r.Doc)
	assert.Equal(t, int64(1), r.Doc.Version)
	id := r.Doc.ID

	// Second save on the same session updates in place via CAS.
	require.NoError(t, conn.WriteJSON(liveRequest{Type: "save", Seq: 2, Content: "# v2"}))
	r = readReply(t, conn)
	require.Equal(t, "saved", r.Type)
	require.NotNil(t, r.Doc)
	assert.Equal(t, id, r.Doc.ID)
	assert.Equal(t, int64(2), r.Doc.Version)

	stored, err := store.Docs.GetDoc(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "# v2", stored.Body)
}

func TestLive_StaleSaveConflicts(t *testing.T) {
	s, store := newTestServer(t)
	_, err := store.Docs.CreateDoc(context.Background(), api.Document{ID: "c1", Title: "C", Body: "orig", Version: 3})
	require.NoError(t, err)

	conn := dialLive(t, s)
	require.NoError(t, conn.WriteJSON(liveRequest{Type: "save", Seq: 1, DocID: "c1", Content: "clobber", IfVersion: 1}))
	r := readReply(t, conn)

	assert.Equal(t, "error", r.Type)
	assert.Equal(t, "conflict", r.Msg)
	require.NotNil(t, r.Doc, "conflict reply should carry the latest document")
	assert.Equal(t, int64(3), r.Doc.Version)
}

func TestLive_UnknownMessageType(t *testing.T) {
	s, _ := newTestServer(t)
	conn := dialLive(t, s)

	require.NoError(t, conn.WriteJSON(liveRequest{Type: "bogus", Seq: 9}))
	r := readReply(t, conn)
	assert.Equal(t, "error", r.Type)
	assert.Equal(t, int64(9), r.Seq)
}

func TestHub_Broadcast(t *testing.T) {
	s, _ := newTestServer(t)
	conn := dialLive(t, s)

	// Wait for registration before broadcasting.
	require.Eventually(t, func() bool {
		s.hub.mu.RLock()
		defer s.hub.mu.RUnlock()
		return len(s.hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	res, err := s.renderer.Render("# watched")
	require.NoError(t, err)
	s.hub.Broadcast(res)

	r := readReply(t, conn)
	assert.Equal(t, "preview", r.Type)
	assert.Zero(t, r.Seq)
	assert.Contains(t, r.HTML, "watched")
}

package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mithrel/inkpad/internal/db"
	"github.com/mithrel/inkpad/internal/telemetry"
	"github.com/mithrel/inkpad/pkg/api"
)

// liveRequest is one client message on the live socket.
type liveRequest struct {
	Type      string   `json:"type"` // "edit" or "save"
	Seq       int64    `json:"seq"`
	DocID     string   `json:"doc_id,omitempty"`
	Title     string   `json:"title,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Content   string   `json:"content"`
	IfVersion int64    `json:"if_version,omitempty"`
}

// liveReply is one server message. For "preview" replies Hash is the BLAKE3
// hash of the source content, so the client can confirm which edit a preview
// belongs to.
type liveReply struct {
	Type string        `json:"type"` // "preview", "saved", "error"
	Seq  int64         `json:"seq,omitempty"`
	HTML string        `json:"html,omitempty"`
	Hash string        `json:"hash,omitempty"`
	Doc  *api.Document `json:"doc,omitempty"`
	Msg  string        `json:"msg,omitempty"`
}

// Hub tracks live preview connections and lets watch mode broadcast to all
// of them.
type Hub struct {
	srv *Server

	mu       sync.RWMutex
	clients  map[*liveClient]bool
	upgrader websocket.Upgrader
}

// liveClient is one browser session: a websocket plus its editor state.
// Edits are rendered in arrival order on the read pump goroutine, which keeps
// the preview a pure function of the latest content without extra locking.
type liveClient struct {
	id   string
	conn *websocket.Conn
	send chan liveReply

	// session state, owned by the read pump
	docID   string
	content string
	hash    string

	closeOnce sync.Once
	done      chan struct{}
}

func newHub(s *Server) *Hub {
	return &Hub{
		srv:     s,
		clients: make(map[*liveClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The demo serves same-origin pages on localhost only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.srv.log.Printf("websocket upgrade: %v", err)
		return
	}

	buffer := h.srv.cfg.GetInt("live.send_buffer")
	if buffer <= 0 {
		buffer = 64
	}
	c := &liveClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan liveReply, buffer),
		done: make(chan struct{}),
	}
	if id := strings.TrimSpace(r.URL.Query().Get("doc")); id != "" {
		c.docID = id
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	telemetry.ActiveLiveConnections.Inc()
	h.srv.log.Printf("live session %s connected from %s", c.id, r.RemoteAddr)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) remove(c *liveClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
		telemetry.ActiveLiveConnections.Dec()
	})
}

const readDeadline = 60 * time.Second

func (h *Hub) readPump(c *liveClient) {
	defer h.remove(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		var req liveRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.srv.log.Printf("live session %s read: %v", c.id, err)
			}
			return
		}
		switch req.Type {
		case "edit":
			h.handleEdit(c, req)
		case "save":
			h.handleSave(c, req)
		default:
			c.trySend(liveReply{Type: "error", Seq: req.Seq, Msg: "unknown message type"})
		}
	}
}

// handleEdit renders the new content and queues a preview. Rendering happens
// in arrival order per connection, so the last preview queued always matches
// the last edit received.
func (h *Hub) handleEdit(c *liveClient, req liveRequest) {
	res, err := h.srv.renderer.Render(req.Content)
	if err != nil {
		c.trySend(liveReply{Type: "error", Seq: req.Seq, Msg: "render failed"})
		return
	}
	c.content = req.Content
	c.hash = res.Hash
	if req.DocID != "" {
		c.docID = req.DocID
	}
	telemetry.RendersTotal.WithLabelValues("live").Inc()
	telemetry.RenderDuration.Observe(res.Duration.Seconds())
	c.trySend(liveReply{Type: "preview", Seq: req.Seq, HTML: res.HTML, Hash: res.Hash})
}

// handleSave persists the session content as a document; CAS when updating.
func (h *Hub) handleSave(c *liveClient, req liveRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	content := req.Content
	if content == "" {
		content = c.content
	}
	now := time.Now().UTC()

	if c.docID == "" && req.DocID == "" {
		d := api.Document{
			ID:        api.NewID(),
			Version:   1,
			Title:     strings.TrimSpace(req.Title),
			Body:      content,
			Tags:      req.Tags,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if d.Title == "" {
			d.Title = firstLine(content)
		}
		created, err := h.srv.store.Docs.CreateDoc(ctx, d)
		if err != nil {
			c.trySend(liveReply{Type: "error", Seq: req.Seq, Msg: "save failed"})
			return
		}
		c.docID = created.ID
		telemetry.DocumentsSaved.Inc()
		h.srv.log.Printf("live session %s created doc %s", c.id, created.ID)
		c.trySend(liveReply{Type: "saved", Seq: req.Seq, Doc: &created})
		return
	}

	id := req.DocID
	if id == "" {
		id = c.docID
	}
	cur, err := h.srv.store.Docs.GetDoc(ctx, id)
	if err != nil {
		c.trySend(liveReply{Type: "error", Seq: req.Seq, Msg: "not found"})
		return
	}
	ifVersion := req.IfVersion
	if ifVersion == 0 {
		ifVersion = cur.Version
	}
	if req.Title != "" {
		cur.Title = strings.TrimSpace(req.Title)
	}
	if req.Tags != nil {
		cur.Tags = req.Tags
	}
	cur.Body = content
	cur.Version = ifVersion + 1
	cur.UpdatedAt = now

	updated, err := h.srv.store.Docs.UpdateDocCAS(ctx, cur, ifVersion)
	if err != nil {
		if err == db.ErrConflict {
			latest, _ := h.srv.store.Docs.GetDoc(ctx, id)
			c.trySend(liveReply{Type: "error", Seq: req.Seq, Msg: "conflict", Doc: &latest})
			return
		}
		c.trySend(liveReply{Type: "error", Seq: req.Seq, Msg: "save failed"})
		return
	}
	c.docID = updated.ID
	telemetry.DocumentsSaved.Inc()
	h.srv.log.Printf("live session %s saved doc %s version=%d", c.id, updated.ID, updated.Version)
	c.trySend(liveReply{Type: "saved", Seq: req.Seq, Doc: &updated})
}

// trySend queues a reply without blocking the read pump. A client that cannot
// drain its buffer loses intermediate previews, never the connection.
func (c *liveClient) trySend(r liveReply) {
	select {
	case c.send <- r:
	default:
		telemetry.LiveMessagesDropped.Inc()
	}
}

func (h *Hub) writePump(c *liveClient) {
	interval := h.srv.cfg.GetDuration("live.ping_interval")
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case reply := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(reply); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Broadcast queues a reply on every connection. Watch mode uses this to push
// re-renders of the followed file.
func (h *Hub) Broadcast(res api.RenderResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.trySend(liveReply{Type: "preview", HTML: res.HTML, Hash: res.Hash})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*liveClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*liveClient]bool)
	h.mu.Unlock()
	for _, c := range clients {
		c.closeOnce.Do(func() {
			close(c.done)
			_ = c.conn.Close()
			telemetry.ActiveLiveConnections.Dec()
		})
	}
}

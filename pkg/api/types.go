package api

import "time"

// Document is a stored markdown document: the durable counterpart of the
// editor pane. Body is the raw markdown; rendered HTML is always derived,
// never stored.
type Document struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EventType string

const (
	EventUpsert EventType = "upsert"
	EventDelete EventType = "delete"
)

// Event is one record in the append-only revision log.
type Event struct {
	Time time.Time `json:"time"`
	Type EventType `json:"type"`
	ID   string    `json:"id"`
	Doc  *Document `json:"doc,omitempty"`
}

// Cursor pages through the revision log by time.
type Cursor struct {
	After time.Time `json:"after"`
}

// RenderResult is the output of one markdown render. Hash is the BLAKE3 hash
// of the source text, so callers can check that a preview really derives from
// the content they sent.
type RenderResult struct {
	HTML     string        `json:"html"`
	Hash     string        `json:"hash"`
	Bytes    int           `json:"bytes"`
	Duration time.Duration `json:"-"`
}

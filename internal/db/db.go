package db

import (
	"context"
	"errors"
	"io"

	"github.com/mithrel/inkpad/pkg/api"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Filter constrains document listing and search.
type Filter struct {
	Any   []string // match documents carrying at least one of these tags
	All   []string // match documents carrying every one of these tags
	Query string   // full-text query over title/body/tags
	Limit int
}

// DocRepo is the durable document store behind the editor.
type DocRepo interface {
	GetDoc(ctx context.Context, id string) (api.Document, error)
	CreateDoc(ctx context.Context, d api.Document) (api.Document, error)
	// UpdateDocCAS applies d only when the stored version equals ifVersion;
	// otherwise it returns ErrConflict and leaves the row untouched.
	UpdateDocCAS(ctx context.Context, d api.Document, ifVersion int64) (api.Document, error)
	DeleteDoc(ctx context.Context, id string) error
	ListDocs(ctx context.Context, f Filter) ([]api.Document, error)
	SearchDocs(ctx context.Context, f Filter) ([]api.Document, error)
	// Titles returns "id\ttitle" pairs for shell completion and fuzzy match.
	Titles(ctx context.Context, limit int) ([]string, error)
}

// RevisionRepo is the append-only edit log.
type RevisionRepo interface {
	Append(ctx context.Context, ev api.Event) error
	List(ctx context.Context, cur api.Cursor, limit int) ([]api.Event, api.Cursor, error)
}

// Store bundles the repositories one backend provides.
type Store struct {
	Docs      DocRepo
	Revisions RevisionRepo
}

// Open returns a Store for a DSN. sqlite://path opens (creating if needed) a
// sqlite file; mem:// returns the in-memory store used by tests.
func Open(ctx context.Context, dsn string) (*Store, io.Closer, error) {
	if dsn == "mem://" {
		m := newMemStore()
		return &Store{Docs: m, Revisions: m}, io.NopCloser(nop{}), nil
	}
	return openSQLite(ctx, dsn)
}

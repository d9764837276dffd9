package present

import (
	"io"

	"github.com/mithrel/inkpad/internal/present/format"
	"github.com/mithrel/inkpad/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
)

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	WordWrap   int // column width for pretty output; 0 uses the format default
}

// ParseMode parses a string like "plain", "pretty", "json", "ndjson".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "plain":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	default:
		return ModePlain, false
	}
}

// RenderDocs renders a list of documents according to options.
func RenderDocs(w io.Writer, docs []api.Document, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSONDocs(w, docs, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONDocs(w, docs)
	case ModePretty:
		// Pretty list currently falls back to plain list until glamour table is added.
		return format.WritePlainDocs(w, docs, opts.Headers)
	default:
		return format.WritePlainDocs(w, docs, opts.Headers)
	}
}

// RenderDoc renders a single document according to options.
func RenderDoc(w io.Writer, d api.Document, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSONDoc(w, d, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONDoc(w, d)
	case ModePretty:
		return format.WritePrettyDoc(w, d, opts.WordWrap)
	default:
		return format.WritePlainDoc(w, d, opts.Headers)
	}
}

// StreamWriter is satisfied by the format package's incremental writers,
// used when exporting documents page by page.
type StreamWriter interface {
	WriteDocs(docs []api.Document) error
	Close() error
}

// NewStreamWriter returns an incremental writer for the given mode.
// Pretty output has no streaming form and falls back to plain.
func NewStreamWriter(w io.Writer, opts Options) StreamWriter {
	switch opts.Mode {
	case ModeJSON:
		return format.NewJSONStreamWriter(w, opts.JSONIndent)
	case ModeNDJSON:
		return format.NewNDJSONStreamWriter(w)
	default:
		return format.NewPlainStreamWriter(w, opts.Headers)
	}
}

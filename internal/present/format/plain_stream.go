package format

import (
	"io"
	"text/tabwriter"

	"github.com/mithrel/inkpad/pkg/api"
)

// PlainStreamWriter incrementally writes documents in the same plain TSV format.
type PlainStreamWriter struct {
	tw          *tabwriter.Writer
	headers     bool
	wroteHeader bool
}

// NewPlainStreamWriter creates a streaming plain writer.
func NewPlainStreamWriter(w io.Writer, headers bool) *PlainStreamWriter {
	return &PlainStreamWriter{
		tw:      tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: headers,
	}
}

// WriteDocs writes a batch of documents and flushes.
func (pw *PlainStreamWriter) WriteDocs(docs []api.Document) error {
	if pw.headers && !pw.wroteHeader {
		_, _ = io.WriteString(pw.tw, headerLine)
		pw.wroteHeader = true
	}
	for _, d := range docs {
		_, _ = io.WriteString(pw.tw, plainLine(d))
	}
	return pw.tw.Flush()
}

// Close flushes remaining buffered output.
func (pw *PlainStreamWriter) Close() error {
	return pw.tw.Flush()
}

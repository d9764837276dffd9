package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/inkpad/pkg/api"
)

// NDJSONStreamWriter incrementally writes documents as NDJSON.
type NDJSONStreamWriter struct {
	enc *json.Encoder
}

// NewNDJSONStreamWriter creates a streaming NDJSON writer.
func NewNDJSONStreamWriter(w io.Writer) *NDJSONStreamWriter {
	return &NDJSONStreamWriter{enc: json.NewEncoder(w)}
}

// WriteDocs writes a batch of documents.
func (nw *NDJSONStreamWriter) WriteDocs(docs []api.Document) error {
	for _, d := range docs {
		if err := nw.enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op for NDJSON output.
func (nw *NDJSONStreamWriter) Close() error { return nil }

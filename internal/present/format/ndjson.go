package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/inkpad/pkg/api"
)

// WriteNDJSONDocs writes documents as newline-delimited JSON objects.
func WriteNDJSONDocs(w io.Writer, docs []api.Document) error {
	enc := json.NewEncoder(w)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}

// WriteNDJSONDoc writes a single document as one JSON line.
func WriteNDJSONDoc(w io.Writer, d api.Document) error {
	enc := json.NewEncoder(w)
	return enc.Encode(d)
}

package format

import (
	"encoding/json"
	"io"

	"github.com/mithrel/inkpad/pkg/api"
)

func WriteJSONDocs(w io.Writer, docs []api.Document, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(docs)
}

func WriteJSONDoc(w io.Writer, d api.Document, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(d)
}

package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mithrel/inkpad/pkg/api"
)

// TSV columns: id, title, version, updated_unix_ms, tags
var headerLine = "id\ttitle\tversion\tupdated_unix_ms\ttags\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	// Join with commas; no spaces
	var b strings.Builder
	for i, t := range tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t)
	}
	return b.String()
}

func plainLine(d api.Document) string {
	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = time.Time{}
	}
	ms := updated.UnixNano() / int64(time.Millisecond)
	return fmt.Sprintf("%s\t%s\t%d\t%d\t%s\n",
		esc(d.ID), esc(d.Title), d.Version, ms, esc(joinTags(d.Tags)))
}

func WritePlainDocs(w io.Writer, docs []api.Document, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	for _, d := range docs {
		_, _ = io.WriteString(tw, plainLine(d))
	}
	return tw.Flush()
}

func WritePlainDoc(w io.Writer, d api.Document, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	_, _ = io.WriteString(tw, plainLine(d))
	return tw.Flush()
}

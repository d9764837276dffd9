package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/mithrel/inkpad/pkg/api"
)

// WritePrettyDoc renders a single document with markdown formatting using
// glamour, wrapped at wordWrap columns.
func WritePrettyDoc(w io.Writer, d api.Document, wordWrap int) error {
	if wordWrap <= 0 {
		wordWrap = 80
	}
	ts := d.UpdatedAt.Local().Format(time.RFC3339)
	tags := joinTags(d.Tags)

	md := fmt.Sprintf(`# %s

> **ID:** %s | **Version:** %d | **Updated:** %s
>
> **Tags:** %s

---

%s
`, d.Title, d.ID, d.Version, ts, tags, strings.TrimSpace(d.Body))

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}

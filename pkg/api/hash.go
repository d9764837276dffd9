package api

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// HashContent returns the hex BLAKE3 hash of raw editor content. The live
// preview protocol attaches this to every render so a preview can be verified
// as a pure function of the source text.
func HashContent(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Hash returns a deterministic BLAKE3 hash of the full document state.
// It includes ID, Title, Body, Tags (sorted) and timestamps.
func (d Document) Hash() string {
	h := blake3.New()

	h.Write([]byte(d.ID))
	h.Write([]byte{0})

	h.Write([]byte(d.Title))
	h.Write([]byte{0})

	h.Write([]byte(d.Body))
	h.Write([]byte{0})

	// Sort tags for determinism
	sorted := append([]string(nil), d.Tags...)
	sort.Strings(sorted)
	for _, t := range sorted {
		h.Write([]byte(strings.ToLower(t)))
		h.Write([]byte{0})
	}
	h.Write([]byte{0}) // end of tags

	if !d.CreatedAt.IsZero() {
		h.Write([]byte(d.CreatedAt.UTC().Format(timeRFC3339Nano)))
	}
	h.Write([]byte{0})

	if !d.UpdatedAt.IsZero() {
		h.Write([]byte(d.UpdatedAt.UTC().Format(timeRFC3339Nano)))
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

const timeRFC3339Nano = "2006-01-02T15:04:05.999999999Z07:00"

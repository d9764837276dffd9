package present

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/inkpad/pkg/api"
)

func sampleDocs() []api.Document {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []api.Document{
		{ID: "a1", Version: 1, Title: "First", Body: "# one", Tags: []string{"x"}, CreatedAt: t0, UpdatedAt: t0},
		{ID: "b2", Version: 3, Title: "Second", Body: "# two", Tags: []string{"x", "y"}, CreatedAt: t0, UpdatedAt: t0.Add(time.Hour)},
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"plain", "pretty", "json", "ndjson"} {
		_, ok := ParseMode(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseMode("tui")
	assert.False(t, ok)
}

func TestRenderDocs_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDocs(&buf, sampleDocs(), Options{Mode: ModeJSON}))

	var got []api.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
}

func TestRenderDocs_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDocs(&buf, sampleDocs(), Options{Mode: ModeNDJSON}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var d api.Document
		require.NoError(t, json.Unmarshal([]byte(line), &d))
	}
}

func TestRenderDocs_PlainHeadersAndEscaping(t *testing.T) {
	docs := sampleDocs()
	docs[0].Title = "tab\there"

	var buf bytes.Buffer
	require.NoError(t, RenderDocs(&buf, docs, Options{Mode: ModePlain, Headers: true}))

	out := buf.String()
	assert.Contains(t, out, "updated_unix_ms")
	assert.Contains(t, out, `tab\there`)
	assert.Contains(t, out, "x,y")
}

func TestStreamWriter_JSONBatches(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, Options{Mode: ModeJSON})
	docs := sampleDocs()
	require.NoError(t, w.WriteDocs(docs[:1]))
	require.NoError(t, w.WriteDocs(docs[1:]))
	require.NoError(t, w.Close())

	var got []api.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestStreamWriter_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, Options{Mode: ModeJSON})
	require.NoError(t, w.Close())
	assert.Equal(t, "[]\n", buf.String())
}

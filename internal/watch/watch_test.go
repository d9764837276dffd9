package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFile_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# v1"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, path, func(content string) { got <- content })
	}()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("# v2"), 0o600))

	select {
	case content := <-got:
		require.Equal(t, "# v2", content)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for change notification")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestFile_RenameOverSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# v1"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 8)
	go func() { _ = File(ctx, path, func(content string) { got <- content }) }()

	time.Sleep(100 * time.Millisecond)
	tmp := filepath.Join(dir, ".doc.md.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("# renamed"), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case content := <-got:
		require.Equal(t, "# renamed", content)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for rename notification")
	}
}

func TestFile_MissingTarget(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "nope.md"), func(string) {})
	require.Error(t, err)
}

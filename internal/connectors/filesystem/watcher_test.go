package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
)

const testDebounce = 20 * time.Millisecond

func txtOnly(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

func next(t *testing.T, ch <-chan domain.FileChange) domain.FileChange {
	t.Helper()
	select {
	case change, ok := <-ch:
		require.True(t, ok, "channel closed")
		return change
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for file change")
		return domain.FileChange{}
	}
}

func TestWatcher_ReportsCreate(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, WithDebounce(testDebounce), WithFilter(txtOnly))
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(dir, "acme_contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("fee 5%"), 0644))

	change := next(t, changes)
	assert.Equal(t, path, change.Path)
	assert.Equal(t, domain.ChangeCreated, change.Type)
}

func TestWatcher_ReportsModifyAndDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "acme_payout.txt")
	require.NoError(t, os.WriteFile(path, []byte("net 900"), 0644))

	w := New(dir, WithDebounce(testDebounce))
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("net 950"), 0644))
	assert.Equal(t, domain.ChangeUpdated, next(t, changes).Type)

	require.NoError(t, os.Remove(path))
	change := next(t, changes)
	assert.Equal(t, domain.ChangeDeleted, change.Type)
	assert.Equal(t, path, change.Path)
}

func TestWatcher_ErrorsAndClose(t *testing.T) {
	_, err := New("/non/existent/path").Watch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root path error")

	w := New(t.TempDir())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Watch(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWatcher_ChannelClosesOnCancel(t *testing.T) {
	w := New(t.TempDir())
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := w.Watch(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel did not close after cancellation")
	}
}

func TestWatcher_Classify(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "contract.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	sub := filepath.Join(dir, "archive.txt")
	require.NoError(t, os.Mkdir(sub, 0755))

	w := New(dir, WithFilter(txtOnly))

	tests := []struct {
		name   string
		path   string
		op     fsnotify.Op
		want   domain.ChangeType
		wantOK bool
	}{
		{"create file", file, fsnotify.Create, domain.ChangeCreated, true},
		{"write file", file, fsnotify.Write, domain.ChangeUpdated, true},
		{"write and chmod", file, fsnotify.Write | fsnotify.Chmod, domain.ChangeUpdated, true},
		{"remove", filepath.Join(dir, "gone.txt"), fsnotify.Remove, domain.ChangeDeleted, true},
		{"rename", filepath.Join(dir, "old.txt"), fsnotify.Rename, domain.ChangeDeleted, true},
		{"chmod only", file, fsnotify.Chmod, 0, false},
		{"directory", sub, fsnotify.Create, 0, false},
		{"hidden", filepath.Join(dir, ".contract.txt"), fsnotify.Write, 0, false},
		{"unsupported", filepath.Join(dir, "image.png"), fsnotify.Write, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := w.classify(fsnotify.Event{Name: tt.path, Op: tt.op})
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	pending := map[string]domain.ChangeType{}
	assert.Equal(t, domain.ChangeCreated, merge(pending, "a", domain.ChangeCreated))

	pending["a"] = domain.ChangeCreated
	assert.Equal(t, domain.ChangeCreated, merge(pending, "a", domain.ChangeUpdated))
	assert.Equal(t, domain.ChangeDeleted, merge(pending, "a", domain.ChangeDeleted))

	pending["a"] = domain.ChangeDeleted
	assert.Equal(t, domain.ChangeUpdated, merge(pending, "a", domain.ChangeCreated))
}

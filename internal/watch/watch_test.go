package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewRequiresPathsAndCallback(t *testing.T) {
	_, err := New(Config{OnChange: func(context.Context, string) {}})
	assert.Error(t, err)

	_, err = New(Config{Paths: []string{"x.yaml"}})
	assert.Error(t, err)
}

func TestWatcherTriggersOnSettledChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	otherPath := filepath.Join(dir, "ignored.json")
	require.NoError(t, os.WriteFile(dataPath, []byte("[]"), 0644))

	changed := make(chan string, 8)
	w, err := New(Config{
		Paths:    []string{dataPath},
		Debounce: 50 * time.Millisecond,
		OnChange: func(_ context.Context, path string) { changed <- path },
	})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.True(t, w.IsWatching())

	// A sibling file changing must not fire; the watched file must.
	require.NoError(t, os.WriteFile(otherPath, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(dataPath, []byte(`[{"a":1}]`), 0644))

	select {
	case p := <-changed:
		assert.Equal(t, dataPath, p)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}
}

func TestWatcherCoalescesRapidWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte("[]"), 0644))

	changed := make(chan string, 8)
	w, err := New(Config{
		Paths:    []string{dataPath},
		Debounce: 100 * time.Millisecond,
		OnChange: func(_ context.Context, path string) { changed <- path },
	})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(dataPath, []byte("[]"), 0644))
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}

	// The burst happened inside one debounce window; no second
	// callback should follow.
	select {
	case p := <-changed:
		t.Fatalf("burst produced a second callback for %s", p)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte("[]"), 0644))

	w, err := New(Config{
		Paths:    []string{dataPath},
		OnChange: func(context.Context, string) {},
	})
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	assert.False(t, w.IsWatching())
}

func TestWatcherStartFailsOnMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(Config{
		Paths:    []string{filepath.Join(t.TempDir(), "missing", "data.json")},
		OnChange: func(context.Context, string) {},
	})
	require.NoError(t, err)

	err = w.Start(context.Background())
	assert.Error(t, err)
	assert.False(t, w.IsWatching())
}

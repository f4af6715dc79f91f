package dropbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/exhibit-server/internal/domain"
	"github.com/listenupapp/exhibit-server/internal/service"
)

type call struct {
	exhibit string
	ids     []string
}

type fakeIngester struct {
	mu     sync.Mutex
	calls  []call
	failID string
}

func (f *fakeIngester) IngestBatch(_ context.Context, exhibitID string, items []*domain.RawItem) (*service.BatchReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := call{exhibit: exhibitID}
	report := &service.BatchReport{BatchID: "batch", ExhibitID: exhibitID, Total: len(items)}
	for _, item := range items {
		c.ids = append(c.ids, item.ID)
		outcome := service.ItemOutcome{ItemID: item.ID, DocumentID: "doc-" + item.ID}
		if item.ID == f.failID {
			outcome = service.ItemOutcome{ItemID: item.ID, Error: "boom"}
			report.Failed++
		} else {
			report.Succeeded++
		}
		report.Items = append(report.Items, outcome)
	}
	f.calls = append(f.calls, c)
	return report, nil
}

func (f *fakeIngester) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fakeLimiter struct {
	keys []string
	err  error
}

func (f *fakeLimiter) Wait(_ context.Context, key string) error {
	f.keys = append(f.keys, key)
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestDropbox(t *testing.T, backend Backend) (*Dropbox, *fakeIngester) {
	t.Helper()
	ing := &fakeIngester{}
	d, err := New(Options{
		Dir:         t.TempDir(),
		Exhibit:     "ap_ireland",
		Backend:     backend,
		SettleDelay: 20 * time.Millisecond,
	}, ing, testLogger())
	require.NoError(t, err)
	return d, ing
}

// drop writes a file under a hidden name and renames it into place.
func drop(t *testing.T, dir, name, content string) string {
	t.Helper()
	tmp := filepath.Join(dir, "."+name)
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	path := filepath.Join(dir, name)
	require.NoError(t, os.Rename(tmp, path))
	return path
}

func readReport(t *testing.T, path string) Report {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var r Report
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func TestNew_CreatesDirectories(t *testing.T) {
	d, _ := newTestDropbox(t, BackendFsnotify)

	for _, sub := range []string{DoneDir, FailedDir} {
		info, err := os.Stat(filepath.Join(d.Dir(), sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("success moves to done", func(t *testing.T) {
		d, ing := newTestDropbox(t, BackendFsnotify)
		path := drop(t, d.Dir(), "batch.json", `{"exhibit": "other", "items": [{"id": "a"}, {"id": "b"}]}`)

		report, err := d.Process(ctx, path)
		require.NoError(t, err)
		assert.True(t, report.OK())

		assert.Equal(t, []call{{exhibit: "other", ids: []string{"a", "b"}}}, ing.Calls())
		assert.NoFileExists(t, path)
		assert.FileExists(t, filepath.Join(d.Dir(), DoneDir, "batch.json"))

		saved := readReport(t, filepath.Join(d.Dir(), DoneDir, "batch.report.json"))
		assert.Equal(t, "batch.json", saved.File)
		require.NotNil(t, saved.Batch)
		assert.Equal(t, 2, saved.Batch.Succeeded)
	})

	t.Run("default exhibit", func(t *testing.T) {
		d, ing := newTestDropbox(t, BackendFsnotify)
		path := drop(t, d.Dir(), "single.json", `{"id": "a"}`)

		_, err := d.Process(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []call{{exhibit: "ap_ireland", ids: []string{"a"}}}, ing.Calls())
	})

	t.Run("item failure moves to failed", func(t *testing.T) {
		d, ing := newTestDropbox(t, BackendFsnotify)
		ing.failID = "b"
		path := drop(t, d.Dir(), "batch.json", `[{"id": "a"}, {"id": "b"}]`)

		report, err := d.Process(ctx, path)
		require.NoError(t, err)
		assert.False(t, report.OK())
		assert.FileExists(t, filepath.Join(d.Dir(), FailedDir, "batch.json"))

		saved := readReport(t, filepath.Join(d.Dir(), FailedDir, "batch.report.json"))
		require.NotNil(t, saved.Batch)
		assert.Equal(t, 1, saved.Batch.Failed)
		assert.Equal(t, "boom", saved.Batch.Items[1].Error)
	})

	t.Run("invalid payload moves to failed", func(t *testing.T) {
		d, ing := newTestDropbox(t, BackendFsnotify)
		path := drop(t, d.Dir(), "broken.json", `{not json`)

		report, err := d.Process(ctx, path)
		require.NoError(t, err)
		assert.NotEmpty(t, report.Error)
		assert.Empty(t, ing.Calls())
		assert.FileExists(t, filepath.Join(d.Dir(), FailedDir, "broken.json"))
		assert.FileExists(t, filepath.Join(d.Dir(), FailedDir, "broken.report.json"))
	})

	t.Run("limiter keyed by exhibit", func(t *testing.T) {
		d, ing := newTestDropbox(t, BackendFsnotify)
		limiter := &fakeLimiter{}
		d.opts.Limiter = limiter
		path := drop(t, d.Dir(), "single.json", `{"id": "a"}`)

		_, err := d.Process(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{"dropbox|ap_ireland"}, limiter.keys)
		assert.Len(t, ing.Calls(), 1)
	})

	t.Run("cancelled wait leaves the file", func(t *testing.T) {
		d, ing := newTestDropbox(t, BackendFsnotify)
		d.opts.Limiter = &fakeLimiter{err: context.Canceled}
		path := drop(t, d.Dir(), "single.json", `{"id": "a"}`)

		_, err := d.Process(ctx, path)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, ing.Calls())
		assert.FileExists(t, path)
	})

	t.Run("missing file", func(t *testing.T) {
		d, _ := newTestDropbox(t, BackendFsnotify)
		_, err := d.Process(ctx, filepath.Join(d.Dir(), "gone.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestRun(t *testing.T) {
	backends := []Backend{BackendFsnotify, BackendAuto}
	if runtime.GOOS == "linux" {
		backends = append(backends, BackendInotify)
	}

	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			d, ing := newTestDropbox(t, backend)
			require.NoError(t, os.WriteFile(filepath.Join(d.Dir(), "existing.json"), []byte(`{"id": "old"}`), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(d.Dir(), "notes.txt"), []byte("ignored"), 0o644))

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- d.Run(ctx) }()

			assert.Eventually(t, func() bool {
				_, err := os.Stat(filepath.Join(d.Dir(), DoneDir, "existing.json"))
				return err == nil
			}, 5*time.Second, 20*time.Millisecond)

			drop(t, d.Dir(), "new.json", `[{"id": "fresh"}]`)

			assert.Eventually(t, func() bool {
				_, err := os.Stat(filepath.Join(d.Dir(), DoneDir, "new.json"))
				return err == nil
			}, 5*time.Second, 20*time.Millisecond)

			cancel()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Run did not stop after cancel")
			}

			assert.Equal(t, []call{
				{exhibit: "ap_ireland", ids: []string{"old"}},
				{exhibit: "ap_ireland", ids: []string{"fresh"}},
			}, ing.Calls())
			assert.FileExists(t, filepath.Join(d.Dir(), "notes.txt"))
		})
	}
}

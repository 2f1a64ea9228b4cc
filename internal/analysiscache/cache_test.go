package analysiscache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ziadkadry99/esg-benchmark/internal/coverage"
	"github.com/ziadkadry99/esg-benchmark/internal/db"
)

func sampleMap(level coverage.Level) coverage.Map {
	return coverage.Map{
		"기후변화 대응": coverage.NewResult(level, "matched: 탄소중립 추진 (similarity 90%)", []int{3, 7}),
		"리스크 관리":  coverage.NewResult(coverage.No, "issue not found", nil),
	}
}

func backends(t *testing.T) map[string]func() Backend {
	t.Helper()
	dir := t.TempDir()
	return map[string]func() Backend{
		"json": func() Backend { return NewJSONBackend(filepath.Join(dir, "benchmark_cache.json")) },
		"sqlite": func() Backend {
			database, err := db.Open(filepath.Join(dir, "esgbench.db"))
			if err != nil {
				t.Fatalf("open db: %v", err)
			}
			t.Cleanup(func() { database.Close() })
			return NewSQLiteBackend(database)
		},
	}
}

func TestCacheSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			c, err := New(ctx, mk(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := c.Put(ctx, "A", sampleMap(coverage.Yes)); err != nil {
				t.Fatal(err)
			}
			if err := c.Put(ctx, "B", sampleMap(coverage.Partially)); err != nil {
				t.Fatal(err)
			}

			restarted, err := New(ctx, mk(), nil)
			if err != nil {
				t.Fatal(err)
			}
			got, ok := restarted.Get("A")
			if !ok {
				t.Fatal("A missing after restart")
			}
			r := got["기후변화 대응"]
			if r.Coverage != coverage.Yes || len(r.SourcePages) != 2 || r.SourcePages[1] != 7 {
				t.Errorf("unexpected result after restart: %+v", r)
			}
			if names := restarted.Companies(); len(names) != 2 || names[0] != "A" || names[1] != "B" {
				t.Errorf("Companies() = %v", names)
			}
		})
	}
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			backend := mk()
			c, err := New(ctx, backend, nil)
			if err != nil {
				t.Fatal(err)
			}
			c.Put(ctx, "A", sampleMap(coverage.Yes))
			c.Put(ctx, "B", sampleMap(coverage.Yes))

			removed, err := c.Delete(ctx, "A")
			if err != nil || !removed {
				t.Fatalf("Delete(A) = %v, %v", removed, err)
			}
			removed, err = c.Delete(ctx, "missing")
			if err != nil || removed {
				t.Fatalf("Delete(missing) = %v, %v", removed, err)
			}

			all, err := backend.LoadAll(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := all["A"]; ok || len(all) != 1 {
				t.Errorf("backend still holds %v", all)
			}

			if err := c.Clear(ctx); err != nil {
				t.Fatal(err)
			}
			if c.Len() != 0 {
				t.Errorf("Len() = %d after clear", c.Len())
			}
			all, _ = backend.LoadAll(ctx)
			if len(all) != 0 {
				t.Errorf("backend not cleared: %v", all)
			}
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, NewJSONBackend(filepath.Join(t.TempDir(), "c.json")), nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Put(ctx, "A", sampleMap(coverage.Yes))

	got, _ := c.Get("A")
	got["기후변화 대응"] = coverage.NewResult(coverage.No, "mutated", nil)

	again, _ := c.Get("A")
	if again["기후변화 대응"].Coverage != coverage.Yes {
		t.Error("caller mutation leaked into the cache")
	}
}

type failingBackend struct {
	*JSONBackend
}

func (failingBackend) Put(context.Context, string, coverage.Map) error {
	return errors.New("disk full")
}

func TestPutKeepsMemoryOnPersistFailure(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, failingBackend{NewJSONBackend(filepath.Join(t.TempDir(), "c.json"))}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "A", sampleMap(coverage.Yes)); err == nil {
		t.Fatal("expected persist error")
	}
	if _, ok := c.Get("A"); !ok {
		t.Error("entry should still be served from memory")
	}
}

func TestJSONBackendCorruptFileKeepsPreviousEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "c.json")
	c, err := New(ctx, NewJSONBackend(path), nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Put(ctx, "A", sampleMap(coverage.Yes))

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(ctx); err == nil {
		t.Fatal("expected parse error")
	}
	if _, ok := c.Get("A"); !ok {
		t.Error("failed reload must not drop entries")
	}
}

func TestNewWithCorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "benchmark_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := New(ctx, NewJSONBackend(path), nil)
	if err != nil {
		t.Fatalf("New should tolerate an unreadable store: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}

	raw, err := os.ReadFile(path + ".corrupt")
	if err != nil {
		t.Fatalf("unreadable file not moved aside: %v", err)
	}
	if string(raw) != "{not json" {
		t.Errorf("moved file content = %q", raw)
	}

	if err := c.Put(ctx, "A", sampleMap(coverage.Yes)); err != nil {
		t.Fatal(err)
	}
	restarted, err := New(ctx, NewJSONBackend(path), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := restarted.Get("A"); !ok {
		t.Error("entry written after recovery should survive restart")
	}
	if raw, _ := os.ReadFile(path + ".corrupt"); string(raw) != "{not json" {
		t.Error("moved-aside file must not be overwritten")
	}
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Error("expected error for nil backend")
	}
}

func TestJSONBackup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "c.json")
	b := NewJSONBackend(path)

	if loc, err := b.Backup(ctx); err != nil || loc != "" {
		t.Fatalf("backup of missing file = %q, %v", loc, err)
	}

	c, _ := New(ctx, b, nil)
	c.Put(ctx, "A", sampleMap(coverage.Yes))
	loc, err := c.Backup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loc != path+".bak" {
		t.Errorf("backup location = %q", loc)
	}
	if _, err := os.Stat(loc); err != nil {
		t.Errorf("backup not written: %v", err)
	}
}

func TestSQLiteBackup(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(filepath.Join(t.TempDir(), "esgbench.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	c, _ := New(ctx, NewSQLiteBackend(database), nil)
	c.Put(ctx, "A", sampleMap(coverage.Yes))
	loc, err := c.Backup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := New(ctx, NewJSONBackend(loc), nil)
	if err != nil {
		t.Fatalf("backup is not readable as a JSON cache: %v", err)
	}
	if _, ok := restored.Get("A"); !ok {
		t.Error("backup missing company A")
	}
}

func TestWatcherRelevantEvents(t *testing.T) {
	w := NewWatcher(nil, "/data/benchmark_cache.json", nil)
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: "/data/benchmark_cache.json", Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: "/data/benchmark_cache.json", Op: fsnotify.Create}, true},
		{"remove", fsnotify.Event{Name: "/data/benchmark_cache.json", Op: fsnotify.Remove}, true},
		{"chmod", fsnotify.Event{Name: "/data/benchmark_cache.json", Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/data/benchmark_cache.json.tmp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.ev); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestWatcherReloadsOnExternalWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "benchmark_cache.json")
	c, err := New(ctx, NewJSONBackend(path), nil)
	if err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(c, path, nil)
	w.debounce = 20 * time.Millisecond
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	other := NewJSONBackend(path)
	if err := other.Put(ctx, "External", sampleMap(coverage.Yes)); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Reloaded():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
	if _, ok := c.Get("External"); !ok {
		t.Error("externally written company not visible after reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

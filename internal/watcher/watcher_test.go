package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

// recordingIngester records every path it is asked to ingest and reports
// paths it has seen before as skipped.
type recordingIngester struct {
	mu    sync.Mutex
	paths []string
	seen  map[string]bool
	fail  string
}

func (r *recordingIngester) IngestFileIfChanged(_ context.Context, path string) (*models.IngestResult, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	if r.fail != "" && strings.HasSuffix(path, r.fail) {
		return nil, false, errors.New("extraction failed")
	}
	if r.seen[path] {
		return nil, true, nil
	}
	r.seen[path] = true
	r.paths = append(r.paths, path)
	return &models.IngestResult{Key: "corpus_" + filepath.Base(path), Source: path, Records: 1}, false, nil
}

func (r *recordingIngester) ingested() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(nil, []string{".txt"}, true, &recordingIngester{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || filepath.Clean(dirs[0]) != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
}

func TestWatcher_DebounceAndExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := mkdirAll(sub); err != nil {
		t.Fatal(err)
	}

	ing := &recordingIngester{}
	var hooked []string
	var mu sync.Mutex
	hook := func(path string, res *models.IngestResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil && res != nil {
			hooked = append(hooked, res.Key)
		}
	}
	w := NewWatcher([]string{dir}, []string{".txt"}, true, ing, WithDebounce(100*time.Millisecond), WithIngestHook(hook))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(sub, "f.txt")
	for i := 0; i < 5; i++ {
		if err := writeFile(fPath, strings.Repeat("hello ", i+1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writeFile(filepath.Join(sub, "ignored.bin"), "x"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(ing.ingested()) >= 1 })
	time.Sleep(300 * time.Millisecond)
	got := ing.ingested()
	if len(got) != 1 || !strings.HasSuffix(got[0], "f.txt") {
		t.Errorf("expected f.txt ingested once, got %v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(hooked) != 1 || hooked[0] != "corpus_f.txt" {
		t.Errorf("hook saw %v", hooked)
	}
}

func TestWatcher_RemoveCancelsPending(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngester{}
	w := NewWatcher([]string{dir}, nil, true, ing, WithDebounce(300*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	fPath := filepath.Join(dir, "gone.txt")
	if err := writeFile(fPath, "short lived"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := os.Remove(fPath); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)
	if got := ing.ingested(); len(got) != 0 {
		t.Errorf("removed file was ingested: %v", got)
	}
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.pdf", []string{"pdf"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/ab", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}

	ing := &recordingIngester{}
	w := NewWatcher([]string{dir}, []string{".txt"}, true, ing)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	w.SyncExistingFiles()
	w.SyncExistingFiles()

	got := ing.ingested()
	if len(got) != 1 || !strings.HasSuffix(got[0], "a.txt") {
		t.Errorf("expected one ingested file a.txt, got %v", got)
	}
}

func TestWatcher_IngestFailureReachesHook(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "broken.docx"), "not a zip"); err != nil {
		t.Fatal(err)
	}
	var errs []error
	hook := func(_ string, _ *models.IngestResult, err error) { errs = append(errs, err) }
	w := NewWatcher([]string{dir}, nil, false, &recordingIngester{fail: "broken.docx"}, WithIngestHook(hook))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	w.SyncExistingFiles()
	if len(errs) != 1 || errs[0] == nil {
		t.Errorf("hook errors = %v, want one failure", errs)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "watch", "me")

	w := NewWatcher([]string{root}, []string{".txt"}, true, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_NewDirectory_ingestsFilesInside(t *testing.T) {
	dir := t.TempDir()
	ing := &recordingIngester{}
	w := NewWatcher([]string{dir}, []string{".txt", ".md"}, true, ing, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	nested := filepath.Join(dir, "new-folder", "level2")
	if err := mkdirAll(nested); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "new-folder", "doc1.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "doc2.md"), "world"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "ignore.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(ing.ingested()) >= 2 })
	for _, p := range ing.ingested() {
		if strings.HasSuffix(p, "ignore.xyz") {
			t.Errorf("ignore.xyz should not be ingested")
		}
	}
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

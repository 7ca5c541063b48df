package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const longText = "The inbox watcher ingests every new document into its own corpus. " +
	"Each corpus is stored once and never modified after it has been saved."

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".txt", []string{".txt", ".md"}, true},
		{".TXT", []string{".txt"}, true},
		{".md", []string{"txt", "md"}, true},
		{".go", []string{".txt"}, false},
		{"", []string{".txt"}, false},
		{".rst", []string{".txt", ".md", ".rst"}, true},
	}
	for _, tt := range tests {
		got := extensionAllowed(tt.ext, tt.allowed)
		if got != tt.want {
			t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}

func testIndexer(t *testing.T, dir string, exts []string) (*Indexer, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(dir, "data"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	builder := NewBuilder(embedding.NewHashModel(8), 2)
	return NewIndexer(builder, store, WithExtensions(exts), WithLogger(zap.NewNop())), store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestIngestText(t *testing.T) {
	dir := t.TempDir()
	idx, store := testIndexer(t, dir, nil)
	ctx := context.Background()

	res, err := idx.IngestText(ctx, "inline", longText)
	if err != nil {
		t.Fatalf("IngestText: %v", err)
	}
	if res.Records != 2 || res.Source != "inline" || res.Key == "" {
		t.Errorf("unexpected result: %+v", res)
	}
	corpus, err := store.Load(ctx, res.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if corpus.Len() != 2 || corpus.Records[0].ID != 1 || corpus.Records[1].ID != 2 {
		t.Errorf("unexpected corpus: %+v", corpus.Records)
	}
}

func TestIngestText_emptyCorpusIsSaved(t *testing.T) {
	dir := t.TempDir()
	idx, store := testIndexer(t, dir, nil)
	ctx := context.Background()

	res, err := idx.IngestText(ctx, "", "Too short.")
	if err != nil {
		t.Fatalf("IngestText: %v", err)
	}
	if res.Records != 0 {
		t.Errorf("Records = %d, want 0", res.Records)
	}
	corpus, err := store.Load(ctx, res.Key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if corpus.Len() != 0 {
		t.Errorf("corpus has %d records, want 0", corpus.Len())
	}
}

func TestIngestText_failureSavesNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(filepath.Join(dir, "data"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	emb := &fakeEmbedder{dims: 4, failOn: "never modified", failWith: embedding.ErrModelUnavailable}
	idx := NewIndexer(NewBuilder(emb, 1), store)

	if _, err := idx.IngestText(context.Background(), "", longText); !errors.Is(err, ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
	infos, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("store has %d corpora after a failed build, want 0", len(infos))
	}
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	idx, store := testIndexer(t, dir, []string{".txt", ".md"})
	ctx := context.Background()

	fPath := filepath.Join(dir, "doc.txt")
	writeFile(t, fPath, longText)
	res, err := idx.IngestFile(ctx, fPath)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	abs, _ := filepath.Abs(fPath)
	if res.Source != abs || res.Records != 2 {
		t.Errorf("unexpected result: %+v", res)
	}

	// Re-ingesting always creates a new corpus.
	res2, err := idx.IngestFile(ctx, fPath)
	if err != nil {
		t.Fatal(err)
	}
	if res2.Key == res.Key {
		t.Errorf("second ingest reused key %q", res.Key)
	}
	infos, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 {
		t.Errorf("List returned %d corpora, want 2", len(infos))
	}
}

func TestIngestFile_extensionFiltered(t *testing.T) {
	dir := t.TempDir()
	idx, _ := testIndexer(t, dir, []string{".txt", ".md"})

	fPath := filepath.Join(dir, "script.sh")
	writeFile(t, fPath, "#!/bin/bash")
	_, err := idx.IngestFile(context.Background(), fPath)
	if !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("expected ErrUnsupportedExtension, got %v", err)
	}
}

func TestIngestFile_notRegularFile(t *testing.T) {
	dir := t.TempDir()
	idx, _ := testIndexer(t, dir, nil)
	if _, err := idx.IngestFile(context.Background(), dir); err == nil {
		t.Error("expected error for directory")
	}
}

func TestIngestFile_nonexistent(t *testing.T) {
	dir := t.TempDir()
	idx, _ := testIndexer(t, dir, nil)
	_, err := idx.IngestFile(context.Background(), filepath.Join(dir, "missing.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestIngestFile_extractionFailure(t *testing.T) {
	dir := t.TempDir()
	idx, _ := testIndexer(t, dir, []string{".docx"})
	fPath := filepath.Join(dir, "broken.docx")
	writeFile(t, fPath, "not a zip archive")
	_, err := idx.IngestFile(context.Background(), fPath)
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("expected ErrExtraction, got %v", err)
	}
}

func TestIngestFile_excel(t *testing.T) {
	dir := t.TempDir()
	idx, store := testIndexer(t, dir, []string{".xlsx"})

	fPath := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Quarterly revenue grew steadily across every region")
	f.SetCellValue("Sheet1", "B1", "with the strongest growth in the northern offices")
	f.SetCellValue("Sheet1", "A2", "short row")
	if err := f.SaveAs(fPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	ctx := context.Background()
	res, err := idx.IngestFile(ctx, fPath)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	corpus, err := store.Load(ctx, res.Key)
	if err != nil {
		t.Fatal(err)
	}
	want := "Quarterly revenue grew steadily across every region with the strongest growth in the northern offices"
	if corpus.Len() != 1 || corpus.Records[0].Text != want {
		t.Errorf("unexpected records: %+v", corpus.Records)
	}
}

func TestIngestFileIfChanged(t *testing.T) {
	dir := t.TempDir()
	idx, _ := testIndexer(t, dir, nil)
	ctx := context.Background()

	fPath := filepath.Join(dir, "note.md")
	writeFile(t, fPath, longText)

	res, skipped, err := idx.IngestFileIfChanged(ctx, fPath)
	if err != nil || skipped || res == nil {
		t.Fatalf("first ingest: res=%v skipped=%v err=%v", res, skipped, err)
	}
	res, skipped, err = idx.IngestFileIfChanged(ctx, fPath)
	if err != nil || !skipped || res != nil {
		t.Fatalf("unchanged file: res=%v skipped=%v err=%v", res, skipped, err)
	}

	writeFile(t, fPath, longText+" A third sentence that is long enough to be kept as well.")
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(fPath, later, later); err != nil {
		t.Fatal(err)
	}
	res, skipped, err = idx.IngestFileIfChanged(ctx, fPath)
	if err != nil || skipped || res == nil {
		t.Fatalf("changed file: res=%v skipped=%v err=%v", res, skipped, err)
	}
	if res.Records != 3 {
		t.Errorf("Records = %d, want 3", res.Records)
	}
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	sub := filepath.Join(docs, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	idx, store := testIndexer(t, dir, []string{".txt"})
	writeFile(t, filepath.Join(docs, "a.txt"), longText)
	writeFile(t, filepath.Join(docs, "b.txt"), longText)
	writeFile(t, filepath.Join(sub, "c.txt"), longText)
	writeFile(t, filepath.Join(docs, "skip.xyz"), longText)

	results, err := idx.IngestDirectory(context.Background(), docs)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("IngestDirectory: ingested %d files, want 3", len(results))
	}
	infos, err := store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 3 {
		t.Errorf("store has %d corpora, want 3", len(infos))
	}
}

func TestIngestDirectory_notDirectory(t *testing.T) {
	dir := t.TempDir()
	idx, _ := testIndexer(t, dir, nil)
	fPath := filepath.Join(dir, "file.txt")
	writeFile(t, fPath, longText)
	if _, err := idx.IngestDirectory(context.Background(), fPath); err == nil {
		t.Error("expected error for a file path")
	}
}

func TestIngestBytes(t *testing.T) {
	dir := t.TempDir()
	idx, store := testIndexer(t, dir, []string{".txt", ".docx"})
	ctx := context.Background()

	res, err := idx.IngestBytes(ctx, "upload.txt", []byte(longText))
	if err != nil {
		t.Fatalf("IngestBytes: %v", err)
	}
	if res.Source != "upload.txt" || res.Records != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if _, err := store.Load(ctx, res.Key); err != nil {
		t.Fatal(err)
	}

	if _, err := idx.IngestBytes(ctx, "upload.exe", []byte(longText)); !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("expected ErrUnsupportedExtension, got %v", err)
	}
	if _, err := idx.IngestBytes(ctx, "upload.docx", []byte("garbage")); !errors.Is(err, ErrExtraction) {
		t.Errorf("expected ErrExtraction, got %v", err)
	}
}

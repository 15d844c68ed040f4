package importer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neilberkman/researchtrail/internal/core/capture"
	"github.com/neilberkman/researchtrail/internal/core/db"
	"github.com/neilberkman/researchtrail/internal/core/export"
	"github.com/neilberkman/researchtrail/internal/core/models"
)

func newEngine(t *testing.T) *capture.Engine {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "trail.db"))
	if err != nil {
		t.Fatal(err)
	}
	engine := capture.New(database, nil)
	t.Cleanup(func() {
		engine.Close()
		_ = database.Close()
	})
	return engine
}

func sampleSession(id string) *models.Session {
	ended := int64(1700000600000)
	return &models.Session{
		ID:        id,
		TopicName: "Rust async",
		StartedAt: 1700000000000,
		EndedAt:   &ended,
		Pages: []models.PageEntry{
			{Order: 1, URL: "https://tokio.rs", Title: "Tokio", OpenedAt: 1700000100000, TabID: 3, Status: models.StatusComplete},
			{Order: 2, URL: "https://docs.rs/futures", Title: "futures", OpenedAt: 1700000200000, TabID: 3, Status: models.StatusLoading},
		},
	}
}

func writeExport(t *testing.T, dir string, exporter export.Exporter, doc export.Document) string {
	t.Helper()
	var buf bytes.Buffer
	if err := exporter.Export(doc, &buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, export.Filename(doc.Session, exporter.Extension()))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportFile(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)
	dir := t.TempDir()

	path := writeExport(t, dir, &export.JSONExporter{}, export.Document{Session: sampleSession("s1"), Notes: "tokio first"})

	imp := New(engine)
	session, added, err := imp.ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if !added || session.ID != "s1" {
		t.Fatalf("ImportFile() = %v, %v", session, added)
	}

	got, err := engine.Session(ctx, "s1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if len(got.Pages) != 2 || got.Pages[1].Status != models.StatusComplete {
		t.Errorf("imported pages = %+v", got.Pages)
	}
	notes, _ := engine.LoadNotes(ctx, "s1")
	if notes != "tokio first" {
		t.Errorf("notes = %q", notes)
	}

	// A second import of the same session is skipped
	_, added, err = imp.ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if added {
		t.Error("duplicate import should be skipped")
	}
	sessions, _ := engine.Sessions(ctx)
	if len(sessions) != 1 {
		t.Errorf("history has %d sessions, want 1", len(sessions))
	}
}

func TestImportFile_YAML(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)

	path := writeExport(t, t.TempDir(), &export.YAMLExporter{}, export.Document{Session: sampleSession("y1")})

	if _, added, err := New(engine).ImportFile(ctx, path); err != nil || !added {
		t.Fatalf("ImportFile() = %v, %v", added, err)
	}

	got, err := engine.Session(ctx, "y1")
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got.TopicName != "Rust async" || got.EndedAt == nil || got.Pages[0].TabID != 3 {
		t.Errorf("imported session = %+v", got)
	}
}

func TestImportFile_Rejects(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)
	dir := t.TempDir()
	imp := New(engine)

	active := sampleSession("active")
	active.EndedAt = nil
	activePath := writeExport(t, dir, &export.JSONExporter{}, export.Document{Session: active})

	gap := sampleSession("gap")
	gap.Pages[1].Order = 5
	gapPath := writeExport(t, dir, &export.JSONExporter{}, export.Document{Session: gap})

	mdPath := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(mdPath, []byte("# hi"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{activePath, gapPath, mdPath} {
		if _, _, err := imp.ImportFile(ctx, path); err == nil {
			t.Errorf("ImportFile(%s) expected error", filepath.Base(path))
		}
	}
}

func TestImportFile_SkipsActiveSession(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)

	current, err := engine.StartSession(ctx, "live")
	if err != nil {
		t.Fatal(err)
	}
	path := writeExport(t, t.TempDir(), &export.JSONExporter{}, export.Document{Session: sampleSession(current.ID)})

	_, added, err := New(engine).ImportFile(ctx, path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if added {
		t.Error("a session with the active id must not be imported")
	}
}

type recordingProgress struct {
	labels   []string
	finished bool
}

func (p *recordingProgress) Update(label string) { p.labels = append(p.labels, label) }
func (p *recordingProgress) Finish()             { p.finished = true }

func TestImportDirectory(t *testing.T) {
	ctx := context.Background()
	engine := newEngine(t)
	dir := t.TempDir()

	writeExport(t, dir, &export.JSONExporter{}, export.Document{Session: sampleSession("a")})
	writeExport(t, dir, &export.YAMLExporter{}, export.Document{Session: sampleSession("b")})
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	if n := CountFiles(dir); n != 3 {
		t.Errorf("CountFiles() = %d, want 3", n)
	}

	progress := &recordingProgress{}
	stats, err := New(engine).ImportDirectory(ctx, dir, progress)
	if err != nil {
		t.Fatalf("ImportDirectory() error = %v", err)
	}
	if stats.Imported != 2 || stats.Failed != 1 || stats.Skipped != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(progress.labels) != 3 || !progress.finished {
		t.Errorf("progress = %+v", progress)
	}

	// Re-running skips everything already recorded
	stats, err = New(engine).ImportDirectory(ctx, dir, nil)
	if err != nil {
		t.Fatalf("ImportDirectory() error = %v", err)
	}
	if stats.Imported != 0 || stats.Skipped != 2 {
		t.Errorf("second run stats = %+v", stats)
	}
}

func TestProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf, 2)
	p.Update("Rust async")
	p.Update(strings.Repeat("x", 100))
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "(1/2)") || !strings.Contains(out, "100%") {
		t.Errorf("unexpected progress output %q", out)
	}
	if !strings.Contains(out, "processed 2 files") {
		t.Errorf("missing summary in %q", out)
	}
}

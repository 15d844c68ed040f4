package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neilberkman/researchtrail/internal/core/export"
)

// Document returns an archived session together with its notes
func (e *Engine) Document(ctx context.Context, sessionID string) (export.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.findSession(ctx, sessionID)
	if err != nil {
		return export.Document{}, err
	}
	notes, err := e.readNotes(ctx)
	if err != nil {
		return export.Document{}, err
	}
	return export.Document{Session: session, Notes: notes[sessionID]}, nil
}

// SessionMarkdown renders an archived session and its notes as markdown
func (e *Engine) SessionMarkdown(ctx context.Context, sessionID string) (string, error) {
	doc, err := e.Document(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return export.Markdown(doc.Session, doc.Notes, e.loc), nil
}

// ExportSession writes the markdown document for an archived session
// into the export directory and returns the file path.
func (e *Engine) ExportSession(ctx context.Context, sessionID string) (string, error) {
	return e.ExportSessionAs(ctx, sessionID, &export.MarkdownExporter{Location: e.loc}, "")
}

// ExportSessionAs writes the session with exporter to path. An empty path
// writes to the export directory under the default file name.
func (e *Engine) ExportSessionAs(ctx context.Context, sessionID string, exporter export.Exporter, path string) (string, error) {
	doc, err := e.Document(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := exporter.Export(doc, &buf); err != nil {
		return "", fmt.Errorf("render session %s: %w", sessionID, err)
	}

	if path == "" {
		path = filepath.Join(e.exportDir, export.Filename(doc.Session, exporter.Extension()))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	return path, nil
}

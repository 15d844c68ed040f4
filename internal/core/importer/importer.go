package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/neilberkman/researchtrail/internal/core/export"
	"github.com/neilberkman/researchtrail/internal/core/models"
)

// Target receives decoded sessions
type Target interface {
	ImportSession(ctx context.Context, doc export.Document) (bool, error)
}

// Importer loads structured session exports back into the history
type Importer struct {
	target Target
}

// New creates a new importer
func New(target Target) *Importer {
	return &Importer{target: target}
}

// Stats summarizes a directory import
type Stats struct {
	Imported int
	Skipped  int // already recorded
	Failed   int
}

// record mirrors the structured export shape
type record struct {
	models.Session `yaml:",inline"`
	Notes          string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Decode reads one JSON or YAML export. format is "json" or "yaml".
func Decode(r io.Reader, format string) (export.Document, error) {
	var rec record
	switch strings.ToLower(format) {
	case "json":
		if err := json.NewDecoder(r).Decode(&rec); err != nil {
			return export.Document{}, fmt.Errorf("failed to decode json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&rec); err != nil {
			return export.Document{}, fmt.Errorf("failed to decode yaml: %w", err)
		}
	default:
		return export.Document{}, fmt.Errorf("unsupported format: %s (supported: json, yaml)", format)
	}

	session := rec.Session
	return export.Document{Session: &session, Notes: rec.Notes}, nil
}

// formatOf maps a file extension to a decode format, or ""
func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

// ImportFile imports one export file. It reports false when the session
// was already recorded.
func (i *Importer) ImportFile(ctx context.Context, path string) (*models.Session, bool, error) {
	format := formatOf(path)
	if format == "" {
		return nil, false, fmt.Errorf("%s: unsupported file type", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = file.Close()
	}()

	doc, err := Decode(file, format)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}

	added, err := i.target.ImportSession(ctx, doc)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return doc.Session, added, nil
}

// ImportDirectory imports every .json/.yaml/.yml export under dir.
// Files that fail are counted and reported on stderr; the walk continues.
func (i *Importer) ImportDirectory(ctx context.Context, dir string, progress ProgressCallback) (Stats, error) {
	var stats Stats

	var files []string
	if err := walkExports(dir, func(path string) { files = append(files, path) }); err != nil {
		return stats, fmt.Errorf("failed to walk directory: %w", err)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		session, added, err := i.ImportFile(ctx, file)
		label := filepath.Base(file)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "Warning: failed to import %s: %v\n", file, err)
			stats.Failed++
		case added:
			stats.Imported++
			label = session.TopicName
		default:
			stats.Skipped++
			label = session.TopicName
		}

		if progress != nil {
			progress.Update(label)
		}
	}

	if progress != nil {
		progress.Finish()
	}
	return stats, nil
}

// walkExports calls fn for every export file under dir
func walkExports(dir string, fn func(path string)) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && formatOf(path) != "" {
			fn(path)
		}
		return nil
	})
}

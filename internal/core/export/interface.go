// Package export renders research sessions as documents.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/neilberkman/researchtrail/internal/core/models"
)

// Document is a session together with its notes
type Document struct {
	Session *models.Session
	Notes   string
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(doc Document, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format. loc only affects markdown.
func NewExporter(format string, loc *time.Location) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return &MarkdownExporter{Location: loc}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: md, json, yaml)", format)
	}
}

// record is the structured export shape: session fields plus notes
type record struct {
	models.Session `yaml:",inline"`
	Notes          string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

func newRecord(doc Document) record {
	return record{Session: *doc.Session, Notes: doc.Notes}
}

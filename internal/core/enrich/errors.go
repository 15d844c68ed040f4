package enrich

import (
	"errors"
	"fmt"
)

// ExtractionError means no page text could be obtained for a URL
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ErrNoContent is wrapped in an ExtractionError when a page has no visible text
var ErrNoContent = errors.New("no visible text")

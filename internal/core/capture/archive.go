package capture

import (
	"context"
	"fmt"

	"github.com/neilberkman/researchtrail/internal/core/export"
	"github.com/neilberkman/researchtrail/internal/core/models"
)

// ImportSession adds a finished session and its notes to the history.
// It reports false without writing when the id is already recorded or
// is the active session. Pages still marked loading are completed with
// the title they carry, since they can no longer be enriched.
func (e *Engine) ImportSession(ctx context.Context, doc export.Document) (bool, error) {
	if doc.Session == nil {
		return false, fmt.Errorf("import: no session")
	}
	s := doc.Session.Clone()
	if err := s.Validate(); err != nil {
		return false, fmt.Errorf("import session %s: %w", s.ID, err)
	}
	if s.Active() {
		return false, fmt.Errorf("import session %s: session has no end time", s.ID)
	}
	for i := range s.Pages {
		s.Pages[i].Status = models.StatusComplete
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if e.current != nil && e.current.ID == s.ID {
		return false, nil
	}
	history, err := e.readSessions(ctx)
	if err != nil {
		return false, err
	}
	if indexOf(history, s.ID) >= 0 {
		return false, nil
	}

	entries := map[string][]byte{}
	if entries[KeySessions], err = encodeSessions(append(history, *s)); err != nil {
		return false, err
	}
	if doc.Notes != "" {
		notes, err := e.readNotes(ctx)
		if err != nil {
			return false, err
		}
		notes[s.ID] = doc.Notes
		if entries[KeyNotes], err = encodeNotes(notes); err != nil {
			return false, err
		}
	}

	if err := e.store.Set(ctx, entries); err != nil {
		return false, fmt.Errorf("import session %s: %w", s.ID, err)
	}
	return true, nil
}

package capture

import (
	"context"
	"fmt"
)

// SaveNotes replaces the notes stored for a session
func (e *Engine) SaveNotes(ctx context.Context, sessionID, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	notes, err := e.readNotes(ctx)
	if err != nil {
		return err
	}
	notes[sessionID] = content

	value, err := encodeNotes(notes)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, map[string][]byte{KeyNotes: value}); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}

// LoadNotes returns the notes for a session, or "" when none are stored
func (e *Engine) LoadNotes(ctx context.Context, sessionID string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	notes, err := e.readNotes(ctx)
	if err != nil {
		return "", err
	}
	return notes[sessionID], nil
}

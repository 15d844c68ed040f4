package capture

import (
	"context"
	"fmt"
	"log"

	"github.com/neilberkman/researchtrail/internal/core/models"
)

// StartSession begins a new session. An active session is stopped and
// archived first, in the same write that installs the new one.
func (e *Engine) StartSession(ctx context.Context, topicName string) (*models.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	entries := map[string][]byte{}
	if e.current != nil {
		finished, err := e.archiveEntries(ctx, entries)
		if err != nil {
			return nil, err
		}
		log.Printf("auto-stopped session %s (%d pages) before starting a new one", finished.ID, len(finished.Pages))
	}

	session := &models.Session{
		ID:        e.newID(),
		TopicName: models.NormalizeTopic(topicName),
		StartedAt: models.Millis(e.now()),
		Pages:     []models.PageEntry{},
	}
	value, err := encodeSession(session)
	if err != nil {
		return nil, err
	}
	entries[KeyCurrentSession] = value

	if err := e.store.Set(ctx, entries); err != nil {
		return nil, fmt.Errorf("save new session: %w", err)
	}
	e.setCurrent(session)

	return session.Clone(), nil
}

// StopSession ends the active session and moves it to the history.
// It returns nil when no session is active.
func (e *Engine) StopSession(ctx context.Context) (*models.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if e.current == nil {
		return nil, nil
	}

	entries := map[string][]byte{KeyCurrentSession: nil}
	finished, err := e.archiveEntries(ctx, entries)
	if err != nil {
		return nil, err
	}

	if err := e.store.Set(ctx, entries); err != nil {
		return nil, fmt.Errorf("archive session: %w", err)
	}
	e.setCurrent(nil)

	return finished, nil
}

// archiveEntries stamps the end time on a copy of the current session
// and adds the updated history to entries. Nothing is written.
func (e *Engine) archiveEntries(ctx context.Context, entries map[string][]byte) (*models.Session, error) {
	history, err := e.readSessions(ctx)
	if err != nil {
		return nil, err
	}

	finished := e.current.Clone()
	ended := models.Millis(e.now())
	if ended < finished.StartedAt {
		ended = finished.StartedAt
	}
	finished.EndedAt = &ended

	history = append(history, *finished)
	value, err := encodeSessions(history)
	if err != nil {
		return nil, err
	}
	entries[KeySessions] = value

	return finished, nil
}

// CurrentSession rehydrates from the store and returns the active
// session, or nil when idle.
func (e *Engine) CurrentSession(ctx context.Context) (*models.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(ctx); err != nil {
		return nil, err
	}
	return e.current.Clone(), nil
}

// Sessions returns the archived sessions in the order they were stopped
func (e *Engine) Sessions(ctx context.Context) ([]models.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.readSessions(ctx)
}

// Session returns one archived session
func (e *Engine) Session(ctx context.Context, id string) (*models.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.findSession(ctx, id)
}

func (e *Engine) findSession(ctx context.Context, id string) (*models.Session, error) {
	history, err := e.readSessions(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(history, id)
	if i < 0 {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &history[i], nil
}

// DeleteSession removes an archived session and its notes. Unknown ids
// are a no-op. Pending enrichment for the session is discarded.
func (e *Engine) DeleteSession(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}
	history, err := e.readSessions(ctx)
	if err != nil {
		return err
	}
	notes, err := e.readNotes(ctx)
	if err != nil {
		return err
	}

	i := indexOf(history, id)
	if i < 0 && e.current != nil && e.current.ID == id {
		// The active session is never deleted, nor are its notes
		return nil
	}
	_, hasNotes := notes[id]
	if i < 0 && !hasNotes {
		return nil
	}

	entries := map[string][]byte{}
	if i >= 0 {
		history = append(history[:i], history[i+1:]...)
		if entries[KeySessions], err = encodeSessions(history); err != nil {
			return err
		}
	}
	if hasNotes {
		delete(notes, id)
		if entries[KeyNotes], err = encodeNotes(notes); err != nil {
			return err
		}
	}

	if err := e.store.Set(ctx, entries); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	e.discardPending(func(j *enrichJob) bool { return j.sessionID == id && !e.isCurrentJob(j) })

	return nil
}

// DeleteAllSessions clears the history and all notes. The active session is kept.
func (e *Engine) DeleteAllSessions(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, _ := encodeSessions(nil)
	notes, _ := encodeNotes(nil)
	if err := e.store.Set(ctx, map[string][]byte{KeySessions: sessions, KeyNotes: notes}); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	e.discardPending(func(j *enrichJob) bool { return !e.isCurrentJob(j) })

	return nil
}

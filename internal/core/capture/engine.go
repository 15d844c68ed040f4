// Package capture owns research session state: lifecycle, navigation
// capture and title enrichment of recorded pages.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neilberkman/researchtrail/internal/core/enrich"
	"github.com/neilberkman/researchtrail/internal/core/models"
)

// Store keys. Values are JSON in the shape the browser extension uses.
const (
	KeyCurrentSession = "currentSession"
	KeySessions       = "sessions"
	KeyNotes          = "notes"
)

// Store is the durable key/value collaborator. Set must apply all
// entries together; a nil value deletes the key.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, entries map[string][]byte) error
}

// TitleEnricher produces a title for a loaded page
type TitleEnricher interface {
	Title(ctx context.Context, page enrich.Page) (string, error)
}

// DefaultEnrichTimeout bounds one enrichment attempt
const DefaultEnrichTimeout = 30 * time.Second

// Engine is the single owner of the current session. All state reads,
// mutations and their persistence happen under mu.
type Engine struct {
	mu    sync.Mutex
	store Store

	enricher      TitleEnricher
	now           func() time.Time
	newID         func() string
	exportDir     string
	loc           *time.Location
	enrichTimeout time.Duration

	loaded  bool
	current *models.Session
	order   int
	gen     uint64 // bumped whenever a different session becomes current
	pending []*enrichJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator sets the session id generator
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithExportDir sets where exported documents are written
func WithExportDir(dir string) Option {
	return func(e *Engine) { e.exportDir = dir }
}

// WithLocation sets the time zone used when rendering documents
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithEnrichTimeout bounds each enrichment attempt
func WithEnrichTimeout(d time.Duration) Option {
	return func(e *Engine) { e.enrichTimeout = d }
}

// New creates an engine over store. A nil enricher always uses the
// browser title. State is rehydrated lazily on first use.
func New(store Store, enricher TitleEnricher, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		enricher:      enricher,
		now:           time.Now,
		newID:         uuid.NewString,
		exportDir:     ".",
		loc:           time.Local,
		enrichTimeout: DefaultEnrichTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

// Wait blocks until all scheduled enrichments have been applied
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close cancels in-flight enrichment and waits for it to resolve.
// Cancelled enrichments still complete their page with the fallback title.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}

// ensureLoaded rehydrates once after construction. Callers hold mu.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	if e.loaded {
		return nil
	}
	return e.reload(ctx)
}

// reload replaces the in-memory session with the stored one. A current
// session whose id is already archived is the remains of an interrupted
// stop and is cleared. Callers hold mu.
func (e *Engine) reload(ctx context.Context) error {
	data, err := e.store.Get(ctx, KeyCurrentSession, KeySessions)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	current, err := decodeSession(data[KeyCurrentSession])
	if err != nil {
		return fmt.Errorf("decode %s: %w", KeyCurrentSession, err)
	}

	if current != nil {
		history, err := decodeSessions(data[KeySessions])
		if err != nil {
			return fmt.Errorf("decode %s: %w", KeySessions, err)
		}
		if indexOf(history, current.ID) >= 0 {
			log.Printf("session %s already archived, clearing current record", current.ID)
			if err := e.store.Set(ctx, map[string][]byte{KeyCurrentSession: nil}); err != nil {
				return fmt.Errorf("clear current session: %w", err)
			}
			current = nil
		}
	}

	e.setCurrent(current)
	e.loaded = true
	return nil
}

// setCurrent installs s as the current session and syncs the order counter
func (e *Engine) setCurrent(s *models.Session) {
	if s == nil || e.current == nil || e.current.ID != s.ID {
		e.gen++
	}
	e.current = s
	e.order = 0
	if s != nil {
		e.order = len(s.Pages)
	}
}

// saveCurrent persists s (nil clears) and installs it on success
func (e *Engine) saveCurrent(ctx context.Context, s *models.Session) error {
	value, err := encodeSession(s)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, map[string][]byte{KeyCurrentSession: value}); err != nil {
		return fmt.Errorf("save current session: %w", err)
	}
	e.current = s
	return nil
}

func (e *Engine) readSessions(ctx context.Context) ([]models.Session, error) {
	data, err := e.store.Get(ctx, KeySessions)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return decodeSessions(data[KeySessions])
}

func (e *Engine) readNotes(ctx context.Context) (map[string]string, error) {
	data, err := e.store.Get(ctx, KeyNotes)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	notes := map[string]string{}
	if raw := data[KeyNotes]; len(raw) > 0 {
		if err := json.Unmarshal(raw, &notes); err != nil {
			return nil, fmt.Errorf("decode %s: %w", KeyNotes, err)
		}
	}
	return notes, nil
}

func decodeSession(raw []byte) (*models.Session, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Pages == nil {
		s.Pages = []models.PageEntry{}
	}
	return &s, nil
}

func encodeSession(s *models.Session) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func decodeSessions(raw []byte) ([]models.Session, error) {
	sessions := []models.Session{}
	if len(raw) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	for i := range sessions {
		if sessions[i].Pages == nil {
			sessions[i].Pages = []models.PageEntry{}
		}
	}
	return sessions, nil
}

func encodeSessions(sessions []models.Session) ([]byte, error) {
	if sessions == nil {
		sessions = []models.Session{}
	}
	return json.Marshal(sessions)
}

func encodeNotes(notes map[string]string) ([]byte, error) {
	if notes == nil {
		notes = map[string]string{}
	}
	return json.Marshal(notes)
}

func indexOf(sessions []models.Session, id string) int {
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

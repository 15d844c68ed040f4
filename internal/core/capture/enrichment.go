package capture

import (
	"context"
	"fmt"
	"log"

	"github.com/neilberkman/researchtrail/internal/core/enrich"
	"github.com/neilberkman/researchtrail/internal/core/models"
)

// LoadEvent reports that a tab finished loading, successfully or not
type LoadEvent struct {
	TabID    int    `json:"tabId"`
	URL      string `json:"url"`
	Title    string `json:"title"`    // tab title at completion
	Content  string `json:"content"`  // visible page text, optional
	MIMEType string `json:"mimeType"` // document content type, optional
	Failed   bool   `json:"failed"`
}

// enrichJob identifies one page entry awaiting its final title
type enrichJob struct {
	sessionID string
	gen       uint64
	order     int
	url       string
	openedAt  int64
	discarded bool
}

// HandleLoadComplete schedules title enrichment for the most recent
// loading page of the tab. It reports whether enrichment was scheduled;
// a second completion for the same page is ignored.
func (e *Engine) HandleLoadComplete(ctx context.Context, ev LoadEvent) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if e.current == nil {
		return false, nil
	}

	idx := -1
	for i := len(e.current.Pages) - 1; i >= 0; i-- {
		p := e.current.Pages[i]
		if p.TabID != ev.TabID || p.Status != models.StatusLoading {
			continue
		}
		if ev.URL != "" && p.URL != ev.URL {
			continue
		}
		idx = i
		break
	}
	if idx < 0 {
		return false, nil
	}
	page := e.current.Pages[idx]

	for _, j := range e.pending {
		if j.sessionID == e.current.ID && j.gen == e.gen && j.order == page.Order {
			return false, nil
		}
	}

	// The load event's title counts as a progressive update
	if ev.Title != "" && ev.Title != page.Title {
		next := e.current.Clone()
		next.Pages[idx].Title = ev.Title
		if err := e.saveCurrent(ctx, next); err != nil {
			return false, err
		}
	}

	job := &enrichJob{
		sessionID: e.current.ID,
		gen:       e.gen,
		order:     page.Order,
		url:       page.URL,
		openedAt:  page.OpenedAt,
	}
	e.pending = append(e.pending, job)

	input := enrich.Page{
		URL:      page.URL,
		Title:    ev.Title,
		Content:  ev.Content,
		MIMEType: ev.MIMEType,
	}

	e.wg.Add(1)
	go e.runEnrichment(job, input, ev.Failed)

	return true, nil
}

// runEnrichment resolves a title outside the lock, then applies it
func (e *Engine) runEnrichment(job *enrichJob, page enrich.Page, failed bool) {
	defer e.wg.Done()

	var title string
	switch {
	case failed:
		// Failed loads go straight to the fallback title
	case e.enricher == nil:
	default:
		ctx, cancel := context.WithTimeout(e.ctx, e.enrichTimeout)
		generated, err := e.enricher.Title(ctx, page)
		cancel()
		if err != nil {
			log.Printf("title enrichment for %s failed, using browser title: %v", page.URL, err)
		} else {
			title = generated
		}
	}

	if err := e.applyTitle(job, title); err != nil {
		log.Printf("failed to apply title for %s: %v", page.URL, err)
	}
}

// applyTitle writes the final title and marks the page complete. An empty
// title keeps the page's latest title, which includes any progressive
// update received while enrichment was in flight. Results for a session that is no longer current go
// to its archived copy; results for deleted sessions are dropped.
func (e *Engine) applyTitle(job *enrichJob, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.removePending(job)
	if job.discarded {
		return nil
	}

	// Persistence runs to completion even while the engine is closing
	ctx := context.WithoutCancel(e.ctx)

	if e.isCurrentJob(job) {
		i := job.find(e.current.Pages)
		if i < 0 {
			return nil
		}
		next := e.current.Clone()
		job.complete(&next.Pages[i], title)
		return e.saveCurrent(ctx, next)
	}

	history, err := e.readSessions(ctx)
	if err != nil {
		return err
	}
	si := indexOf(history, job.sessionID)
	if si < 0 {
		return nil
	}
	i := job.find(history[si].Pages)
	if i < 0 {
		return nil
	}
	job.complete(&history[si].Pages[i], title)

	value, err := encodeSessions(history)
	if err != nil {
		return err
	}
	if err := e.store.Set(ctx, map[string][]byte{KeySessions: value}); err != nil {
		return fmt.Errorf("save archived title: %w", err)
	}
	return nil
}

// find returns the index of the job's page if it still exists and is loading
func (j *enrichJob) find(pages []models.PageEntry) int {
	for i := range pages {
		p := &pages[i]
		if p.Order == j.order && p.URL == j.url && p.OpenedAt == j.openedAt && p.Status == models.StatusLoading {
			return i
		}
	}
	return -1
}

func (j *enrichJob) complete(p *models.PageEntry, title string) {
	if title != "" {
		p.Title = title
	}
	p.Status = models.StatusComplete
}

// isCurrentJob reports whether job targets the active session. Callers hold mu.
func (e *Engine) isCurrentJob(j *enrichJob) bool {
	return e.current != nil && e.current.ID == j.sessionID && e.gen == j.gen
}

// discardPending marks matching jobs so their results are dropped. Callers hold mu.
func (e *Engine) discardPending(match func(*enrichJob) bool) {
	for _, j := range e.pending {
		if match(j) {
			j.discarded = true
		}
	}
}

func (e *Engine) removePending(job *enrichJob) {
	for i, j := range e.pending {
		if j == job {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			return
		}
	}
}

// Pending returns how many enrichments are in flight
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

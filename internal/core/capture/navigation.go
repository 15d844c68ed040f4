package capture

import (
	"context"

	"github.com/neilberkman/researchtrail/internal/core/models"
)

// NavigationEvent is a committed browser navigation
type NavigationEvent struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	TabID       int     `json:"tabId"`
	WindowID    int     `json:"windowId"`
	OpenerTabID *int    `json:"openerTabId,omitempty"`
	FrameID     int     `json:"frameId"`
	TimeStamp   float64 `json:"timeStamp"` // ms since epoch, optional
}

// TitleEvent is a progressive title update reported by the browser
type TitleEvent struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// HandleNavigation records a top-level navigation in the active session.
// It reports whether a page was added. Sub-frame navigations, idle
// periods and repeats of the immediately preceding URL are ignored.
func (e *Engine) HandleNavigation(ctx context.Context, ev NavigationEvent) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if e.current == nil || ev.FrameID != 0 || ev.URL == "" {
		return false, nil
	}
	if last := e.current.LastPage(); last != nil && last.URL == ev.URL {
		return false, nil
	}

	openedAt := models.Millis(e.now())
	if ev.TimeStamp > 0 {
		openedAt = int64(ev.TimeStamp)
	}

	next := e.current.Clone()
	next.Pages = append(next.Pages, models.PageEntry{
		Order:       e.order + 1,
		URL:         ev.URL,
		Title:       ev.Title,
		OpenedAt:    openedAt,
		TabID:       ev.TabID,
		WindowID:    ev.WindowID,
		OpenerTabID: ev.OpenerTabID,
		Status:      models.StatusLoading,
	})

	if err := e.saveCurrent(ctx, next); err != nil {
		return false, err
	}
	e.order++

	return true, nil
}

// HandleTitleChange applies a progressive title to the most recent page
// with the same URL. Completed pages keep their final title.
func (e *Engine) HandleTitleChange(ctx context.Context, ev TitleEvent) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if e.current == nil || ev.Title == "" {
		return false, nil
	}

	i := lastIndexByURL(e.current.Pages, ev.URL)
	if i < 0 {
		return false, nil
	}
	page := e.current.Pages[i]
	if page.Status == models.StatusComplete || page.Title == ev.Title {
		return false, nil
	}

	next := e.current.Clone()
	next.Pages[i].Title = ev.Title
	if err := e.saveCurrent(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func lastIndexByURL(pages []models.PageEntry, url string) int {
	for i := len(pages) - 1; i >= 0; i-- {
		if pages[i].URL == url {
			return i
		}
	}
	return -1
}

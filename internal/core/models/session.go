package models

import (
	"errors"
	"strings"
	"time"
)

// DefaultTopicName is used when a session is started without a topic
const DefaultTopicName = "Untitled topic"

// PageStatus tracks whether a page entry can still receive title updates
type PageStatus string

const (
	StatusLoading  PageStatus = "loading"
	StatusComplete PageStatus = "complete"
)

// PageEntry is one recorded visit within a session.
// JSON names match what the browser extension reads and writes.
type PageEntry struct {
	Order       int        `json:"order" yaml:"order"`
	URL         string     `json:"url" yaml:"url"`
	Title       string     `json:"title" yaml:"title"`
	OpenedAt    int64      `json:"openedAt" yaml:"opened_at"` // ms since epoch
	TabID       int        `json:"tabId" yaml:"tab_id"`
	WindowID    int        `json:"windowId" yaml:"window_id"`
	OpenerTabID *int       `json:"openerTabId,omitempty" yaml:"opener_tab_id,omitempty"`
	Status      PageStatus `json:"status" yaml:"status"`
}

// Session is a research session: a topic plus the ordered pages visited
type Session struct {
	ID        string      `json:"id" yaml:"id"`
	TopicName string      `json:"topicName" yaml:"topic_name"`
	StartedAt int64       `json:"startedAt" yaml:"started_at"`
	EndedAt   *int64      `json:"endedAt" yaml:"ended_at"` // nil while active
	Pages     []PageEntry `json:"pages" yaml:"pages"`
}

// Active reports whether the session has not been stopped yet
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// LastPage returns the most recently captured page, or nil
func (s *Session) LastPage() *PageEntry {
	if len(s.Pages) == 0 {
		return nil
	}
	return &s.Pages[len(s.Pages)-1]
}

// LoadingCount returns how many pages are still waiting for a final title
func (s *Session) LoadingCount() int {
	n := 0
	for _, p := range s.Pages {
		if p.Status == StatusLoading {
			n++
		}
	}
	return n
}

// Started returns StartedAt as a time.Time
func (s *Session) Started() time.Time {
	return FromMillis(s.StartedAt)
}

// Ended returns EndedAt as a time.Time, zero while active
func (s *Session) Ended() time.Time {
	if s.EndedAt == nil {
		return time.Time{}
	}
	return FromMillis(*s.EndedAt)
}

// Duration is the elapsed time of a stopped session, zero while active
func (s *Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return time.Duration(*s.EndedAt-s.StartedAt) * time.Millisecond
}

// Clone returns a deep copy so callers can't mutate engine-owned state
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.EndedAt != nil {
		ended := *s.EndedAt
		c.EndedAt = &ended
	}
	c.Pages = make([]PageEntry, len(s.Pages))
	for i, p := range s.Pages {
		c.Pages[i] = p
		if p.OpenerTabID != nil {
			opener := *p.OpenerTabID
			c.Pages[i].OpenerTabID = &opener
		}
	}
	return &c
}

// Validate checks if the session has required fields
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.StartedAt <= 0 {
		return errors.New("startedAt is required")
	}
	if s.EndedAt != nil && *s.EndedAt < s.StartedAt {
		return errors.New("endedAt is before startedAt")
	}
	for i, p := range s.Pages {
		if p.Order != i+1 {
			return errors.New("page order must be 1..N")
		}
	}
	return nil
}

// NormalizeTopic trims the topic and falls back to DefaultTopicName
func NormalizeTopic(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return DefaultTopicName
	}
	return topic
}

// Millis converts t to milliseconds since epoch
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts milliseconds since epoch to a time.Time
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

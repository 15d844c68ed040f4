package models

import (
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestSessionValidation(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{
			name: "valid active session",
			session: Session{
				ID:        "abc-123",
				TopicName: "Rust async",
				StartedAt: 1700000000000,
				Pages: []PageEntry{
					{Order: 1, URL: "https://a.example"},
					{Order: 2, URL: "https://b.example"},
				},
			},
			wantErr: false,
		},
		{
			name:    "missing id",
			session: Session{StartedAt: 1700000000000},
			wantErr: true,
		},
		{
			name: "ended before started",
			session: Session{
				ID:        "abc",
				StartedAt: 1700000000000,
				EndedAt:   ptr(int64(1600000000000)),
			},
			wantErr: true,
		},
		{
			name: "order gap",
			session: Session{
				ID:        "abc",
				StartedAt: 1700000000000,
				Pages:     []PageEntry{{Order: 1}, {Order: 3}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionClone(t *testing.T) {
	s := &Session{
		ID:        "abc",
		StartedAt: 1,
		EndedAt:   ptr(int64(2)),
		Pages:     []PageEntry{{Order: 1, Title: "a", OpenerTabID: ptr(7)}},
	}

	c := s.Clone()
	c.Pages[0].Title = "changed"
	*c.EndedAt = 99
	*c.Pages[0].OpenerTabID = 8

	if s.Pages[0].Title != "a" {
		t.Errorf("clone shares pages with original")
	}
	if *s.EndedAt != 2 {
		t.Errorf("clone shares endedAt with original")
	}
	if *s.Pages[0].OpenerTabID != 7 {
		t.Errorf("clone shares openerTabId with original")
	}
}

func TestSessionDuration(t *testing.T) {
	s := Session{StartedAt: 1000}
	if s.Duration() != 0 {
		t.Errorf("active session duration = %v, want 0", s.Duration())
	}
	s.EndedAt = ptr(int64(1000 + 125000))
	if s.Duration() != 125*time.Second {
		t.Errorf("Duration() = %v, want 2m5s", s.Duration())
	}
}

func TestNormalizeTopic(t *testing.T) {
	if got := NormalizeTopic("   "); got != DefaultTopicName {
		t.Errorf("NormalizeTopic(blank) = %q", got)
	}
	if got := NormalizeTopic("  Go generics "); got != "Go generics" {
		t.Errorf("NormalizeTopic() = %q", got)
	}
}

func TestLoadingCount(t *testing.T) {
	s := Session{Pages: []PageEntry{
		{Status: StatusLoading},
		{Status: StatusComplete},
		{Status: StatusLoading},
	}}
	if s.LoadingCount() != 2 {
		t.Errorf("LoadingCount() = %d, want 2", s.LoadingCount())
	}
}

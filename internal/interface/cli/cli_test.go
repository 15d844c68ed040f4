package cli

import (
	"testing"
	"time"

	"github.com/neilberkman/researchtrail/internal/core/models"
)

func TestIsBrowserLaunch(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"chromium origin", []string{"chrome-extension://abcdef/"}, true},
		{"chromium origin with window", []string{"chrome-extension://abcdef/", "--parent-window=0"}, true},
		{"firefox", []string{"/home/u/.mozilla/native-messaging-hosts/com.researchtrail.host.json", "trail@example.org"}, true},
		{"subcommand", []string{"list"}, false},
		{"relative json", []string{"manifest.json", "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBrowserLaunch(tt.args); got != tt.want {
				t.Errorf("isBrowserLaunch(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	if got := parseDate("2025-01-02", now); got == nil || !got.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parseDate(2025-01-02) = %v", got)
	}
	if got := parseDate("yesterday", now); got == nil || got.Day() != 11 {
		t.Errorf("parseDate(yesterday) = %v", got)
	}
	if got := parseDate("not a date at all", now); got != nil {
		t.Errorf("parseDate(garbage) = %v, want nil", got)
	}
}

func TestSessionFilter(t *testing.T) {
	day := func(d int) int64 {
		return models.Millis(time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC))
	}
	sessions := []models.Session{
		{ID: "a", TopicName: "Rust async", StartedAt: day(1)},
		{ID: "b", TopicName: "Go generics", StartedAt: day(5)},
		{ID: "c", TopicName: "Rust macros", StartedAt: day(10)},
	}
	now := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		since string
		topic string
		limit int
		want  []string
	}{
		{"newest first", "", "", 0, []string{"c", "b", "a"}},
		{"limit", "", "", 2, []string{"c", "b"}},
		{"topic glob", "", "rust*", 0, []string{"c", "a"}},
		{"topic case-insensitive", "", "GO *", 0, []string{"b"}},
		{"since", "2025-03-04", "", 0, []string{"c", "b"}},
		{"since and topic", "2025-03-04", "rust*", 0, []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := newSessionFilter(tt.since, tt.topic, now)
			if err != nil {
				t.Fatalf("newSessionFilter() error = %v", err)
			}
			got := f.apply(sessions, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("apply() returned %d sessions, want %d", len(got), len(tt.want))
			}
			for i, s := range got {
				if s.ID != tt.want[i] {
					t.Errorf("apply()[%d] = %s, want %s", i, s.ID, tt.want[i])
				}
			}
		})
	}
}

func TestSessionFilter_Invalid(t *testing.T) {
	if _, err := newSessionFilter("whenever-ish", "", time.Now()); err == nil {
		t.Error("expected error for unparseable date")
	}
	if _, err := newSessionFilter("", "[", time.Now()); err == nil {
		t.Error("expected error for invalid glob")
	}
}

func TestBuildManifest(t *testing.T) {
	chrome := buildManifest("/usr/local/bin/researchtrail", "abc", false)
	if chrome.Name != HostName || chrome.Type != "stdio" {
		t.Errorf("unexpected manifest %+v", chrome)
	}
	if len(chrome.AllowedOrigins) != 1 || chrome.AllowedOrigins[0] != "chrome-extension://abc/" {
		t.Errorf("AllowedOrigins = %v", chrome.AllowedOrigins)
	}
	if chrome.AllowedExtensions != nil {
		t.Errorf("chromium manifest should not list allowed_extensions")
	}

	firefox := buildManifest("/usr/local/bin/researchtrail", "trail@example.org", true)
	if len(firefox.AllowedExtensions) != 1 || firefox.AllowedOrigins != nil {
		t.Errorf("unexpected firefox manifest %+v", firefox)
	}
}

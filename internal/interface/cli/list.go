package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/neilberkman/researchtrail/internal/core/export"
	"github.com/neilberkman/researchtrail/internal/core/models"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
)

var (
	listLimit int
	listSince string
	listTopic string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded research sessions",
	Long: `List finished research sessions, most recent first.

Examples:
  researchtrail list
  researchtrail list --limit 5
  researchtrail list --since "last week"
  researchtrail list --topic "rust*"`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of sessions to display")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only sessions started after this date (e.g. yesterday, \"last week\", 2025-01-02)")
	listCmd.Flags().StringVar(&listTopic, "topic", "", "Only sessions whose topic matches this glob (case-insensitive)")
}

// sessionFilter selects sessions for display
type sessionFilter struct {
	since time.Time
	topic glob.Glob
}

func newSessionFilter(since, topic string, now time.Time) (*sessionFilter, error) {
	f := &sessionFilter{}
	if since != "" {
		t := parseDate(since, now)
		if t == nil {
			return nil, fmt.Errorf("could not understand date: %q", since)
		}
		f.since = *t
	}
	if topic != "" {
		g, err := glob.Compile(strings.ToLower(topic))
		if err != nil {
			return nil, fmt.Errorf("invalid topic pattern '%s': %w", topic, err)
		}
		f.topic = g
	}
	return f, nil
}

func (f *sessionFilter) match(s *models.Session) bool {
	if !f.since.IsZero() && s.Started().Before(f.since) {
		return false
	}
	if f.topic != nil && !f.topic.Match(strings.ToLower(s.TopicName)) {
		return false
	}
	return true
}

// apply returns matching sessions newest first, at most limit
func (f *sessionFilter) apply(sessions []models.Session, limit int) []models.Session {
	var out []models.Session
	for i := len(sessions) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if f.match(&sessions[i]) {
			out = append(out, sessions[i])
		}
	}
	return out
}

// parseDate accepts a few fixed layouts and natural language
func parseDate(s string, now time.Time) *time.Time {
	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006/01/02",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, now.Location()); err == nil {
			return &t
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(s, now)
	if err == nil && result != nil {
		return &result.Time
	}

	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	filter, err := newSessionFilter(listSince, listTopic, time.Now())
	if err != nil {
		return err
	}

	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	all, err := engine.Sessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := filter.apply(all, listLimit)
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("Showing %d of %d session(s)\n\n", len(sessions), len(all))

	for i, s := range sessions {
		fmt.Printf("[%d] %s\n", i+1, titleStyle.Render(s.TopicName))
		fmt.Printf("    %s\n", idStyle.Render(s.ID))
		fmt.Printf("    Pages: %d  Duration: %s\n", len(s.Pages), export.FormatDuration(s.Duration()))
		fmt.Printf("    Ended: %s\n", humanize.Time(s.Ended()))
		fmt.Println()
	}

	return nil
}

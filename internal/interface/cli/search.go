package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/neilberkman/researchtrail/internal/core/models"
	"github.com/neilberkman/researchtrail/internal/core/search"
	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search visited pages across sessions",
	Long: `Full-text search over page titles, URLs and session topics, including
the active session.

Examples:
  researchtrail search tokio
  researchtrail search "pin projection" --limit 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of pages to display")
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	sessions, err := engine.Sessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	current, err := engine.CurrentSession(cmd.Context())
	if err != nil {
		return err
	}
	if current != nil {
		sessions = append(sessions, *current)
	}

	idx, err := search.Build(sessions)
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	query := strings.Join(args, " ")
	results, err := idx.Search(query, searchLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No pages match %q\n", query)
		return nil
	}

	for _, r := range results {
		title := r.Title
		if title == "" {
			title = "No Title"
		}
		fmt.Printf("%s\n", titleStyle.Render(title))
		fmt.Printf("    %s\n", urlStyle.Render(r.URL))
		fmt.Printf("    %s #%d  %s  %s\n",
			r.Topic, r.Order,
			humanize.Time(models.FromMillis(r.OpenedAt)),
			idStyle.Render(r.SessionID))
	}
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/neilberkman/researchtrail/internal/core/export"
	"github.com/neilberkman/researchtrail/internal/core/models"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [topic]",
	Short: "Start a research session",
	Long: `Start recording a research session. A session that is already active
is stopped and archived first.

Examples:
  researchtrail start Rust async runtimes
  researchtrail start`,
	RunE: runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active research session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active research session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	s, err := engine.StartSession(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	fmt.Printf("%s %s\n", activeStyle.Render("Recording:"), titleStyle.Render(s.TopicName))
	fmt.Println(idStyle.Render(s.ID))
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	finished, err := engine.StopSession(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to stop session: %w", err)
	}
	if finished == nil {
		fmt.Println("No active session.")
		return nil
	}

	fmt.Printf("Stopped %s after %s (%d pages)\n",
		titleStyle.Render(finished.TopicName),
		export.FormatDuration(finished.Duration()),
		len(finished.Pages))
	fmt.Println(idStyle.Render(finished.ID))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	current, err := engine.CurrentSession(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if current == nil {
		fmt.Println("No active session. Run 'researchtrail start <topic>' to begin.")
		return nil
	}

	fmt.Printf("%s %s\n", activeStyle.Render("Recording:"), titleStyle.Render(current.TopicName))
	fmt.Printf("%s  started %s\n", idStyle.Render(current.ID), humanize.Time(current.Started()))
	fmt.Printf("%d pages", len(current.Pages))
	if n := current.LoadingCount(); n > 0 {
		fmt.Printf(", %s", loadingStyle.Render(fmt.Sprintf("%d generating...", n)))
	}
	fmt.Println()
	fmt.Println()

	printPages(current.Pages)
	return nil
}

func printPages(pages []models.PageEntry) {
	for _, p := range pages {
		title := p.Title
		if title == "" {
			title = "No Title"
		}
		if p.Status == models.StatusLoading {
			title = loadingStyle.Render(title)
		}
		fmt.Printf("[%d] %s\n", p.Order, title)
		fmt.Printf("    %s\n", urlStyle.Render(p.URL))
	}
}

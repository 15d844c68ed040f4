package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/neilberkman/researchtrail/internal/core/capture"
	"github.com/spf13/cobra"
)

var (
	showColor bool
	showStyle string
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showColor, "color", false, "Syntax-highlight the markdown for the terminal")
	showCmd.Flags().StringVar(&showStyle, "style", "monokai", "Highlight style used with --color")
}

func runShow(cmd *cobra.Command, args []string) error {
	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	md, err := engine.SessionMarkdown(cmd.Context(), args[0])
	if errors.Is(err, capture.ErrNotFound) {
		return fmt.Errorf("session not found: %s (only finished sessions can be shown)", args[0])
	}
	if err != nil {
		return err
	}

	if showColor {
		return quick.Highlight(os.Stdout, md, "markdown", "terminal256", showStyle)
	}
	fmt.Print(md)
	return nil
}

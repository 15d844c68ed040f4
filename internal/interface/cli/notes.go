package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var notesFile string

var notesCmd = &cobra.Command{
	Use:   "notes <session-id> [text]",
	Short: "Show or replace the notes for a session",
	Long: `Without text, print the notes attached to a session. With text (or
--file, where "-" reads stdin), replace them.

Examples:
  researchtrail notes 0ccfddc4
  researchtrail notes 0ccfddc4 "Tokio is the default runtime"
  researchtrail notes 0ccfddc4 --file notes.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNotes,
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.Flags().StringVar(&notesFile, "file", "", "Read notes from this file (- for stdin)")
}

func runNotes(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	var content string
	write := false
	switch {
	case notesFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content, write = string(data), true
	case notesFile != "":
		data, err := os.ReadFile(notesFile)
		if err != nil {
			return fmt.Errorf("failed to read notes file: %w", err)
		}
		content, write = string(data), true
	case len(args) > 1:
		content, write = strings.Join(args[1:], " "), true
	}

	if write {
		if err := engine.SaveNotes(cmd.Context(), sessionID, content); err != nil {
			return fmt.Errorf("failed to save notes: %w", err)
		}
		fmt.Println("Notes saved")
		return nil
	}

	notes, err := engine.LoadNotes(cmd.Context(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to load notes: %w", err)
	}
	if notes == "" {
		fmt.Println("No notes for this session.")
		return nil
	}
	fmt.Println(notes)
	return nil
}

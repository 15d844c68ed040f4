package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/neilberkman/researchtrail/internal/core/capture"
	"github.com/neilberkman/researchtrail/internal/core/export"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportFormat string
	exportCopy   bool
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session to a file",
	Long: `Export a finished research session with its notes.

By default writes markdown into the export directory as
research_session_<topic>_<id>.md. Use --output to choose the path.

Examples:
  researchtrail export 0ccfddc4-00e7-443a-bb82-58ede5936619
  researchtrail export 0ccfddc4-00e7-443a-bb82-58ede5936619 --format yaml -o trail.yaml
  researchtrail export 0ccfddc4-00e7-443a-bb82-58ede5936619 --copy`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: export directory)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Output format: md, json, yaml")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "Copy the markdown to the clipboard instead of writing a file")
}

func runExport(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	cfg, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if exportCopy {
		md, err := engine.SessionMarkdown(cmd.Context(), sessionID)
		if err != nil {
			return exportError(sessionID, err)
		}
		if err := clipboard.WriteAll(md); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Println("Copied session markdown to clipboard")
		return nil
	}

	exporter, err := export.NewExporter(exportFormat, cfg.Location)
	if err != nil {
		return err
	}

	outputPath := exportOutput
	if outputPath != "" && !filepath.IsAbs(outputPath) {
		// Make relative paths absolute to current directory
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		outputPath = filepath.Join(cwd, outputPath)
	}

	path, err := engine.ExportSessionAs(cmd.Context(), sessionID, exporter, outputPath)
	if err != nil {
		return exportError(sessionID, err)
	}

	fmt.Printf("Exported session to: %s\n", path)
	return nil
}

func exportError(sessionID string, err error) error {
	if errors.Is(err, capture.ErrNotFound) {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return err
}

package cli

import (
	"fmt"
	"os"

	"github.com/neilberkman/researchtrail/internal/core/importer"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file-or-directory>",
	Short: "Import sessions from JSON or YAML exports",
	Long: `Add sessions exported with --format json or yaml back into the
history. Sessions whose id is already recorded are skipped.

Examples:
  researchtrail import research_session_rust_async_0ccfddc4.json
  researchtrail import ~/Documents/trails`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	source := args[0]
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("source not found: %w", err)
	}

	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	imp := importer.New(engine)

	if !info.IsDir() {
		session, added, err := imp.ImportFile(cmd.Context(), source)
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("Already recorded: %s (%s)\n", session.TopicName, session.ID)
			return nil
		}
		fmt.Printf("Imported %s (%s)\n", titleStyle.Render(session.TopicName), idStyle.Render(session.ID))
		return nil
	}

	progress := importer.NewProgressReporter(os.Stdout, importer.CountFiles(source))
	stats, err := imp.ImportDirectory(cmd.Context(), source, progress)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d, skipped %d already recorded, %d failed\n", stats.Imported, stats.Skipped, stats.Failed)
	return nil
}

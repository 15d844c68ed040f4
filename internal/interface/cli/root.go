package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dbPath      string
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	// Browsers launch the host binary directly with their own arguments
	if len(os.Args) > 1 && isBrowserLaunch(os.Args[1:]) {
		rootCmd.SetArgs(append([]string{"host"}, os.Args[1:]...))
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// isBrowserLaunch recognizes the arguments a browser passes to a native
// messaging host: an extension origin (Chromium) or the manifest path
// followed by the extension id (Firefox).
func isBrowserLaunch(args []string) bool {
	first := args[0]
	if strings.HasPrefix(first, "chrome-extension://") {
		return true
	}
	return len(args) >= 2 && filepath.IsAbs(first) && strings.HasSuffix(first, ".json")
}

var rootCmd = &cobra.Command{
	Use:   "researchtrail",
	Short: "Research session recorder",
	Long: `researchtrail - record browsing research sessions as markdown

Runs as the native messaging host for the browser extension, recording
every page you open while a session is active and titling each page
from its content. The same binary lists, exports and annotates the
recorded sessions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to status if no subcommand specified
		return statusCmd.RunE(cmd, args)
	},
}

func init() {
	// Global flags
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	defaultDB := filepath.Join(home, ".config", "researchtrail", "trail.db")

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Database path")
}

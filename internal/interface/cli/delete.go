package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deleteAll bool
	deleteYes bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete recorded sessions and their notes",
	Long: `Delete one finished session, or every finished session with --all.
The active session is never deleted; stop it first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteAll, "all", false, "Delete all finished sessions and notes")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Confirm --all")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if deleteAll == (len(args) == 1) {
		return fmt.Errorf("specify a session id or --all")
	}
	if deleteAll && !deleteYes {
		return fmt.Errorf("--all deletes every recorded session; pass --yes to confirm")
	}

	_, engine, closeFn, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	if deleteAll {
		if err := engine.DeleteAllSessions(cmd.Context()); err != nil {
			return fmt.Errorf("failed to delete sessions: %w", err)
		}
		fmt.Println("Deleted all sessions")
		return nil
	}

	current, err := engine.CurrentSession(cmd.Context())
	if err != nil {
		return err
	}
	if current != nil && current.ID == args[0] {
		return fmt.Errorf("session %s is still recording; stop it first", args[0])
	}

	if err := engine.DeleteSession(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}

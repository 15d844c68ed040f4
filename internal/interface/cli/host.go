package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/neilberkman/researchtrail/internal/core/config"
	"github.com/neilberkman/researchtrail/internal/core/enrich"
	"github.com/neilberkman/researchtrail/internal/core/protocol"
	"github.com/neilberkman/researchtrail/internal/interface/host"
	"github.com/spf13/cobra"
)

var hostLogFile string

var hostCmd = &cobra.Command{
	Use:   "host [origin]",
	Short: "Run as the browser's native messaging host",
	Long: `Serve the browser extension over native messaging on stdin/stdout.

The browser normally starts this itself; see 'researchtrail manifest'.
stdout carries the protocol, so logs go to stderr or --log-file.`,
	Args: cobra.ArbitraryArgs,
	RunE: runHost,
}

func init() {
	rootCmd.AddCommand(hostCmd)
	hostCmd.Flags().StringVar(&hostLogFile, "log-file", "", "Append logs to this file instead of stderr")
}

func runHost(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stderr)
	if hostLogFile != "" {
		f, err := os.OpenFile(hostLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(f)
	}
	if len(args) > 0 {
		log.Printf("started by %s", args[len(args)-1])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	enricher := enrich.FromConfig(cfg.LLMConfig(), enrich.Options{
		PromptTemplate:  cfg.TitlePromptTemplate,
		MaxContentChars: cfg.MaxContentChars,
	})

	engine, closeFn, err := openEngine(cmd, cfg, enricher)
	if err != nil {
		return err
	}
	// Pending titles are resolved before the store closes
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return host.New(os.Stdin, os.Stdout, protocol.NewRouter(engine)).Run(ctx)
}

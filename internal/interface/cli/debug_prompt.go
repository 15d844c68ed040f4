package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/neilberkman/researchtrail/internal/core/config"
	"github.com/neilberkman/researchtrail/internal/core/enrich"
	"github.com/neilberkman/researchtrail/internal/core/llm"
	"github.com/spf13/cobra"
)

var debugPromptGenerate bool

var debugPromptCmd = &cobra.Command{
	Use:   "debug-prompt <url>",
	Short: "Show what title prompt would be generated for a page",
	Long: `Fetch a page, extract its visible text and render the title prompt.
With --generate, also send it to the configured provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runDebugPrompt,
}

func init() {
	rootCmd.AddCommand(debugPromptCmd)
	debugPromptCmd.Flags().BoolVar(&debugPromptGenerate, "generate", false, "Call the provider and print the resulting title")
}

func runDebugPrompt(cmd *cobra.Command, args []string) error {
	pageURL := args[0]

	// Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	llmCfg := cfg.LLMConfig()
	opts := enrich.Options{
		PromptTemplate:  cfg.TitlePromptTemplate,
		MaxContentChars: cfg.MaxContentChars,
	}
	enricher := enrich.FromConfig(llmCfg, opts)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.EnrichTimeout)
	defer cancel()

	page := enrich.Page{URL: pageURL}
	fmt.Println("=== PAGE ===")
	fmt.Printf("URL:      %s\n", pageURL)
	fmt.Printf("Provider: %s\n", llmCfg.Provider)
	fmt.Printf("Model:    %s\n", valueOr(llmCfg.Model, "(provider default)"))
	fmt.Printf("API key:  %s\n", keyStatus(llmCfg.APIKey))
	fmt.Println()

	if enrich.IsPDF(pageURL, "") {
		fmt.Println("=== PDF ===")
		fmt.Printf("Titled from file name: %s\n", enrich.PDFTitle(pageURL))
		return nil
	}

	text, err := enricher.Text(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to extract page text: %w", err)
	}

	prompt, err := llm.BuildTitlePrompt(cfg.TitlePromptTemplate, llm.TitlePromptData{
		URL:     pageURL,
		Content: text,
	})
	if err != nil {
		return err
	}

	fmt.Println("=== TITLE PROMPT ===")
	fmt.Println(prompt)
	fmt.Println()

	if !debugPromptGenerate {
		return nil
	}

	start := time.Now()
	title, err := enricher.Title(ctx, page)
	fmt.Println("=== GENERATED TITLE ===")
	if err != nil {
		fmt.Printf("failed after %s: %v\n", time.Since(start).Round(time.Millisecond), err)
		return nil
	}
	fmt.Printf("%s (%s)\n", title, time.Since(start).Round(time.Millisecond))
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func keyStatus(key string) string {
	if llm.IsPlaceholderKey(key) {
		return "not set"
	}
	return "set"
}

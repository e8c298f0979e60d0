package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/civicaudit/groundtruth/internal/llm"
	"github.com/civicaudit/groundtruth/internal/model"
)

var (
	analyzeTimeout time.Duration
	catalogURL     string
	registryDriver string
	registryDSN    string
	projectsFile   string
	noCache        bool
	llmEnabled     bool
	llmModel       string
	outJSON        string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <project-id>",
	Short: "Verify one project's claimed status against satellite imagery",
	Long: `Analyze runs a full verification for a single project:
- Resolve the region of interest around the project location
- Select cloud-free scenes for the baseline and recent periods
- Compute built-up index change between the periods
- Estimate actual construction progress and detect the likely status
- Flag a mismatch when observation contradicts the claimed status

Example:
  groundtruth analyze BLR-2024-0117 --projects projects.yaml
  groundtruth analyze BLR-2024-0117 --registry-driver postgres --registry-dsn "$DSN"
  groundtruth analyze BLR-2024-0117 --json result.json --llm`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().StringVar(&catalogURL, "catalog-url", "", "imagery catalog base URL (overrides config)")
	analyzeCmd.Flags().StringVar(&registryDriver, "registry-driver", "", "registry driver: memory or postgres (overrides config)")
	analyzeCmd.Flags().StringVar(&registryDSN, "registry-dsn", "", "postgres DSN (overrides config)")
	analyzeCmd.Flags().StringVar(&projectsFile, "projects", "", "YAML projects file for the memory registry driver")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable scene caching (force fresh catalog queries)")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "write the full result JSON to this path")

	// LLM flags
	analyzeCmd.Flags().BoolVar(&llmEnabled, "llm", false, "generate a narrative summary of the result")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	projectID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyOverrides(cfg)
	cfg.Analysis.RunTimeout = analyzeTimeout

	eng, cleanup, err := buildEngine(ctx, cfg, projectsFile)
	if err != nil {
		return err
	}
	defer cleanup()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", projectID)
		fmt.Fprintf(os.Stderr, "Catalog:   %s\n", cfg.Catalog.BaseURL)
		fmt.Fprintf(os.Stderr, "Cache:     %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	result, err := eng.RunAnalysis(ctx, projectID)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	printResult(result)

	if llmEnabled {
		if err := printSummary(ctx, cfg, eng, projectID, result); err != nil {
			// Advisory output only: the analysis itself succeeded.
			fmt.Fprintf(os.Stderr, "summary unavailable: %v\n", err)
		}
	}

	if outJSON != "" {
		if err := writeResultJSON(result, outJSON); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
		}
	}

	return nil
}

// applyOverrides copies flag-level overrides into the loaded config
func applyOverrides(cfg *model.Config) {
	if catalogURL != "" {
		cfg.Catalog.BaseURL = catalogURL
	}
	if registryDriver != "" {
		cfg.Registry.Driver = registryDriver
	}
	if registryDSN != "" {
		cfg.Registry.DSN = registryDSN
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if llmEnabled && cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func printResult(result *model.AnalysisResult) {
	if result.Inconclusive() {
		fmt.Printf("Project %s: inconclusive (no usable imagery)\n", result.ProjectID)
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
		return
	}

	fmt.Printf("Project %s\n", result.ProjectID)
	fmt.Printf("  Built-up index:  %.4f -> %.4f (%+.1f%%)\n",
		result.Change.Before, result.Change.After, result.Change.PctDelta)
	if result.DetectedStatus != nil {
		fmt.Printf("  Detected status: %s (confidence %.2f)\n", *result.DetectedStatus, result.Confidence)
	}
	if result.Mismatch {
		fmt.Printf("  Mismatch:        yes (severity %s)\n", result.Severity)
	} else {
		fmt.Printf("  Mismatch:        no\n")
	}
	for _, rec := range result.Recommendations {
		fmt.Printf("  - %s\n", rec)
	}
}

func printSummary(ctx context.Context, cfg *model.Config, eng projectGetter, projectID string, result *model.AnalysisResult) error {
	summarizer, err := llm.FromConfig(cfg.LLM)
	if err != nil {
		return err
	}
	if summarizer == nil {
		return fmt.Errorf("no llm provider configured")
	}

	project, err := eng.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	resp, err := summarizer.Summarize(ctx, llm.SummarizeRequest{Project: project, Result: result})
	if err != nil {
		return err
	}

	fmt.Printf("\nSummary (%s):\n%s\n", resp.Model, resp.Summary)
	return nil
}

// projectGetter is the slice of the engine the summary path needs
type projectGetter interface {
	GetProject(ctx context.Context, projectID string) (*model.ProjectRef, error)
}

func writeResultJSON(result *model.AnalysisResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

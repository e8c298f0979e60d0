package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/civicaudit/groundtruth/internal/engine"
	"github.com/civicaudit/groundtruth/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple projects from a file in parallel",
	Long: `Batch verifies many projects concurrently:
- Read project ids from the input file (one per line, # comments allowed)
- Analyze projects in parallel with a configurable worker count
- Write one result JSON per project
- Print a per-project outcome line and a final tally

Example:
  groundtruth batch ids.txt --projects projects.yaml
  groundtruth batch ids.txt --concurrency 8 --output-dir ./results
  groundtruth batch ids.txt --registry-driver postgres --registry-dsn "$DSN"`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./groundtruth-results", "output directory for result JSON files")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")

	batchCmd.Flags().StringVar(&catalogURL, "catalog-url", "", "imagery catalog base URL (overrides config)")
	batchCmd.Flags().StringVar(&registryDriver, "registry-driver", "", "registry driver: memory or postgres (overrides config)")
	batchCmd.Flags().StringVar(&registryDSN, "registry-dsn", "", "postgres DSN (overrides config)")
	batchCmd.Flags().StringVar(&projectsFile, "projects", "", "YAML projects file for the memory registry driver")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable scene caching (force fresh catalog queries)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyOverrides(cfg)
	if concurrency > 0 {
		cfg.Concurrency.BatchWorkers = concurrency
	}

	eng, cleanup, err := buildEngine(ctx, cfg, projectsFile)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Groundtruth Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.BatchWorkers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(eng, cfg.Concurrency.BatchWorkers)

	outcomes, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	analyzed := 0
	mismatched := 0
	skipped := 0
	failed := 0

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			if isSkip(outcome.Err) {
				skipped++
				fmt.Fprintf(os.Stderr, "- %s: skipped (%v)\n", outcome.ProjectID, outcome.Err)
			} else {
				failed++
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.ProjectID, outcome.Err)
			}
			continue
		}

		analyzed++
		result := outcome.Result

		path := filepath.Join(outputDir, sanitizeFilename(outcome.ProjectID)+".json")
		if err := writeResultJSON(result, path); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: write result: %v\n", outcome.ProjectID, err)
			continue
		}

		switch {
		case result.Inconclusive():
			fmt.Fprintf(os.Stderr, "? %s: inconclusive\n", outcome.ProjectID)
		case result.Mismatch:
			mismatched++
			fmt.Fprintf(os.Stderr, "! %s: mismatch (%+.1f%%, severity %s)\n",
				outcome.ProjectID, result.Change.PctDelta, result.Severity)
		default:
			fmt.Fprintf(os.Stderr, "✓ %s: consistent (%+.1f%%)\n", outcome.ProjectID, result.Change.PctDelta)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d projects\n", len(outcomes))
	fmt.Fprintf(os.Stderr, "  Analyzed:   %d\n", analyzed)
	fmt.Fprintf(os.Stderr, "  Mismatches: %d\n", mismatched)
	fmt.Fprintf(os.Stderr, "  Skipped:    %d\n", skipped)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", failed)
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// isSkip separates expected exclusions from real failures in the tally
func isSkip(err error) bool {
	return errors.Is(err, engine.ErrNotAnalyzable) || errors.Is(err, engine.ErrAlreadyRunning)
}

// sanitizeFilename makes a project id safe to use as a file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

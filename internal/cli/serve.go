package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/civicaudit/groundtruth/internal/httpapi"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the verification API over HTTP",
	Long: `Serve exposes the analysis engine as an HTTP API:
- POST /v1/projects/{id}/analysis  trigger a verification run
- GET  /v1/projects/{id}/analysis  fetch the latest result
- GET  /v1/projects/{id}/analysis/state  inspect an in-flight run

Example:
  groundtruth serve --addr :8080 --projects projects.yaml
  groundtruth serve --registry-driver postgres --registry-dsn "$DSN"`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&catalogURL, "catalog-url", "", "imagery catalog base URL (overrides config)")
	serveCmd.Flags().StringVar(&registryDriver, "registry-driver", "", "registry driver: memory or postgres (overrides config)")
	serveCmd.Flags().StringVar(&registryDSN, "registry-dsn", "", "postgres DSN (overrides config)")
	serveCmd.Flags().StringVar(&projectsFile, "projects", "", "YAML projects file for the memory registry driver")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable scene caching (force fresh catalog queries)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyOverrides(cfg)

	eng, cleanup, err := buildEngine(ctx, cfg, projectsFile)
	if err != nil {
		return err
	}
	defer cleanup()
	defer eng.Shutdown()

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           httpapi.NewRouter(eng),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "Listening on %s\n", serveAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Fprintln(os.Stderr, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

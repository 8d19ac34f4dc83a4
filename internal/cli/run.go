package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aivis/internal/runner"
)

var (
	runProject  string
	runKeywords []string
	runTimeout  time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run visibility checks for a project",
	Long: `Run probes every engine for each keyword of a project and stores the checks.

Keywords come from --keyword when given, otherwise from the project,
otherwise from the built-in defaults.

Example:
  aivis run --project acme
  aivis run --project acme --keyword "ai search" --keyword "brand monitoring"`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runProject, "project", "p", "", "project id (required)")
	runCmd.Flags().StringArrayVarP(&runKeywords, "keyword", "k", nil, "keyword to check (repeatable)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall run timeout")
	_ = runCmd.MarkFlagRequired("project")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Project:  %s\n", runProject)
		fmt.Fprintf(os.Stderr, "Mode:     %s\n", a.cfg.Probe.Mode)
		fmt.Fprintf(os.Stderr, "Store:    %s\n", a.cfg.Store.Driver)
		fmt.Fprintln(os.Stderr)
	}

	if down := a.preflight(ctx); len(down) > 0 {
		return fmt.Errorf("run failed: engines unavailable: %v", down)
	}

	res, err := a.runner.Run(ctx, runner.RunRequest{ProjectID: runProject, Keywords: runKeywords})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Inserted %d checks for %s\n", res.Inserted, runProject)
	return nil
}

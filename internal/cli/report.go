package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aivis/internal/pipeline"
)

var (
	reportKeyword string
	reportJSON    string
	reportMD      string
	reportAudit   bool
	reportTimeout time.Duration
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <project>",
	Short: "Build a visibility report for a project",
	Long: `Report aggregates a project's checks into a visibility score, daily trend,
engine and keyword breakdowns and recommendations.

With --keyword it reports on a single keyword instead.

Example:
  aivis report acme
  aivis report acme --audit --json acme.json --md acme.md
  aivis report acme --keyword "ai search" --md ai-search.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportKeyword, "keyword", "k", "", "report on a single keyword")
	reportCmd.Flags().StringVar(&reportJSON, "json", "", "output JSON path (optional)")
	reportCmd.Flags().StringVar(&reportMD, "md", "", "output Markdown path (optional)")
	reportCmd.Flags().BoolVar(&reportAudit, "audit", false, "include the site crawler audit")
	reportCmd.Flags().DurationVar(&reportTimeout, "timeout", time.Minute, "overall report timeout")
}

func runReport(cmd *cobra.Command, args []string) error {
	projectID := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	renderer := a.pipeline.Renderer()

	if reportKeyword != "" {
		report, err := a.pipeline.KeywordReport(ctx, projectID, reportKeyword)
		if err != nil {
			return fmt.Errorf("keyword report: %w", err)
		}
		if err := writeOutputs(renderer, report); err != nil {
			return err
		}
		if reportMD == "" && reportJSON == "" {
			fmt.Print(pipeline.KeywordMarkdown(report))
		}
		return nil
	}

	report, err := a.pipeline.ProjectReport(ctx, projectID, reportAudit)
	if err != nil {
		return fmt.Errorf("project report: %w", err)
	}
	renderer.RenderSummary(os.Stderr, report)
	if err := writeOutputs(renderer, report); err != nil {
		return err
	}
	if reportMD == "" && reportJSON == "" {
		fmt.Print(pipeline.ProjectMarkdown(report))
	}
	return nil
}

// writeOutputs renders the --json and --md files that were asked for
func writeOutputs(r *pipeline.Renderer, report interface{}) error {
	if reportJSON != "" {
		if err := r.RenderJSON(report, reportJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", reportJSON)
	}
	if reportMD != "" {
		if err := r.RenderMarkdown(report, reportMD); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", reportMD)
	}
	return nil
}

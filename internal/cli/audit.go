package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aivis/internal/audit"
	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/pipeline"
)

var (
	auditMD      string
	auditJSON    string
	auditTimeout time.Duration
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit <domain>",
	Short: "Check whether AI crawlers can read a site",
	Long: `Audit fetches robots.txt and the landing page of a domain and reports
AI crawlers that are disallowed and noai/noindex meta robots directives.

Example:
  aivis audit acme.io
  aivis audit https://acme.io/ --md audit.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditJSON, "json", "", "output JSON path (optional)")
	auditCmd.Flags().StringVar(&auditMD, "md", "", "output Markdown path (optional)")
	auditCmd.Flags().DurationVar(&auditTimeout, "timeout", time.Minute, "overall audit timeout")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Auditing: %s\n", audit.SiteURL(args[0]))
		fmt.Fprintf(os.Stderr, "User-Agent: %s\n\n", cfg.HTTP.UserAgent)
	}

	report, err := audit.NewAuditor(cfg.HTTP).Audit(ctx, args[0])
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	printAudit(report)

	r := pipeline.NewRenderer()
	if auditJSON != "" {
		if err := r.RenderJSON(report, auditJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if auditMD != "" {
		if err := r.RenderMarkdown(report, auditMD); err != nil {
			return fmt.Errorf("render Markdown: %w", err)
		}
	}
	return nil
}

func printAudit(report *model.AuditReport) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Site audit: %s\n", report.Domain)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	for _, rule := range report.Crawlers {
		mark := "✓"
		if !rule.Allowed {
			mark = "✗"
		}
		fmt.Fprintf(os.Stderr, "  %s %-16s %s\n", mark, rule.UserAgent, rule.Engine)
	}
	if len(report.MetaTags) > 0 {
		fmt.Fprintf(os.Stderr, "\n  meta robots: %s\n", strings.Join(report.MetaTags, ", "))
	}
	if len(report.Signals) == 0 {
		fmt.Fprintf(os.Stderr, "\n  No issues found\n\n")
		return
	}
	fmt.Fprintf(os.Stderr, "\n")
	for _, s := range report.Signals {
		fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", s.Severity, s.Description)
	}
	fmt.Fprintf(os.Stderr, "\n")
}

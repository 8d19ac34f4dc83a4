package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/runner"
)

var (
	seedProject  string
	seedDomain   string
	seedBrand    string
	seedKeywords int
	seedDays     int
	seedDemo     bool
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate synthetic check history",
	Long: `Seed writes one synthetic check per day, keyword and engine.

With --demo it creates the five demo projects and seeds each of them.
Otherwise --project names the project; it is created when missing.

Example:
  aivis seed --demo
  aivis seed --project acme --domain acme.io --keywords 5 --days 30`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedProject, "project", "p", "", "project id to seed")
	seedCmd.Flags().StringVar(&seedDomain, "domain", "", "domain for a newly created project")
	seedCmd.Flags().StringVar(&seedBrand, "brand", "", "brand for a newly created project")
	seedCmd.Flags().IntVar(&seedKeywords, "keywords", 0, "keywords per project (default: seed.keywords)")
	seedCmd.Flags().IntVar(&seedDays, "days", 0, "days of history (default: seed.days)")
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "create and seed the demo projects")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if !seedDemo && seedProject == "" {
		return fmt.Errorf("either --project or --demo is required")
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	keywords := seedKeywords
	if keywords == 0 {
		keywords = a.cfg.Seed.Keywords
	}
	days := seedDays
	if days == 0 {
		days = a.cfg.Seed.Days
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  aivis Seed\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Keywords:  %d\n", keywords)
	fmt.Fprintf(os.Stderr, "  Days:      %d\n", days)
	fmt.Fprintf(os.Stderr, "  Store:     %s\n", a.cfg.Store.Driver)
	fmt.Fprintf(os.Stderr, "\n")

	if seedDemo {
		projects, inserted, err := a.runner.SeedDemo(ctx, keywords, days)
		if err != nil {
			return fmt.Errorf("seed demo: %w", err)
		}
		for _, p := range projects {
			fmt.Fprintf(os.Stderr, "✓ %s (%s)\n", p.ID, p.Domain)
		}
		fmt.Fprintf(os.Stderr, "\n  Inserted %d checks across %d projects\n\n", inserted, len(projects))
		return nil
	}

	inserted, err := a.runner.Seed(ctx, runner.SeedRequest{
		Project:      model.Project{ID: seedProject, Domain: seedDomain, Brand: seedBrand},
		KeywordCount: keywords,
		Days:         days,
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Inserted %d checks for %s\n\n", inserted, seedProject)
	return nil
}

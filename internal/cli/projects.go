package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/aivis/internal/model"
)

var (
	projectDomain      string
	projectBrand       string
	projectKeywords    []string
	projectCompetitors []string
)

// projectsCmd represents the projects command
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List tracked projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		projects, err := a.store.ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		if len(projects) == 0 {
			fmt.Fprintln(os.Stderr, "No projects yet. Create one with 'aivis projects add' or 'aivis seed --demo'.")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%s\t%s\t%s\t%d keywords\n", p.ID, p.Domain, p.Brand, len(p.Keywords))
		}
		return nil
	},
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Create a project",
	Long: `Create a project to track.

Example:
  aivis projects add acme --domain acme.io --brand Acme --keyword "ai search"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.store.CreateProject(ctx, model.Project{
			ID:          strings.TrimSpace(args[0]),
			Domain:      projectDomain,
			Brand:       projectBrand,
			Keywords:    projectKeywords,
			Competitors: projectCompetitors,
		})
		if err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Created project %s\n", p.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsAddCmd)

	projectsAddCmd.Flags().StringVar(&projectDomain, "domain", "", "site domain")
	projectsAddCmd.Flags().StringVar(&projectBrand, "brand", "", "brand name")
	projectsAddCmd.Flags().StringArrayVarP(&projectKeywords, "keyword", "k", nil, "tracked keyword (repeatable)")
	projectsAddCmd.Flags().StringArrayVar(&projectCompetitors, "competitor", nil, "competitor domain (repeatable)")
}

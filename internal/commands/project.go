package commands

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/relay/internal/models"
	"github.com/dotcommander/relay/internal/output"
	"github.com/dotcommander/relay/internal/registry"
)

// NewProjectCmd creates the project command group
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage the global project registry",
		Long:  "Register projects and discover them by keyword or description",
	}

	cmd.AddCommand(newProjectRegisterCmd())
	cmd.AddCommand(newProjectGetCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectDiscoverCmd())
	cmd.AddCommand(newProjectSyncCmd())

	return cmd
}

func newProjectRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register or update a project card",
		Long:  "Registration merges with any existing card: blank incoming fields never erase recorded values",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			path, _ := cmd.Flags().GetString("path")
			desc, _ := cmd.Flags().GetString("desc")
			keywords, _ := cmd.Flags().GetStringSlice("keywords")

			if id == "" {
				id = resolveProjectID(cmd)
			}
			if id == "" {
				return cmdErr(errors.New("--id is required (or set --project / RELAY_PROJECT)"))
			}

			var card *models.ProjectCard
			if err := withRegistry(func(reg *registry.Registry) error {
				c, err := reg.Register(models.ProjectCard{
					ProjectID:   id,
					Path:        path,
					Description: desc,
					Keywords:    keywords,
					LastActive:  time.Now().UTC(),
				})
				if err != nil {
					return err
				}
				card = c
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(card)
		},
	}

	cmd.Flags().String("id", "", "Project ID (required)")
	cmd.Flags().String("path", "", "Absolute path of the project on disk")
	cmd.Flags().String("desc", "", "Project description")
	cmd.Flags().StringSlice("keywords", nil, "Discovery keywords, comma separated")

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

func newProjectGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show one project card",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			if id == "" {
				id = resolveProjectID(cmd)
			}
			if id == "" {
				return cmdErr(errors.New("--id is required (or set --project / RELAY_PROJECT)"))
			}

			var card *models.ProjectCard
			if err := withRegistry(func(reg *registry.Registry) error {
				c, err := reg.Get(id)
				if err != nil {
					return err
				}
				card = c
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(card)
		},
	}

	cmd.Flags().String("id", "", "Project ID (required)")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all registered projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cards []models.ProjectCard
			if err := withRegistry(func(reg *registry.Registry) error {
				c, err := reg.List()
				if err != nil {
					return err
				}
				cards = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count    int                  `json:"count"`
				Projects []models.ProjectCard `json:"projects"`
			}
			return output.PrintSuccess(resp{Count: len(cards), Projects: cards})
		},
	}
}

func newProjectDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find projects matching a query",
		Long:  "Uses the configured semantic searcher when available, falling back to substring matching over id, description, and keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")

			var cards []models.ProjectCard
			if err := withRegistry(func(reg *registry.Registry) error {
				c, err := reg.Discover(query)
				if err != nil {
					return err
				}
				cards = c
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Query    string               `json:"query,omitempty"`
				Count    int                  `json:"count"`
				Projects []models.ProjectCard `json:"projects"`
			}
			return output.PrintSuccess(resp{Query: query, Count: len(cards), Projects: cards})
		},
	}

	cmd.Flags().StringP("query", "q", "", "Search query (empty lists everything)")
	return cmd
}

func newProjectSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Re-index every project card for discovery",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result *registry.SyncResult
			if err := withRegistry(func(reg *registry.Registry) error {
				r, err := reg.Sync()
				if err != nil {
					return err
				}
				result = r
				return nil
			}); err != nil {
				return err
			}

			return output.PrintSuccess(result)
		},
	}

	cmd.Annotations = map[string]string{"mutates": "true"}
	return cmd
}

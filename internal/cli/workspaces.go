package cli

import (
	"github.com/spf13/cobra"
)

func newWorkspacesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"ws"},
		Short:   "Manage workspaces",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.client().ListWorkspaces(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, app, out)
		},
	}

	var (
		slug      string
		createdBy string
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.client().CreateWorkspace(cmd.Context(), args[0], slug, createdBy)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, ws)
		},
	}
	create.Flags().StringVar(&slug, "slug", "", "URL-safe short name")
	create.Flags().StringVar(&createdBy, "created-by", "", "Creator name")

	show := &cobra.Command{
		Use:   "show <workspace-id>",
		Short: "Show one workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ws, err := app.client().GetWorkspace(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, ws)
		},
	}

	archive := &cobra.Command{
		Use:   "archive <workspace-id>",
		Short: "Archive a workspace (hidden from listings, modules kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.client().ArchiveWorkspace(cmd.Context(), id)
		},
	}

	cmd.AddCommand(list, create, show, archive)
	return cmd
}

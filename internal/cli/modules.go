package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newModulesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Manage a workspace's module tree",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the workspace's modules in tree order",
		RunE: func(cmd *cobra.Command, args []string) error {
			wsID, err := requireWorkspace(app)
			if err != nil {
				return err
			}
			out, err := app.client().FetchTree(cmd.Context(), wsID)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, out)
		},
	}

	var (
		parentID int64
		leaf     bool
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a module (appended to the end of its sibling group)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wsID, err := requireWorkspace(app)
			if err != nil {
				return err
			}
			var parent *int64
			if parentID > 0 {
				parent = &parentID
			}
			m, err := app.client().CreateModule(cmd.Context(), wsID, parent, args[0], leaf)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, m)
		},
	}
	create.Flags().Int64Var(&parentID, "parent", 0, "Parent module id (0 = top level)")
	create.Flags().BoolVar(&leaf, "leaf", false, "Terminal content module (cannot have children)")

	rm := &cobra.Command{
		Use:   "rm <module-id>",
		Short: "Delete a module and its whole subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.client().DeleteModule(cmd.Context(), id)
		},
	}

	var contentFile string
	content := &cobra.Command{
		Use:   "content <module-id>",
		Short: "Set a module's markdown content from --file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body, err := readInput(cmd, contentFile)
			if err != nil {
				return err
			}
			return app.client().SetModuleContent(cmd.Context(), id, string(body))
		},
	}
	content.Flags().StringVar(&contentFile, "file", "", "Read content from this file instead of stdin")

	cmd.AddCommand(list, create, rm, content)
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(cmd.InOrStdin())
}

package cli

import (
	"github.com/spf13/cobra"

	"modhub/internal/model"
)

func newTablesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Manage table definitions attached to modules",
	}

	var moduleID int64

	list := &cobra.Command{
		Use:   "list",
		Short: "List a module's tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(moduleID, "module")
			if err != nil {
				return err
			}
			out, err := app.client().ListTables(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, out)
		},
	}

	var ddlFile string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import CREATE TABLE DDL from --file or stdin (replaces the module's tables)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(moduleID, "module")
			if err != nil {
				return err
			}
			body, err := readInput(cmd, ddlFile)
			if err != nil {
				return err
			}
			out, err := app.client().ImportTables(cmd.Context(), id, string(body))
			if err != nil {
				return err
			}
			return writeOut(cmd, app, out)
		},
	}
	imp.Flags().StringVar(&ddlFile, "file", "", "Read DDL from this file instead of stdin")

	for _, c := range []*cobra.Command{list, imp} {
		c.Flags().Int64Var(&moduleID, "module", 0, "Module id")
		_ = c.MarkFlagRequired("module")
	}

	cmd.AddCommand(list, imp)
	return cmd
}

func newInterfacesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interfaces",
		Short: "Manage API interface definitions attached to modules",
	}

	var moduleID int64

	list := &cobra.Command{
		Use:   "list",
		Short: "List a module's interfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(moduleID, "module")
			if err != nil {
				return err
			}
			out, err := app.client().ListInterfaces(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, out)
		},
	}

	var summary string
	add := &cobra.Command{
		Use:   "add <method> <path>",
		Short: "Add an interface definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requireID(moduleID, "module")
			if err != nil {
				return err
			}
			def := model.InterfaceDef{Method: args[0], Path: args[1], Summary: summary}
			out, err := app.client().CreateInterface(cmd.Context(), id, def)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, out)
		},
	}
	add.Flags().StringVar(&summary, "summary", "", "One-line description")

	for _, c := range []*cobra.Command{list, add} {
		c.Flags().Int64Var(&moduleID, "module", 0, "Module id")
		_ = c.MarkFlagRequired("module")
	}

	cmd.AddCommand(list, add)
	return cmd
}

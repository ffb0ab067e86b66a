// Package cli wires the cobra command tree: bare invocation starts the TUI,
// `serve` runs the backend, and the resource subcommands script the API.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modhub/internal/api"
	"modhub/internal/config"
	"modhub/internal/format"
	"modhub/internal/tui"
)

type App struct {
	APIBase     string
	WorkspaceID int64
	PrettyJSON  bool
	Format      string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "modhub",
		Short:        "Workspace module-tree documentation manager (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive structure editor
  modhub

  # Run the backend
  modhub serve

  # Scriptable commands
  modhub workspaces list
  modhub modules list --workspace 1
  modhub tables import --module 4 < schema.sql
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		app.cfg = cfg
		if app.APIBase == "" {
			app.APIBase = cfg.APIBaseURL()
		}
		if app.WorkspaceID == 0 {
			app.WorkspaceID = cfg.DefaultWorkspace()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.APIBase, "api", envOr("MODHUB_API", ""), "Base URL of the modhub server (default from config)")
	cmd.PersistentFlags().Int64Var(&app.WorkspaceID, "workspace", envInt64Or("MODHUB_WORKSPACE", 0), "Workspace id (default from config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("MODHUB_FORMAT", "json"), "Output format (json|table)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWorkspacesCmd(app))
	cmd.AddCommand(newModulesCmd(app))
	cmd.AddCommand(newTablesCmd(app))
	cmd.AddCommand(newInterfacesCmd(app))
	cmd.AddCommand(newMembersCmd(app))

	return cmd
}

func runTUI(app *App) error {
	return tui.Run(app.client(), app.WorkspaceID)
}

// client builds the API client; CLI runs log to stderr at warn level so
// scripted output stays clean.
func (app *App) client() *api.Client {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	return api.NewClient(app.APIBase, log)
}

// requireWorkspace resolves the workspace id for commands that need one.
func requireWorkspace(app *App) (int64, error) {
	if app.WorkspaceID > 0 {
		return app.WorkspaceID, nil
	}
	return 0, fmt.Errorf("no workspace selected; pass --workspace, set MODHUB_WORKSPACE, or configure workspace.default")
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt64Or(k string, d int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return d
}

func requireID(v int64, name string) (int64, error) {
	if v <= 0 {
		return 0, fmt.Errorf("--%s is required", name)
	}
	return v, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

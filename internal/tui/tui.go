package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"modhub/internal/api"
)

// Run starts the interactive structure editor. A workspaceID of 0 opens the
// workspace picker first.
func Run(client *api.Client, workspaceID int64) error {
	m := newModel(client, workspaceID)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// Package tui is the interactive structure editor: workspace picker, module
// tree with expand/collapse and grab & move reordering, incremental search,
// and a markdown preview pane.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"modhub/internal/api"
	"modhub/internal/model"
	"modhub/internal/mutate"
	"modhub/internal/tree"
)

type state int

const (
	statePicker state = iota
	stateTree
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputNewChild
	inputNewRoot
	inputConfirmDelete
)

type workspaceItem struct {
	ws model.Workspace
}

func (w workspaceItem) Title() string       { return w.ws.Name }
func (w workspaceItem) Description() string { return w.ws.Slug }
func (w workspaceItem) FilterValue() string { return w.ws.Name }

type Model struct {
	client *api.Client

	state  state
	width  int
	height int

	picker list.Model

	workspaceID   int64
	workspaceName string
	tr            *tree.Tree
	ctrl          *mutate.Controller

	rows   []treeRow
	cursor int
	scroll int

	// grab & move
	grabbing  bool
	grabID    int64
	insertAt  int
	grabHint  string
	probeGate tree.ProbeGate

	// search
	input  textinput.Model
	mode   inputMode
	search *tree.SearchState

	preview bool

	errText string
	status  string

	refresh   <-chan struct{}
	stopWatch context.CancelFunc
}

func newModel(client *api.Client, workspaceID int64) *Model {
	applyColorProfilePreference()
	applyGlyphPreference()

	delegate := list.NewDefaultDelegate()
	picker := list.New(nil, delegate, 0, 0)
	picker.Title = "Workspaces"
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(true)

	input := textinput.New()
	input.CharLimit = 200

	m := &Model{
		client:      client,
		state:       statePicker,
		picker:      picker,
		workspaceID: workspaceID,
		tr:          tree.New(),
		input:       input,
		probeGate:   tree.ProbeGate{},
	}
	m.ctrl = mutate.NewController(m.tr, api.NewWorkspacePersister(client, workspaceID))
	return m
}

func (m *Model) Init() tea.Cmd {
	if m.workspaceID > 0 {
		return m.enterWorkspaceCmd(m.workspaceID, "")
	}
	return loadWorkspacesCmd(m.client)
}

// rebuildRows re-flattens the tree and keeps the cursor on the selected node.
func (m *Model) rebuildRows() {
	m.rows = flattenTree(m.tr)
	if id, ok := m.tr.Selected(); ok {
		if idx := rowIndexOf(m.rows, id); idx >= 0 {
			m.cursor = idx
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.clampScroll()
}

func (m *Model) visibleRowCount() int {
	h := m.height - 3 // header + status + input line
	if m.preview {
		h -= previewHeight(m.height)
	}
	if h < 1 {
		h = 1
	}
	return h
}

func previewHeight(total int) int {
	h := total / 3
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) clampScroll() {
	visible := m.visibleRowCount()
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	}
	if m.cursor >= m.scroll+visible {
		m.scroll = m.cursor - visible + 1
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) selectedRow() *treeRow {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[m.cursor]
}

func (m *Model) View() string {
	if m.state == statePicker {
		return m.picker.View()
	}
	return m.treeView()
}

func (m *Model) treeView() string {
	var sb strings.Builder

	title := m.workspaceName
	if title == "" {
		title = fmt.Sprintf("workspace %d", m.workspaceID)
	}
	sb.WriteString(styleAccent().Bold(true).Render(title))
	sb.WriteString("\n")

	query := ""
	if m.search != nil {
		query = m.search.Query
	}

	visible := m.visibleRowCount()
	end := m.scroll + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}
	if len(m.rows) == 0 {
		sb.WriteString(styleMuted().Render("(empty workspace; press a to add a module)"))
		sb.WriteString("\n")
	}
	for i := m.scroll; i < end; i++ {
		r := m.rows[i]
		var parentID *int64
		if p, _ := m.tr.FindParentAndSiblings(r.node.ID); p != nil {
			id := p.ID
			parentID = &id
		}
		line := renderRow(r,
			i == m.cursor,
			m.grabbing && r.node.ID == m.grabID,
			m.ctrl.Saving(parentID),
			query,
			m.width)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if m.preview {
		if r := m.selectedRow(); r != nil {
			sb.WriteString(styleMuted().Render(strings.Repeat("─", max(1, m.width))))
			sb.WriteString("\n")
			sb.WriteString(renderMarkdown(r.node.Content, max(10, m.width-2)))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(m.statusLine())
	return sb.String()
}

func (m *Model) statusLine() string {
	switch m.mode {
	case inputSearch:
		return "/" + m.input.View() + " " + m.searchCount()
	case inputNewChild:
		return "new module under " + m.inputContextName() + ": " + m.input.View()
	case inputNewRoot:
		return "new top-level module: " + m.input.View()
	case inputConfirmDelete:
		if r := m.selectedRow(); r != nil {
			return styleError().Render(fmt.Sprintf("delete %q and its subtree? (y/n)", r.node.Name))
		}
	}
	if m.errText != "" {
		return styleError().Render(m.errText)
	}
	if m.grabbing {
		hint := m.grabHint
		if hint == "" {
			hint = "grab & move: j/k to move, enter to drop, esc to cancel"
		}
		return styleAccent().Render(hint)
	}
	if m.search != nil && m.search.Len() > 0 {
		return m.searchCount() + styleMuted().Render("  n/N next/prev, / edit, esc clear")
	}
	if m.status != "" {
		return m.status
	}
	return styleMuted().Render("j/k move  enter toggle  g grab  / search  a/A add  D delete  v preview  q quit")
}

func (m *Model) inputContextName() string {
	if r := m.selectedRow(); r != nil {
		return r.node.Name
	}
	return "?"
}

func (m *Model) searchCount() string {
	if m.search == nil || m.search.Len() == 0 {
		if m.search != nil && m.search.Query != "" {
			return styleMuted().Render("no matches")
		}
		return ""
	}
	return styleMatch().Render(fmt.Sprintf("%d/%d", m.search.Cursor()+1, m.search.Len()))
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"modhub/internal/api"
	"modhub/internal/model"
	"modhub/internal/mutate"
	"modhub/internal/tree"
)

type workspacesMsg struct{ workspaces []model.Workspace }

type treeLoadedMsg struct {
	workspaceID int64
	name        string
	modules     []model.ModuleNode
}

type persistDoneMsg struct {
	opID int64
	err  error
}

type refreshMsg struct{}

type errMsg struct{ err error }

const requestTimeout = 10 * time.Second

func loadWorkspacesCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ws, err := client.ListWorkspaces(ctx)
		if err != nil {
			return errMsg{err}
		}
		return workspacesMsg{workspaces: ws}
	}
}

// enterWorkspaceCmd loads the tree (and the workspace name when not already
// known) for one workspace.
func (m *Model) enterWorkspaceCmd(workspaceID int64, name string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if name == "" {
			if ws, err := client.GetWorkspace(ctx, workspaceID); err == nil {
				name = ws.Name
			}
		}
		modules, err := client.FetchTree(ctx, workspaceID)
		if err != nil {
			return errMsg{err}
		}
		return treeLoadedMsg{workspaceID: workspaceID, name: name, modules: modules}
	}
}

func persistCmd(ctrl *mutate.Controller, op *mutate.Op) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return persistDoneMsg{opID: op.ID, err: ctrl.Persist(ctx, op)}
	}
}

// watchCmd waits for the next refresh signal. Re-armed after every message.
func watchCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return refreshMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.picker.SetSize(msg.Width, msg.Height)
		m.clampScroll()
		return m, nil

	case workspacesMsg:
		items := make([]list.Item, 0, len(msg.workspaces))
		for _, ws := range msg.workspaces {
			items = append(items, workspaceItem{ws: ws})
		}
		m.picker.SetItems(items)
		return m, nil

	case treeLoadedMsg:
		return m.onTreeLoaded(msg)

	case persistDoneMsg:
		out := m.ctrl.Resolve(msg.opID, msg.err)
		if out.RolledBack {
			m.errText = "save failed, change rolled back: " + out.Err.Error()
		}
		m.rebuildRows()
		return m, nil

	case refreshMsg:
		// Another editor changed the workspace: reload, keep watching.
		return m, tea.Batch(
			m.enterWorkspaceCmd(m.workspaceID, m.workspaceName),
			watchCmd(m.refresh),
		)

	case errMsg:
		m.errText = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if m.state == statePicker {
			return m.updatePicker(msg)
		}
		return m.updateTree(msg)
	}

	if m.state == statePicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) onTreeLoaded(msg treeLoadedMsg) (tea.Model, tea.Cmd) {
	nodes := tree.FromModules(msg.modules)
	if err := m.tr.Load(nodes); err != nil {
		m.errText = err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	if m.state != stateTree || m.workspaceID != msg.workspaceID {
		m.state = stateTree
		m.workspaceID = msg.workspaceID
		m.ctrl = mutate.NewController(m.tr, api.NewWorkspacePersister(m.client, msg.workspaceID))
		// One watcher at a time: stop the previous workspace's feed before
		// subscribing to the new one.
		if m.stopWatch != nil {
			m.stopWatch()
		}
		ctx, cancel := context.WithCancel(context.Background())
		m.stopWatch = cancel
		ch := m.client.WatchRefresh(ctx, msg.workspaceID)
		m.refresh = ch
		cmd = watchCmd(ch)
	}
	if msg.name != "" {
		m.workspaceName = msg.name
	}
	// Re-run an active search against the fresh tree.
	if m.search != nil && m.search.Query != "" {
		m.search = m.tr.Search(m.search.Query)
	}
	m.rebuildRows()
	return m, cmd
}

func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if it, ok := m.picker.SelectedItem().(workspaceItem); ok {
			return m, m.enterWorkspaceCmd(it.ws.ID, it.ws.Name)
		}
	case "q", "ctrl+c":
		if m.picker.FilterState() != list.Filtering {
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

func (m *Model) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any keypress clears a stale minibuffer error.
	if m.errText != "" && m.mode == inputNone {
		m.errText = ""
	}

	if m.mode != inputNone {
		return m.updateInput(msg)
	}
	if m.grabbing {
		return m.updateGrab(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)

	case "enter", "tab":
		if r := m.selectedRow(); r != nil && r.hasChildren {
			m.tr.ToggleExpanded(r.node.ID)
			m.rebuildRows()
		}
	case "l", "right":
		if r := m.selectedRow(); r != nil && r.hasChildren && !r.expanded {
			m.tr.SetExpanded(r.node.ID, true)
			m.rebuildRows()
		}
	case "h", "left":
		if r := m.selectedRow(); r != nil && r.hasChildren && r.expanded {
			m.tr.SetExpanded(r.node.ID, false)
			m.rebuildRows()
		}

	case "g":
		m.startGrab()

	case "/":
		m.mode = inputSearch
		if m.search != nil {
			m.input.SetValue(m.search.Query)
		} else {
			m.input.SetValue("")
		}
		m.input.Focus()

	case "n":
		if m.search != nil {
			m.search.Next(m.tr)
			m.rebuildRows()
		}
	case "N":
		if m.search != nil {
			m.search.Prev(m.tr)
			m.rebuildRows()
		}
	case "esc":
		if m.search != nil {
			// Clearing the query keeps expansions the search opened.
			m.search = m.tr.Search("")
			m.rebuildRows()
		}

	case "a":
		if r := m.selectedRow(); r != nil {
			if r.node.IsLeafContent {
				m.errText = mutate.ErrLeafContent.Error()
				return m, nil
			}
			m.mode = inputNewChild
			m.input.SetValue("")
			m.input.Focus()
		}
	case "A":
		m.mode = inputNewRoot
		m.input.SetValue("")
		m.input.Focus()

	case "D":
		if m.selectedRow() != nil {
			m.mode = inputConfirmDelete
		}

	case "v":
		m.preview = !m.preview
		m.clampScroll()

	case "r":
		return m, m.enterWorkspaceCmd(m.workspaceID, m.workspaceName)

	case "w":
		m.state = statePicker
		return m, loadWorkspacesCmd(m.client)
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.tr.Select(m.rows[m.cursor].node.ID)
	m.clampScroll()
}

// grab & move

func (m *Model) startGrab() {
	r := m.selectedRow()
	if r == nil {
		return
	}
	parent, sibs := m.tr.FindParentAndSiblings(r.node.ID)
	var parentID *int64
	if parent != nil {
		id := parent.ID
		parentID = &id
	}
	if m.ctrl.Saving(parentID) {
		m.errText = mutate.ErrSavePending.Error()
		return
	}
	for i, s := range sibs {
		if s.ID == r.node.ID {
			m.insertAt = i
			break
		}
	}
	m.grabbing = true
	m.grabID = r.node.ID
	m.grabHint = ""
	m.probeGate.Reset()
}

func (m *Model) updateGrab(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, sibs := m.tr.FindParentAndSiblings(m.grabID)

	switch msg.String() {
	case "j", "down":
		if m.insertAt < len(sibs)-1 {
			m.insertAt++
			m.grabHint = ""
		} else {
			m.probeBoundary(+1)
		}
	case "k", "up":
		if m.insertAt > 0 {
			m.insertAt--
			m.grabHint = ""
		} else {
			m.probeBoundary(-1)
		}

	case "enter", " ":
		return m.dropGrab()

	case "esc", "q":
		m.grabbing = false
		m.grabHint = ""
	}

	if m.grabbing && m.grabHint == "" {
		m.grabHint = fmt.Sprintf("drop at position %d/%d · enter drops, esc cancels", m.insertAt+1, len(sibs))
	}
	return m, nil
}

// probeBoundary validates a move past the sibling-group edge, which would
// land in another parent's group. Probes are throttled so holding a key does
// not spam validations.
func (m *Model) probeBoundary(dir int) {
	if !m.probeGate.Allow(time.Now()) {
		return
	}
	dst := m.adjacentSlot(dir)
	if m.ctrl.Probe(m.grabID, dst) == tree.MoveCrossParent {
		m.grabHint = "only same-level reordering is supported"
	}
}

// adjacentSlot is the slot of the row just past the grabbed node's sibling
// group in the given direction, or nil at the extremes of the tree.
func (m *Model) adjacentSlot(dir int) *tree.Slot {
	idx := rowIndexOf(m.rows, m.grabID)
	if idx < 0 {
		return nil
	}
	next := idx + dir
	if next < 0 || next >= len(m.rows) {
		return nil
	}
	s := m.tr.SlotOf(m.rows[next].node.ID)
	return &s
}

func (m *Model) dropGrab() (tea.Model, tea.Cmd) {
	m.grabbing = false
	m.grabHint = ""

	dst := m.tr.SlotOf(m.grabID)
	op, err := m.ctrl.BeginReorder(m.grabID, &dst, m.insertAt)
	switch {
	case errors.Is(err, mutate.ErrInvalidMove), errors.Is(err, mutate.ErrSavePending):
		// Transient hints, not application errors.
		m.errText = err.Error()
		return m, nil
	case err != nil:
		m.errText = err.Error()
		return m, nil
	}
	if op == nil {
		// Dropped where it already was.
		return m, nil
	}
	m.rebuildRows()
	return m, persistCmd(m.ctrl, op)
}

// minibuffer input

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case inputConfirmDelete:
		switch msg.String() {
		case "y", "Y":
			m.mode = inputNone
			return m, m.deleteSelected()
		default:
			m.mode = inputNone
		}
		return m, nil

	case inputSearch:
		switch msg.String() {
		case "enter":
			m.mode = inputNone
			m.input.Blur()
			return m, nil
		case "esc":
			m.mode = inputNone
			m.input.Blur()
			m.search = m.tr.Search("")
			m.rebuildRows()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.search = m.tr.Search(m.input.Value())
		m.rebuildRows()
		return m, cmd

	case inputNewChild, inputNewRoot:
		switch msg.String() {
		case "enter":
			name := m.input.Value()
			mode := m.mode
			m.mode = inputNone
			m.input.Blur()
			if name == "" {
				return m, nil
			}
			return m, m.createModule(mode, name)
		case "esc":
			m.mode = inputNone
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// createModule and deleteSelected run confirm-first against the backend on
// the event loop: the tree only changes after the server acknowledged, and
// the single-writer discipline holds.
func (m *Model) createModule(mode inputMode, name string) tea.Cmd {
	var parentID *int64
	if mode == inputNewChild {
		if r := m.selectedRow(); r != nil {
			id := r.node.ID
			parentID = &id
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	n, err := m.ctrl.CreateNode(ctx, parentID, name, false)
	if err != nil {
		m.errText = err.Error()
		return nil
	}
	if parentID != nil {
		m.tr.SetExpanded(*parentID, true)
	}
	m.tr.Select(n.ID)
	m.rebuildRows()
	return nil
}

func (m *Model) deleteSelected() tea.Cmd {
	r := m.selectedRow()
	if r == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := m.ctrl.DeleteNode(ctx, r.node.ID); err != nil {
		m.errText = err.Error()
		return nil
	}
	m.rebuildRows()
	return nil
}

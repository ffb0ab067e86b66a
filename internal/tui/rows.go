package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"modhub/internal/tree"
)

// treeRow is one visible line of the module tree: the flattened form of the
// store honoring the expanded set.
type treeRow struct {
	node        *tree.Node
	depth       int
	hasChildren bool
	expanded    bool
}

func flattenTree(tr *tree.Tree) []treeRow {
	var out []treeRow
	var walk func(n *tree.Node, depth int)
	walk = func(n *tree.Node, depth int) {
		expanded := tr.IsExpanded(n.ID)
		out = append(out, treeRow{
			node:        n,
			depth:       depth,
			hasChildren: n.HasChildren(),
			expanded:    expanded,
		})
		if !expanded {
			return
		}
		for _, ch := range n.Children {
			walk(ch, depth+1)
		}
	}
	for _, r := range tr.Roots() {
		walk(r, 0)
	}
	return out
}

func rowIndexOf(rows []treeRow, id int64) int {
	for i, r := range rows {
		if r.node.ID == id {
			return i
		}
	}
	return -1
}

// renderRowLabel renders the node name, marking the query's first occurrence
// when a search is active.
func renderRowLabel(name, query string, base lipgloss.Style) string {
	if query == "" {
		return base.Render(name)
	}
	var sb strings.Builder
	for _, seg := range tree.HighlightSegments(name, query) {
		if seg.Match {
			sb.WriteString(styleMatch().Render(seg.Text))
		} else {
			sb.WriteString(base.Render(seg.Text))
		}
	}
	return sb.String()
}

// renderRow produces one tree line: indent, twisty, label, badges.
func renderRow(r treeRow, selected, grabbed, saving bool, query string, width int) string {
	indent := strings.Repeat("  ", r.depth)

	twisty := " "
	if r.hasChildren {
		twisty = glyphTwistyCollapsed()
		if r.expanded {
			twisty = glyphTwistyExpanded()
		}
	} else if r.node.IsLeafContent {
		twisty = glyphBullet()
	}

	base := lipgloss.NewStyle()
	if selected {
		base = styleSelected()
	}
	label := renderRowLabel(r.node.Name, query, base)

	line := indent + twisty + " " + label
	if grabbed {
		line += " " + styleAccent().Render(glyphGrab())
	}
	if saving {
		line += " " + styleBadge().Render("saving…")
	}
	if width > 0 {
		line = xansi.Truncate(line, width, "…")
	}
	return line
}

package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdMu        sync.Mutex
	mdRenderers = map[int]*glamour.TermRenderer{}
)

// renderMarkdown renders module content for the preview pane. Renderers are
// cached per wrap width; glamour setup is not cheap.
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return styleMuted().Render("(no content)")
	}
	if width < 10 {
		width = 10
	}

	mdMu.Lock()
	rr := mdRenderers[width]
	if rr == nil {
		style := "light"
		if lipgloss.HasDarkBackground() {
			style = "dark"
		}
		var err error
		rr, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			mdMu.Unlock()
			return content
		}
		mdRenderers[width] = rr
	}
	mdMu.Unlock()

	out, err := rr.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

const (
	minWidth  = 60
	minHeight = 16
)

// keyHint is a key binding shown in the footer.
type keyHint struct {
	Key         string
	Description string
}

func tooSmall(width, height int) bool {
	return width < minWidth || height < minHeight
}

func renderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			minWidth, minHeight, width, height,
		))
}

// renderHeader shows the app name on the left and the logged-in account on
// the right.
func renderHeader(status string, width int) string {
	left := lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true).
		Render("  ⛪ Schoolbot")
	right := lipgloss.NewStyle().
		Foreground(Gold).
		Render(status)

	inner := max(width-4, 0)
	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return bar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderFooter(hints []keyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(Text).Bold(true).Render(h.Key)+" "+
				lipgloss.NewStyle().Foreground(TextDim).Render(h.Description))
	}
	return bar.Width(width).Render("  " + strings.Join(parts, "   "))
}

// renderFrame stacks header, content and footer, padding the content to
// fill the terminal.
func renderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	styled := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Render(content)
	return header + "\n" + styled + "\n" + footer
}

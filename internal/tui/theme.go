package tui

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary = lipgloss.Color("#7C3AED") // Violet
	Gold    = lipgloss.Color("#EAB308")
	Success = lipgloss.Color("#22C55E")
	Danger  = lipgloss.Color("#F43F5E")
	Text    = lipgloss.Color("#F8FAFC")
	TextDim = lipgloss.Color("#94A3B8")
	BgCard  = lipgloss.Color("#1E293B")
	Border  = lipgloss.Color("#334155")
)

// Transcript
var (
	botStyle = lipgloss.NewStyle().
			Foreground(Text)

	userStyle = lipgloss.NewStyle().
			Foreground(Gold).
			Bold(true)

	rejectedStyle = lipgloss.NewStyle().
			Foreground(Danger)

	hintStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Italic(true)
)

// Buttons
var (
	buttonSelected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	buttonIdle = lipgloss.NewStyle().
			Foreground(Text)

	buttonDimmed = lipgloss.NewStyle().
			Foreground(TextDim)
)

var bar = lipgloss.NewStyle().
	Background(BgCard).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border)

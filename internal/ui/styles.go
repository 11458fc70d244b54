package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple

	// Status colors
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorInfo    = lipgloss.Color("#3B82F6") // Blue

	// Commit state colors
	ColorPR       = lipgloss.Color("#10B981") // Green
	ColorOutdated = lipgloss.Color("#F59E0B") // Amber
	ColorLocal    = lipgloss.Color("#9CA3AF") // Light gray

	// Ref colors
	ColorBranch = lipgloss.Color("#6366F1") // Indigo
	ColorRemote = lipgloss.Color("#EF4444") // Red
	ColorHead   = lipgloss.Color("#06B6D4") // Cyan

	// Text colors
	ColorTextMuted  = lipgloss.Color("#9CA3AF") // Gray
	ColorTextBright = lipgloss.Color("#FFFFFF") // White

	ColorBorder = lipgloss.Color("#374151") // Medium gray
)

var (
	BoldStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorTextBright)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

// Commit state styles
var (
	StatePRStyle = lipgloss.NewStyle().
			Foreground(ColorPR).
			Bold(true)

	StateOutdatedStyle = lipgloss.NewStyle().
				Foreground(ColorOutdated).
				Bold(true)

	StateLocalStyle = lipgloss.NewStyle().
			Foreground(ColorLocal)
)

// Ref styles
var (
	BranchStyle = lipgloss.NewStyle().
			Foreground(ColorBranch).
			Bold(true)

	RemoteBranchStyle = lipgloss.NewStyle().
				Foreground(ColorRemote)

	HeadMarkerStyle = lipgloss.NewStyle().
			Foreground(ColorHead).
			Bold(true)
)

// Tree styles
var (
	TreeEnumeratorStyle = lipgloss.NewStyle().
				Foreground(ColorBorder)

	TreeRootStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)
)

// Message styles
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)
)

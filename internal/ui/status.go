package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/taneliang/stack-attack/internal/model"
)

// Status icons
const (
	IconPR       = "●"
	IconOutdated = "◎"
	IconLocal    = "◯"
)

// Status describes how a commit relates to its pull request
type Status struct {
	Icon  string
	Label string
	Style lipgloss.Style
}

var (
	statusPR       = Status{Icon: IconPR, Label: "PR up to date", Style: StatePRStyle}
	statusOutdated = Status{Icon: IconOutdated, Label: "PR outdated", Style: StateOutdatedStyle}
	statusLocal    = Status{Icon: IconLocal, Label: "no PR", Style: StateLocalStyle}
)

// GetCommitStatus returns the Status of a commit.
func GetCommitStatus(c *model.Commit) Status {
	switch {
	case c == nil || c.PullRequestInfo == nil:
		return statusLocal
	case c.PullRequestInfo.IsOutdated:
		return statusOutdated
	default:
		return statusPR
	}
}

// Render returns the full status with icon and label (e.g., "● PR up to date")
func (s Status) Render() string {
	return s.Style.Render(s.Icon + " " + s.Label)
}

// RenderCompact returns just the styled icon
func (s Status) RenderCompact() string {
	return s.Style.Render(s.Icon)
}

package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taneliang/stack-attack/internal/model"
)

// Truncate truncates text to maxLen with an ellipsis if needed
// Uses lipgloss for proper ANSI-aware width handling
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	width := lipgloss.Width(text)
	if width <= maxLen {
		return text
	}

	if maxLen <= 3 {
		return lipgloss.NewStyle().MaxWidth(maxLen).Render(text)
	}
	return lipgloss.NewStyle().MaxWidth(maxLen-3).Render(text) + "..."
}

// minTitleLength keeps titles readable on very narrow terminals.
const minTitleLength = 20

// TitleLength is the width commit titles are truncated to: Display.MaxTitleLength, or half
// the terminal width when that is smaller.
func TitleLength() int {
	limit := Display.MaxTitleLength
	if half := GetTerminalWidth() / 2; half < limit {
		limit = max(half, minTitleLength)
	}
	return limit
}

// RenderKeyValue renders "Key: value" with a dimmed key
func RenderKeyValue(key string, value string) string {
	return DimStyle.Render(key+":") + " " + value
}

// ShortHash abbreviates hash to Display.CommitHashDisplayLength characters.
func ShortHash(hash model.CommitHash) string {
	if len(hash) > Display.CommitHashDisplayLength {
		return hash[:Display.CommitHashDisplayLength]
	}
	return hash
}

type refLabel struct {
	name   string
	remote bool
}

// refLabels returns the refs of c for display, local branches first.
func refLabels(c *model.Commit) []refLabel {
	var local, remote, other []string
	for _, ref := range c.RefNames {
		switch {
		case model.IsLocalRef(ref):
			local = append(local, model.LocalRefToBranchName(ref))
		case model.IsRemoteRef(ref):
			remote = append(remote, strings.TrimPrefix(ref, model.RemoteRefPrefix))
		default:
			other = append(other, ref)
		}
	}
	slices.Sort(local)
	slices.Sort(remote)
	slices.Sort(other)

	labels := make([]refLabel, 0, len(c.RefNames))
	for _, name := range slices.Concat(local, other) {
		labels = append(labels, refLabel{name: name})
	}
	for _, name := range remote {
		labels = append(labels, refLabel{name: name, remote: true})
	}
	return labels
}

// RefLabels returns the display names of the refs of c.
func RefLabels(c *model.Commit) []string {
	labels := refLabels(c)
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.name
	}
	return names
}

// FormatCommitLine formats a commit for the tree view.
// Example: "● a1b2c3d Add JWT auth (stack-attack/x, origin/stack-attack/x) #12 ← HEAD"
func FormatCommitLine(c *model.Commit, headHash model.CommitHash) string {
	parts := []string{
		GetCommitStatus(c).RenderCompact(),
		DimStyle.Render(ShortHash(c.Hash)),
		Truncate(c.Title, TitleLength()),
	}

	if refs := formatRefs(c); refs != "" {
		parts = append(parts, refs)
	}

	if pr := c.PullRequestInfo; pr != nil {
		label := fmt.Sprintf("#%d", pr.Number)
		if pr.IsOutdated {
			parts = append(parts, StateOutdatedStyle.Render(label+" (outdated)"))
		} else {
			parts = append(parts, StatePRStyle.Render(label))
		}
	}

	if c.Hash == headHash {
		parts = append(parts, HeadMarkerStyle.Render("← HEAD"))
	}
	return strings.Join(parts, " ")
}

func formatRefs(c *model.Commit) string {
	labels := refLabels(c)
	if len(labels) == 0 {
		return ""
	}
	styled := make([]string, len(labels))
	for i, l := range labels {
		if l.remote {
			styled[i] = RemoteBranchStyle.Render(l.name)
		} else {
			styled[i] = BranchStyle.Render(l.name)
		}
	}
	return "(" + strings.Join(styled, ", ") + ")"
}

// FormatCommitFinderLine formats a commit for fuzzy finder display.
// Fuzzy finder doesn't support ANSI codes, so we use plain text.
func FormatCommitFinderLine(c *model.Commit) string {
	line := fmt.Sprintf("%s %s %s", GetCommitStatus(c).Icon, ShortHash(c.Hash), Truncate(c.Title, TitleLength()))
	if labels := RefLabels(c); len(labels) > 0 {
		line += " (" + strings.Join(labels, ", ") + ")"
	}
	if c.PullRequestInfo != nil {
		line += fmt.Sprintf(" #%d", c.PullRequestInfo.Number)
	}
	return line
}

// FormatCommitPreview formats a commit for the fuzzy finder preview window.
// Preview pane supports ANSI codes, so we can use styling.
func FormatCommitPreview(c *model.Commit) string {
	lines := []string{
		RenderKeyValue("Commit", c.Hash),
		RenderKeyValue("Title", Bold(c.Title)),
		RenderKeyValue("Author", fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email)),
		RenderKeyValue("Date", c.Timestamp.Format("2006-01-02 15:04")),
	}

	if labels := RefLabels(c); len(labels) > 0 {
		lines = append(lines, RenderKeyValue("Refs", strings.Join(labels, ", ")))
	}

	if pr := c.PullRequestInfo; pr != nil {
		lines = append(lines,
			RenderKeyValue("PR", fmt.Sprintf("#%d %s", pr.Number, GetCommitStatus(c).Render())),
			RenderKeyValue("URL", Highlight(pr.URL)),
		)
		if pr.Description != "" {
			desc := strings.Split(pr.Description, "\n")
			if len(desc) > Display.MaxPreviewLines {
				desc = append(desc[:Display.MaxPreviewLines], Dim("..."))
			}
			lines = append(lines, "", Bold("Description:"))
			lines = append(lines, desc...)
		}
	}
	return strings.Join(lines, "\n")
}

package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/taneliang/stack-attack/internal/model"
)

func init() {
	// Force lipgloss to initialize and detect terminal before fuzzy finder starts
	// This prevents ANSI escape sequences from leaking into the finder input
	_ = lipgloss.NewStyle().Render("")
	_ = lipgloss.HasDarkBackground()
}

// Action is an entry of an action menu.
type Action struct {
	Name        string
	Description string
}

// SelectCommit presents a fuzzy finder over commits.
// Returns nil if the user cancelled the selection.
func SelectCommit(prompt string, commits []*model.Commit) (*model.Commit, error) {
	if len(commits) == 0 {
		return nil, errors.New("no commits to choose from")
	}

	idx, err := fuzzyfinder.Find(
		commits,
		func(i int) string {
			return FormatCommitFinderLine(commits[i])
		},
		fuzzyfinder.WithPromptString(prompt+" > "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return FormatCommitPreview(commits[i])
		}),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("commit selection failed: %w", err)
	}
	return commits[idx], nil
}

// SelectAction presents a fuzzy finder over actions and returns the chosen index,
// or -1 if the user cancelled.
func SelectAction(prompt string, actions []Action) (int, error) {
	idx, err := fuzzyfinder.Find(
		actions,
		func(i int) string {
			return actions[i].Name
		},
		fuzzyfinder.WithPromptString(prompt+" > "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return actions[i].Description
		}),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("action selection failed: %w", err)
	}
	return idx, nil
}

package stack

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/taneliang/stack-attack/internal/model"
)

const (
	stackSectionStart = "<!-- sttack:stack -->"
	stackSectionEnd   = "<!-- /sttack:stack -->"
)

var stackSectionRe = regexp.MustCompile(`(?s)\n*` + regexp.QuoteMeta(stackSectionStart) + `.*?` + regexp.QuoteMeta(stackSectionEnd) + `\n*`)

// RenderStackSection renders the list of PRs in a stack, highlighting current.
func RenderStackSection(stack []*model.PullRequestInfo, current int) string {
	var sb strings.Builder
	sb.WriteString(stackSectionStart + "\n")
	sb.WriteString("Stack:\n")
	for _, pr := range stack {
		entry := fmt.Sprintf("#%d %s", pr.Number, pr.Title)
		if pr.Number == current {
			entry = "**" + entry + "**"
		}
		sb.WriteString("- " + entry + "\n")
	}
	sb.WriteString(stackSectionEnd)
	return sb.String()
}

// ReplaceStackSection returns body with any previous stack section replaced by section.
// Text outside the section is kept.
func ReplaceStackSection(body, section string) string {
	body = strings.TrimSpace(stackSectionRe.ReplaceAllString(body, "\n\n"))
	if body == "" {
		return section
	}
	return body + "\n\n" + section
}

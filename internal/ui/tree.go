package ui

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"

	"github.com/taneliang/stack-attack/internal/model"
)

// RenderRepository renders a snapshot as a tree growing from its earliest interesting commit.
// Each line of development continues at the same depth; a commit with several children gets
// the extra ones nested below it. The line leading to HEAD is always the one that continues.
// Example output:
//
//	stack-attack
//	├─ ◯ 1a2b3c4 Release 1.2 (main, origin/main)
//	├─ ● 2b3c4d5 Add JWT auth (stack-attack/amber-otter-quill-1f2e3d) #12
//	│  ╰─ ◎ 9f8e7d6 Try other approach (experiment) #14 (outdated)
//	├─ … 3 commits
//	╰─ ◯ 3c4d5e6 Refresh tokens (feature) ← HEAD
func RenderRepository(repo *model.Repository) string {
	root, ok := repo.Commit(repo.EarliestInterestingCommit)
	if !ok {
		return Dim("No commits to show")
	}

	r := &treeRenderer{
		repo:       repo,
		towardHead: headAncestors(repo),
		seen:       map[model.CommitHash]bool{},
	}
	t := newTree(TreeRootStyle.Render(filepath.Base(repo.Path)))
	r.addLine(t, root)

	out := t.String()
	if repo.HasUncommittedChanges {
		out += "\n" + WarningStyle.Render("⚠ working copy has uncommitted changes")
	}
	return out
}

type treeRenderer struct {
	repo       *model.Repository
	towardHead map[model.CommitHash]bool
	seen       map[model.CommitHash]bool
}

// addLine appends start and the commits following it on the same line of development to node.
func (r *treeRenderer) addLine(node *tree.Tree, start *model.Commit) {
	var folded []*model.Commit
	for c := start; c != nil; {
		if r.seen[c.Hash] {
			r.flush(node, folded)
			node.Child(Dim("↗ " + ShortHash(c.Hash)))
			return
		}
		r.seen[c.Hash] = true

		next, others := r.splitChildren(c)
		if c != start && next != nil && len(others) == 0 && r.isPlain(c) {
			folded = append(folded, c)
			c = next
			continue
		}

		r.flush(node, folded)
		folded = nil

		label := FormatCommitLine(c, r.repo.HeadHash)
		if len(others) == 0 {
			node.Child(label)
		} else {
			sub := newTree(label)
			for _, other := range others {
				r.addLine(sub, other)
			}
			node.Child(sub)
		}
		c = next
	}
	r.flush(node, folded)
}

// flush writes out folded commits, collapsing long runs into one line.
func (r *treeRenderer) flush(node *tree.Tree, folded []*model.Commit) {
	if len(folded) > Display.CollapseAfter {
		node.Child(Dim(fmt.Sprintf("… %d commits", len(folded))))
		return
	}
	for _, c := range folded {
		node.Child(FormatCommitLine(c, r.repo.HeadHash))
	}
}

// splitChildren picks the child that continues the current line and returns the rest.
func (r *treeRenderer) splitChildren(c *model.Commit) (*model.Commit, []*model.Commit) {
	children := r.repo.Children(c.Hash)
	if len(children) == 0 {
		return nil, nil
	}
	slices.SortFunc(children, func(a, b *model.Commit) int {
		if cmp := a.Timestamp.Compare(b.Timestamp); cmp != 0 {
			return cmp
		}
		return strings.Compare(a.Hash, b.Hash)
	})

	next := 0
	for i, child := range children {
		if r.towardHead[child.Hash] {
			next = i
			break
		}
	}
	others := slices.Delete(slices.Clone(children), next, next+1)
	return children[next], others
}

// isPlain reports whether a commit carries nothing worth a line of its own.
func (r *treeRenderer) isPlain(c *model.Commit) bool {
	return len(c.RefNames) == 0 && c.PullRequestInfo == nil && c.Hash != r.repo.HeadHash
}

// headAncestors returns HEAD and its ancestors inside the snapshot.
func headAncestors(repo *model.Repository) map[model.CommitHash]bool {
	result := map[model.CommitHash]bool{}
	queue := []model.CommitHash{repo.HeadHash}
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		c, ok := repo.Commit(hash)
		if !ok || result[hash] {
			continue
		}
		result[hash] = true
		queue = append(queue, c.ParentHashes...)
	}
	return result
}

func newTree(root string) *tree.Tree {
	return tree.Root(root).
		Enumerator(roundedEnumerator).
		EnumeratorStyle(TreeEnumeratorStyle).
		Indenter(treeIndenter)
}

// roundedEnumerator draws ╰─ for the last child and ├─ otherwise.
func roundedEnumerator(children tree.Children, i int) string {
	if children.Length() == 0 {
		return ""
	}
	if i == children.Length()-1 {
		return "╰─ "
	}
	return "├─ "
}

func treeIndenter(children tree.Children, i int) string {
	if children.Length() == 0 {
		return ""
	}
	if i == children.Length()-1 {
		return "   " // No vertical line after last child
	}
	return "│  "
}

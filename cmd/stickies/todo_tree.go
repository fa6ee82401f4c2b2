package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"github.com/nhle/stickies/internal/model"
)

// minTextWidth keeps deep trees readable on narrow terminals.
const minTextWidth = 12

type treeOptions struct {
	Width         int
	HideCompleted bool
}

// printTodoTree prints the forest with ASCII connectors, one todo per line,
// wrapping long text under its own column.
func printTodoTree(w io.Writer, roots []*model.TreeNode, opts treeOptions) {
	roots = visible(roots, opts.HideCompleted)
	if len(roots) == 0 {
		fmt.Fprintln(w, "no todos")
		return
	}
	for i, n := range roots {
		printTodoNode(w, n, "", i == len(roots)-1, true, opts)
	}
}

func printTodoNode(w io.Writer, node *model.TreeNode, prefix string, isLast, isRoot bool, opts treeOptions) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if isRoot {
		connector = ""
	}

	// childPrefix continues the vertical guide below this node.
	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}

	head := prefix + connector + checkbox(node.Todo) + " "
	body := node.Todo.Text + todoSuffix(node)

	avail := opts.Width - ansi.PrintableRuneWidth(head)
	if avail < minTextWidth {
		avail = minTextWidth
	}
	lines := strings.Split(wordwrap.String(body, avail), "\n")

	fmt.Fprintln(w, head+lines[0])
	// Continuation lines hang under the text, past the checkbox.
	for _, l := range lines[1:] {
		fmt.Fprintln(w, childPrefix+"    "+l)
	}

	children := visible(node.Children, opts.HideCompleted)
	for i, c := range children {
		printTodoNode(w, c, childPrefix, i == len(children)-1, false, opts)
	}
}

// todoSuffix renders the countdown, subtree progress and id after the text.
func todoSuffix(node *model.TreeNode) string {
	var b strings.Builder
	t := node.Todo
	if t.HasCounter() {
		fmt.Fprintf(&b, " %d/%d", t.CurrentCount, *t.TargetCount)
	}
	if len(node.Children) > 0 {
		done, total := progress(node)
		fmt.Fprintf(&b, " [%d/%d]", done, total)
	}
	fmt.Fprintf(&b, " #%d", t.ID)
	return b.String()
}

func progress(node *model.TreeNode) (done, total int) {
	for _, c := range node.Children {
		total++
		if c.Todo.Completed {
			done++
		}
		d, t := progress(c)
		done += d
		total += t
	}
	return done, total
}

func checkbox(t model.TodoNode) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

// visible drops completed nodes, and with them their subtrees, when hide is
// set.
func visible(nodes []*model.TreeNode, hide bool) []*model.TreeNode {
	if !hide {
		return nodes
	}
	out := make([]*model.TreeNode, 0, len(nodes))
	for _, n := range nodes {
		if !n.Todo.Completed {
			out = append(out, n)
		}
	}
	return out
}

// outputWidth returns the terminal width when stdout is a terminal and the
// configured display width otherwise.
func outputWidth(cfg *model.AppConfig) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return cfg.Display.Width
}

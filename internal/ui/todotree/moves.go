package todotree

import "github.com/nhle/stickies/internal/model"

// Target is where a todo should go: a sibling group and the final index the
// todo occupies inside it, as MoveTodo expects.
type Target struct {
	ParentID *int64
	Position int
}

// indexIn returns id's index in its sibling group, or -1.
func indexIn(group []model.TodoNode, id int64) int {
	for i, t := range group {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// MoveUp swaps a todo with its previous sibling.
func MoveUp(f *model.Forest, id int64) (Target, bool) {
	node, ok := f.Node(id)
	if !ok {
		return Target{}, false
	}
	i := indexIn(f.Group(node.ParentID), id)
	if i <= 0 {
		return Target{}, false
	}
	return Target{ParentID: node.ParentID, Position: i - 1}, true
}

// MoveDown swaps a todo with its next sibling.
func MoveDown(f *model.Forest, id int64) (Target, bool) {
	node, ok := f.Node(id)
	if !ok {
		return Target{}, false
	}
	group := f.Group(node.ParentID)
	i := indexIn(group, id)
	if i < 0 || i >= len(group)-1 {
		return Target{}, false
	}
	return Target{ParentID: node.ParentID, Position: i + 1}, true
}

// Indent makes a todo the last child of its previous sibling.
func Indent(f *model.Forest, id int64) (Target, bool) {
	node, ok := f.Node(id)
	if !ok {
		return Target{}, false
	}
	group := f.Group(node.ParentID)
	i := indexIn(group, id)
	if i <= 0 {
		return Target{}, false
	}
	prev := group[i-1].ID
	return Target{ParentID: &prev, Position: len(f.ChildIDs(prev))}, true
}

// Outdent moves a todo out of its parent, directly after it.
func Outdent(f *model.Forest, id int64) (Target, bool) {
	node, ok := f.Node(id)
	if !ok || node.ParentID == nil {
		return Target{}, false
	}
	parent, ok := f.Node(*node.ParentID)
	if !ok {
		return Target{}, false
	}
	i := indexIn(f.Group(parent.ParentID), parent.ID)
	if i < 0 {
		return Target{}, false
	}
	return Target{ParentID: parent.ParentID, Position: i + 1}, true
}

package model

import (
	"slices"
	"sort"
)

// rootKey is the adjacency key of the root sibling group. Store-assigned ids
// start at 1, so 0 never collides with a real node.
const rootKey int64 = 0

// TreeNode is a TodoNode with its ordered children attached.
type TreeNode struct {
	Todo     TodoNode
	Children []*TreeNode
}

// Row is one line of a depth-first walk over the forest.
type Row struct {
	Todo  TodoNode
	Depth int
	// Index is the node's position among its displayed siblings.
	Index int
	// Last is true when the node is the final child of its group.
	Last bool
}

// Forest is an in-memory adjacency view over a full todo snapshot.
// It is built once per read and never mutated afterwards.
type Forest struct {
	nodes    map[int64]TodoNode
	children map[int64][]int64
}

// NewForest groups the snapshot by parent and orders every sibling group by
// position, breaking ties by id. Nodes whose parent is missing from the
// snapshot are treated as roots.
func NewForest(todos []TodoNode) *Forest {
	f := &Forest{
		nodes:    make(map[int64]TodoNode, len(todos)),
		children: make(map[int64][]int64),
	}
	for _, t := range todos {
		f.nodes[t.ID] = t
	}
	for _, t := range todos {
		key := rootKey
		if t.ParentID != nil {
			if _, ok := f.nodes[*t.ParentID]; ok {
				key = *t.ParentID
			}
		}
		f.children[key] = append(f.children[key], t.ID)
	}
	for key, ids := range f.children {
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := f.nodes[ids[i]], f.nodes[ids[j]]
			if a.Position != b.Position {
				return a.Position < b.Position
			}
			return a.ID < b.ID
		})
		f.children[key] = ids
	}
	return f
}

// Len returns the number of nodes in the forest.
func (f *Forest) Len() int { return len(f.nodes) }

// Node looks up a node by id.
func (f *Forest) Node(id int64) (TodoNode, bool) {
	t, ok := f.nodes[id]
	return t, ok
}

// IDs returns every node id in ascending order.
func (f *Forest) IDs() []int64 {
	ids := make([]int64, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Has reports whether id is present.
func (f *Forest) Has(id int64) bool {
	_, ok := f.nodes[id]
	return ok
}

// ChildIDs returns the ordered ids of the direct children of id.
func (f *Forest) ChildIDs(id int64) []int64 {
	return f.children[id]
}

// Group returns the ordered sibling group for parentID (nil = root group).
func (f *Forest) Group(parentID *int64) []TodoNode {
	key := rootKey
	if parentID != nil {
		key = *parentID
	}
	ids := f.children[key]
	out := make([]TodoNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.nodes[id])
	}
	return out
}

// Descendants returns every transitive descendant of id in depth-first
// order. id itself is not included.
func (f *Forest) Descendants(id int64) []int64 {
	var out []int64
	seen := map[int64]bool{id: true}
	stack := append([]int64(nil), f.children[id]...)
	for len(stack) > 0 {
		cur := stack[0]
		stack = stack[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		stack = append(append([]int64(nil), f.children[cur]...), stack...)
	}
	return out
}

// Ancestors returns the parent chain of id, nearest first. The walk stops at
// a missing parent or at a repeated id, so corrupt data cannot loop forever.
func (f *Forest) Ancestors(id int64) []int64 {
	var out []int64
	seen := map[int64]bool{id: true}
	cur, ok := f.nodes[id]
	for ok && cur.ParentID != nil {
		pid := *cur.ParentID
		if seen[pid] {
			break
		}
		parent, exists := f.nodes[pid]
		if !exists {
			break
		}
		seen[pid] = true
		out = append(out, pid)
		cur, ok = parent, true
	}
	return out
}

// IsAncestor reports whether ancestor appears on the parent chain of id,
// or is id itself.
func (f *Forest) IsAncestor(ancestor, id int64) bool {
	if ancestor == id {
		return true
	}
	for _, a := range f.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Trees returns the forest as nested TreeNodes in display order.
func (f *Forest) Trees() []*TreeNode {
	return f.build(rootKey)
}

func (f *Forest) build(key int64) []*TreeNode {
	ids := f.children[key]
	out := make([]*TreeNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, &TreeNode{
			Todo:     f.nodes[id],
			Children: f.build(id),
		})
	}
	return out
}

// Flatten walks the forest depth-first. When collapsed is non-nil, children
// of ids marked true are skipped.
func (f *Forest) Flatten(collapsed map[int64]bool) []Row {
	var rows []Row
	var walk func(key int64, depth int)
	walk = func(key int64, depth int) {
		ids := f.children[key]
		for i, id := range ids {
			rows = append(rows, Row{
				Todo:  f.nodes[id],
				Depth: depth,
				Index: i,
				Last:  i == len(ids)-1,
			})
			if collapsed[id] {
				continue
			}
			walk(id, depth+1)
		}
	}
	walk(rootKey, 0)
	return rows
}

// Progress returns the number of completed and total descendants of id.
func (f *Forest) Progress(id int64) (done, total int) {
	for _, d := range f.Descendants(id) {
		total++
		if f.nodes[d].Completed {
			done++
		}
	}
	return done, total
}

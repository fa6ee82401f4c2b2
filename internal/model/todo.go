package model

// TodoNode is a single item in the todo forest. Nodes sharing a ParentID form
// a sibling group ordered by Position; a nil ParentID is the root group.
type TodoNode struct {
	ID        int64  `json:"id" db:"id"`
	Text      string `json:"text" db:"text"`
	Completed bool   `json:"completed" db:"completed"`
	ParentID  *int64 `json:"parent_id,omitempty" db:"parent_id"`
	Position  int    `json:"position" db:"position"`

	// TargetCount is nil for ordinary checkbox nodes. When set, CurrentCount
	// counts down from TargetCount and the node completes at zero.
	TargetCount  *int `json:"target_count,omitempty" db:"target_count"`
	CurrentCount int  `json:"current_count" db:"current_count"`
}

// HasCounter reports whether the node carries a countdown.
func (t TodoNode) HasCounter() bool { return t.TargetCount != nil }

// IsRoot reports whether the node lives in the root sibling group.
func (t TodoNode) IsRoot() bool { return t.ParentID == nil }

// SameParent reports whether the node belongs to the sibling group
// identified by parentID.
func (t TodoNode) SameParent(parentID *int64) bool {
	if t.ParentID == nil || parentID == nil {
		return t.ParentID == nil && parentID == nil
	}
	return *t.ParentID == *parentID
}

// Note is the single free-form note shown above the todo list.
type Note struct {
	Content string `json:"content" db:"content"`
}

// Stats summarises the todo forest for headers and status lines.
type Stats struct {
	Total     int `json:"total" db:"total"`
	Completed int `json:"completed" db:"completed"`
	Counters  int `json:"counters" db:"counters"`
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

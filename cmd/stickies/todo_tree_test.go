package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nhle/stickies/internal/model"
)

func sampleForest() []*model.TreeNode {
	return model.NewForest([]model.TodoNode{
		{ID: 1, Text: "groceries", Position: 0},
		{ID: 2, Text: "milk", ParentID: model.Int64Ptr(1), Position: 0, Completed: true},
		{ID: 3, Text: "eggs", ParentID: model.Int64Ptr(1), Position: 1, TargetCount: model.IntPtr(3), CurrentCount: 1},
		{ID: 4, Text: "organic", ParentID: model.Int64Ptr(2), Position: 0, Completed: true},
		{ID: 5, Text: "laundry", Position: 1},
	}).Trees()
}

func TestPrintTodoTree(t *testing.T) {
	var buf bytes.Buffer
	printTodoTree(&buf, sampleForest(), treeOptions{Width: 80})

	want := strings.Join([]string{
		"[ ] groceries [2/3] #1",
		"├── [x] milk [1/1] #2",
		"│   └── [x] organic #4",
		"└── [ ] eggs 1/3 #3",
		"[ ] laundry #5",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("tree =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestPrintTodoTree_HideCompleted(t *testing.T) {
	var buf bytes.Buffer
	printTodoTree(&buf, sampleForest(), treeOptions{Width: 80, HideCompleted: true})

	want := strings.Join([]string{
		"[ ] groceries [2/3] #1",
		"└── [ ] eggs 1/3 #3",
		"[ ] laundry #5",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("tree =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestPrintTodoTree_Wraps(t *testing.T) {
	roots := model.NewForest([]model.TodoNode{
		{ID: 1, Text: "parent", Position: 0},
		{ID: 2, Text: "call the plumber about the kitchen sink", ParentID: model.Int64Ptr(1), Position: 0},
	}).Trees()

	var buf bytes.Buffer
	printTodoTree(&buf, roots, treeOptions{Width: 30})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected wrapped output, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[1], "└── [ ] call the") {
		t.Errorf("first child line = %q", lines[1])
	}
	for _, l := range lines[2:] {
		if !strings.HasPrefix(l, "        ") {
			t.Errorf("continuation %q should hang under the text", l)
		}
	}
}

func TestPrintTodoTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	printTodoTree(&buf, nil, treeOptions{Width: 40})
	if buf.String() != "no todos\n" {
		t.Errorf("empty tree = %q", buf.String())
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{"#12", 12, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

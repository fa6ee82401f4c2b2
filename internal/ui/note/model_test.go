package note

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestView_Placeholder(t *testing.T) {
	m := New("mono", 60, 20)
	if !strings.Contains(m.Panel(5), "No note") {
		t.Errorf("empty note panel = %q", m.Panel(5))
	}
	if !strings.Contains(m.View(), "No note") {
		t.Errorf("empty note view = %q", m.View())
	}
	if m.PanelHeight(10) != 3 {
		t.Errorf("PanelHeight = %d, want 3", m.PanelHeight(10))
	}
}

func TestView_RendersContent(t *testing.T) {
	m := New("mono", 60, 20)
	m.SetContent("# Groceries\n\n- milk\n- eggs")

	view := m.View()
	for _, want := range []string{"Groceries", "milk", "eggs"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if h := m.PanelHeight(4); h != 4 {
		t.Errorf("PanelHeight should cap at 4, got %d", h)
	}
	if got := strings.Count(m.Panel(4), "\n") + 1; got != 4 {
		t.Errorf("clamped view has %d lines, want 4", got)
	}
}

func TestEdit_SaveAndCancel(t *testing.T) {
	m := New("mono", 60, 20)
	m.SetContent("old")
	m.StartEdit()
	if !m.Editing() {
		t.Fatal("StartEdit should open the editor")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("!")})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.Editing() || cmd == nil {
		t.Fatal("ctrl+s should close the editor and emit a message")
	}
	saved, ok := cmd().(SavedMsg)
	if !ok || saved.Content != "old!" {
		t.Errorf("saved = %#v", cmd())
	}

	m.StartEdit()
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Editing() {
		t.Error("esc should close the editor")
	}
	if _, ok := cmd().(CancelMsg); !ok {
		t.Error("esc should emit CancelMsg")
	}
	if m.Content() != "old" {
		t.Errorf("content changed on cancel: %q", m.Content())
	}
}

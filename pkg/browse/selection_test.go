package browse

import "testing"

func TestToggle(t *testing.T) {
	sel := NewSelection()

	if !sel.Toggle(file("f1", "a.txt")) {
		t.Error("first toggle should select")
	}
	if !sel.Contains("f1") {
		t.Error("f1 should be selected")
	}
	if sel.Toggle(file("f1", "a.txt")) {
		t.Error("second toggle should deselect")
	}
	if sel.Count() != 0 {
		t.Errorf("Count() = %d, want 0", sel.Count())
	}
}

func TestToggleNonSelectable(t *testing.T) {
	sel := NewSelection()
	if sel.Toggle(folder("d1", "dir")) {
		t.Error("folders must not be selectable")
	}
	if sel.Count() != 0 {
		t.Errorf("Count() = %d, want 0", sel.Count())
	}
}

func TestIDsPreserveOrder(t *testing.T) {
	sel := NewSelection()
	sel.Toggle(file("c", "c"))
	sel.Toggle(file("a", "a"))
	sel.Toggle(file("b", "b"))
	sel.Toggle(file("a", "a")) // deselect

	got := sel.IDs()
	want := []string{"c", "b"}
	if len(got) != len(want) {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClear(t *testing.T) {
	sel := NewSelection()
	sel.Toggle(file("a", "a"))
	sel.Toggle(file("b", "b"))
	sel.Clear()

	if sel.Count() != 0 || len(sel.IDs()) != 0 {
		t.Error("Clear should empty the selection")
	}
	if !sel.Toggle(file("a", "a")) {
		t.Error("selection should be usable after Clear")
	}
}

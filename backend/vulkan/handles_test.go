package vulkan

import "testing"

func TestTable(t *testing.T) {
	tab := newTable[string]()

	a := tab.put("a")
	b := tab.put("b")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("handles = %d, %d; want distinct non-zero", a, b)
	}
	if got, ok := tab.get(a); !ok || got != "a" {
		t.Errorf("get(%d) = %q, %v; want \"a\", true", a, got, ok)
	}
	if got := tab.lookup(0); got != "" {
		t.Errorf("lookup(0) = %q; want zero value", got)
	}

	if got, ok := tab.take(a); !ok || got != "a" {
		t.Errorf("take(%d) = %q, %v", a, got, ok)
	}
	if _, ok := tab.take(a); ok {
		t.Error("second take succeeded")
	}
	if tab.len() != 1 {
		t.Errorf("len = %d; want 1", tab.len())
	}

	// Handles are never reused.
	if c := tab.put("c"); c == a || c == b {
		t.Errorf("put reused handle %d", c)
	}
}

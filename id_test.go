package mongos

import "testing"

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if !IsValidID(id) {
			t.Fatalf("NewID() = %q is not a valid UUID", id)
		}
		if seen[id] {
			t.Fatalf("NewID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestIsValidID(t *testing.T) {
	if IsValidID("not-a-uuid") {
		t.Error("IsValidID accepted garbage")
	}
	if IsValidID("") {
		t.Error("IsValidID accepted an empty string")
	}
}

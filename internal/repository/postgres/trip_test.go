package postgres

import (
	"testing"
)

func TestTextArray_NilSliceStoresEmptyArray(t *testing.T) {
	// A freshly created trip has nil offer/rejection slices. Those must
	// land as '{}' rather than SQL NULL: a NULL rejected_driver_ids
	// turns the accept predicate NOT ($2 = ANY(...)) into NULL, which
	// matches no row and makes every offer unacceptable.
	v, err := textArray(nil).Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v == nil {
		t.Fatal("nil slice must not become SQL NULL")
	}
	if s, ok := v.(string); !ok || s != "{}" {
		t.Errorf("expected empty array literal {}, got %#v", v)
	}
}

func TestTextArray_KeepsElements(t *testing.T) {
	v, err := textArray([]string{"driver-a", "driver-b"}).Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, ok := v.(string); !ok || s != `{"driver-a","driver-b"}` {
		t.Errorf("unexpected array literal: %#v", v)
	}
}

package discovery

import "testing"

func TestExpandRangesInclusiveCount(t *testing.T) {
	items := ExpandRanges([]Range{{Start: "10.0.0.1", End: "10.0.0.5", Entity: "site-a"}})
	if len(items) != 5 {
		t.Fatalf("expected 5 addresses, got %d", len(items))
	}
	want := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}
	for i, w := range want {
		if items[i].IP != w {
			t.Errorf("index %d: got %s, want %s", i, items[i].IP, w)
		}
		if items[i].Entity != "site-a" {
			t.Errorf("index %d: entity not propagated, got %s", i, items[i].Entity)
		}
	}
}

func TestExpandRangesCarriesAcrossOctets(t *testing.T) {
	items := ExpandRanges([]Range{{Start: "10.0.0.254", End: "10.0.1.1", Entity: "e"}})
	if len(items) != 4 {
		t.Fatalf("expected 4 addresses, got %d", len(items))
	}
	want := []string{"10.0.0.254", "10.0.0.255", "10.0.1.0", "10.0.1.1"}
	for i, w := range want {
		if items[i].IP != w {
			t.Errorf("index %d: got %s, want %s", i, items[i].IP, w)
		}
	}
}

func TestExpandRangesSkipsMissingEndpoints(t *testing.T) {
	items := ExpandRanges([]Range{{Start: "", End: "10.0.0.5"}, {Start: "10.0.0.1", End: ""}})
	if len(items) != 0 {
		t.Fatalf("expected no addresses, got %d", len(items))
	}
}

func TestExpandRangesSkipsReversedRange(t *testing.T) {
	items := ExpandRanges([]Range{{Start: "10.0.0.5", End: "10.0.0.1"}})
	if len(items) != 0 {
		t.Fatalf("expected no addresses for start > end, got %d", len(items))
	}
}

func TestExpandRangesEmptyInput(t *testing.T) {
	items := ExpandRanges(nil)
	if len(items) != 0 {
		t.Fatalf("expected empty sequence, got %d", len(items))
	}
}

func TestExpandRangesDoesNotDedup(t *testing.T) {
	items := ExpandRanges([]Range{
		{Start: "10.0.0.1", End: "10.0.0.2", Entity: "a"},
		{Start: "10.0.0.1", End: "10.0.0.2", Entity: "b"},
	})
	if len(items) != 4 {
		t.Fatalf("expected 4 addresses (no dedup), got %d", len(items))
	}
}

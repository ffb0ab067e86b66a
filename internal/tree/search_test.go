package tree

import (
	"reflect"
	"testing"
)

func searchTree(t *testing.T) *Tree {
	t.Helper()
	tr := New()
	err := tr.Load([]Node{
		{ID: 1, Name: "Billing", OrderIndex: 10},
		{ID: 2, Name: "Invoices", ParentID: pid(1), OrderIndex: 10},
		{ID: 3, Name: "Refunds", ParentID: pid(1), OrderIndex: 20},
		{ID: 4, Name: "Inventory", OrderIndex: 20},
		{ID: 5, Name: "Intake", ParentID: pid(4), OrderIndex: 10},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return tr
}

func TestSearch_MatchesInTraversalOrderAndExpandsAncestors(t *testing.T) {
	tr := searchTree(t)

	s := tr.Search("in")
	// Traversal order: Billing, Invoices, Refunds, Inventory, Intake.
	if got, want := s.Matches, []int64{1, 2, 4, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected matches %v, got %v", want, got)
	}
	if s.Cursor() != 0 {
		t.Fatalf("expected cursor on first match, got %d", s.Cursor())
	}
	// "Invoices" and "Intake" are nested, so both parents must be opened.
	if !tr.IsExpanded(1) || !tr.IsExpanded(4) {
		t.Fatalf("expected ancestors of all matches to be expanded")
	}
	if sel, ok := tr.Selected(); !ok || sel != 1 {
		t.Fatalf("expected first match selected, got %v ok=%v", sel, ok)
	}
}

func TestSearch_AncestorExpansionScenario(t *testing.T) {
	tr := loadBilling(t)
	s := tr.Search("oice")
	if got, want := s.Matches, []int64{2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got, want := tr.AncestorChain(2), []int64{1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected ancestor chain %v, got %v", want, got)
	}
	if !tr.IsExpanded(1) {
		t.Fatalf(`expected "Billing" to be expanded after searching "oice"`)
	}
}

func TestSearch_EmptyQueryClearsMatchesButKeepsExpansions(t *testing.T) {
	tr := searchTree(t)
	tr.Search("intake")
	if !tr.IsExpanded(4) {
		t.Fatalf("setup: expected Inventory expanded")
	}

	s := tr.Search("")
	if s.Len() != 0 || s.Cursor() != -1 {
		t.Fatalf("expected empty match set with cursor -1, got len=%d cursor=%d", s.Len(), s.Cursor())
	}
	// Clearing search must not collapse branches the search opened.
	if !tr.IsExpanded(4) {
		t.Fatalf("expected forced expansion to survive a cleared search")
	}
}

func TestSearch_CyclicNavigation(t *testing.T) {
	tr := searchTree(t)
	s := tr.Search("in")
	n := s.Len()
	if n != 4 {
		t.Fatalf("setup: expected 4 matches, got %d", n)
	}

	// N forward steps return to the original match.
	first, _ := s.Current()
	for i := 0; i < n; i++ {
		s.Next(tr)
	}
	cur, ok := s.Current()
	if !ok || cur != first {
		t.Fatalf("expected cursor back on %d after %d Next calls, got %d", first, n, cur)
	}

	// Prev from match 0 wraps to the last match.
	id, ok := s.Prev(tr)
	if !ok || id != s.Matches[n-1] {
		t.Fatalf("expected Prev to wrap to %d, got %d", s.Matches[n-1], id)
	}
	if sel, _ := tr.Selected(); sel != id {
		t.Fatalf("expected selection to follow navigation, got %d", sel)
	}
}

func TestSearch_NavigationReExpandsCollapsedBranch(t *testing.T) {
	tr := searchTree(t)
	s := tr.Search("intake")
	if s.Len() != 1 {
		t.Fatalf("setup: expected 1 match, got %d", s.Len())
	}

	// User collapses the branch after the search ran.
	tr.SetExpanded(4, false)

	s.Next(tr)
	if !tr.IsExpanded(4) {
		t.Fatalf("expected navigation to re-open the collapsed ancestor")
	}
}

func TestSearch_NoMatches(t *testing.T) {
	tr := searchTree(t)
	s := tr.Search("zzz")
	if s.Len() != 0 || s.Cursor() != -1 {
		t.Fatalf("expected no matches, got len=%d cursor=%d", s.Len(), s.Cursor())
	}
	if _, ok := s.Next(tr); ok {
		t.Fatalf("Next with no matches must be a no-op")
	}
	if _, ok := s.Prev(tr); ok {
		t.Fatalf("Prev with no matches must be a no-op")
	}
}

func TestHighlightSegments_SplitsFirstMatchOnly(t *testing.T) {
	got := HighlightSegments("Invoices pending invoices", "inv")
	want := []Segment{
		{Text: "Inv", Match: true},
		{Text: "oices pending invoices"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestHighlightSegments_CaseInsensitiveMidLabel(t *testing.T) {
	got := HighlightSegments("Module Overview", "OVER")
	want := []Segment{
		{Text: "Module "},
		{Text: "Over", Match: true},
		{Text: "view"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestHighlightSegments_LiteralMetacharacters(t *testing.T) {
	// A query with regex metacharacters must neither panic nor match as a pattern.
	got := HighlightSegments("alpha a(b beta", "a(b")
	want := []Segment{
		{Text: "alpha "},
		{Text: "a(b", Match: true},
		{Text: " beta"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// ".*" is a literal here, not a wildcard.
	if segs := HighlightSegments("anything", ".*"); len(segs) != 1 || segs[0].Match {
		t.Fatalf(`expected ".*" to match nothing literally, got %v`, segs)
	}
}

func TestHighlightSegments_NoMatchAndEmptyQuery(t *testing.T) {
	if got := HighlightSegments("label", "zzz"); len(got) != 1 || got[0].Match {
		t.Fatalf("expected single unmatched segment, got %v", got)
	}
	if got := HighlightSegments("label", ""); len(got) != 1 || got[0].Match {
		t.Fatalf("expected single unmatched segment for empty query, got %v", got)
	}
	if got := HighlightSegments("", "x"); got != nil {
		t.Fatalf("expected nil for empty label, got %v", got)
	}
}

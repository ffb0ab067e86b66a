package tree

import (
	"regexp"
	"strings"
)

// SearchState is the derived match set for one query: matching node ids in
// traversal order plus a cyclic cursor. It is never persisted.
type SearchState struct {
	Query   string
	Matches []int64
	cursor  int
}

// Search scans every node's name for the query as a case-insensitive literal
// substring, in depth-first traversal order (the next/previous contract).
//
// For every match the ancestor chain is force-opened so the match is visible;
// search only ever expands, it never collapses branches outside a match's
// ancestry. An empty query clears the match set and deliberately leaves
// previously forced-open branches expanded.
//
// When there is at least one match, the first match is selected and revealed.
func (t *Tree) Search(query string) *SearchState {
	s := &SearchState{Query: query, cursor: -1}
	if strings.TrimSpace(query) == "" {
		return s
	}

	q := strings.ToLower(query)
	t.Walk(func(n *Node, _ int) {
		if strings.Contains(strings.ToLower(n.Name), q) {
			s.Matches = append(s.Matches, n.ID)
		}
	})

	for _, id := range s.Matches {
		t.ExpandAncestors(id)
	}
	if len(s.Matches) > 0 {
		s.cursor = 0
		t.reveal(s.Matches[0])
	}
	return s
}

// reveal selects a match and re-opens its ancestor chain. Re-expanding on
// every navigation covers branches the user collapsed after the search ran.
func (t *Tree) reveal(id int64) {
	t.ExpandAncestors(id)
	t.Select(id)
}

// Len returns the number of matches.
func (s *SearchState) Len() int { return len(s.Matches) }

// Cursor returns the current match index, or -1 when there are no matches.
func (s *SearchState) Cursor() int { return s.cursor }

// Current returns the focused match, if any.
func (s *SearchState) Current() (int64, bool) {
	if s.cursor < 0 || s.cursor >= len(s.Matches) {
		return 0, false
	}
	return s.Matches[s.cursor], true
}

// Next advances the cursor cyclically and reveals the new current match.
// With no matches it is a no-op.
func (s *SearchState) Next(t *Tree) (int64, bool) {
	if len(s.Matches) == 0 {
		return 0, false
	}
	s.cursor = (s.cursor + 1) % len(s.Matches)
	id := s.Matches[s.cursor]
	t.reveal(id)
	return id, true
}

// Prev moves the cursor back cyclically and reveals the new current match.
func (s *SearchState) Prev(t *Tree) (int64, bool) {
	if len(s.Matches) == 0 {
		return 0, false
	}
	s.cursor = (s.cursor - 1 + len(s.Matches)) % len(s.Matches)
	id := s.Matches[s.cursor]
	t.reveal(id)
	return id, true
}

// Segment is one run of a label split for match highlighting.
type Segment struct {
	Text  string
	Match bool
}

// HighlightSegments splits a label into matched/unmatched runs for the first
// case-insensitive occurrence of query. The query is a literal substring, not
// a pattern: metacharacters are quoted before the regexp is built, so inputs
// like "a(b" cannot crash the split or match unintended text.
func HighlightSegments(label, query string) []Segment {
	if label == "" {
		return nil
	}
	if strings.TrimSpace(query) == "" {
		return []Segment{{Text: label}}
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(query))
	if err != nil {
		// QuoteMeta makes this unreachable; fall back to no highlight.
		return []Segment{{Text: label}}
	}
	loc := re.FindStringIndex(label)
	if loc == nil {
		return []Segment{{Text: label}}
	}
	var segs []Segment
	if loc[0] > 0 {
		segs = append(segs, Segment{Text: label[:loc[0]]})
	}
	segs = append(segs, Segment{Text: label[loc[0]:loc[1]], Match: true})
	if loc[1] < len(label) {
		segs = append(segs, Segment{Text: label[loc[1]:]})
	}
	return segs
}

package issuance

// Selection tracks which catalog items are chosen for an issuance.
//
// The presentation layer keeps two views of this state: a per-row
// checked flag and the list widget's native multi-select cursor. Either
// view can originate a change, so both are backed by the single chosen
// set held here; ChosenCodes and Cursor can never disagree.
type Selection struct {
	order  []int
	known  map[int]struct{}
	chosen map[int]struct{}
}

// NewSelection creates a Selection over the given catalog codes.
// codes defines catalog order; nothing is chosen initially.
func NewSelection(codes []int) *Selection {
	s := &Selection{
		order:  make([]int, len(codes)),
		known:  make(map[int]struct{}, len(codes)),
		chosen: make(map[int]struct{}),
	}
	copy(s.order, codes)
	for _, c := range codes {
		s.known[c] = struct{}{}
	}
	return s
}

// Toggle flips the chosen state of one item. Unknown codes are ignored:
// a click can race with a data reload and must never fail.
func (s *Selection) Toggle(code int) {
	if _, ok := s.known[code]; !ok {
		return
	}
	if _, ok := s.chosen[code]; ok {
		delete(s.chosen, code)
	} else {
		s.chosen[code] = struct{}{}
	}
}

// SetCursor replaces the chosen set with the given codes, as after a
// drag-select. This is the bulk reconciliation point: items outside
// codes become unchosen, items inside become chosen, in one call.
// Unknown codes are dropped.
func (s *Selection) SetCursor(codes []int) {
	next := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		if _, ok := s.known[c]; ok {
			next[c] = struct{}{}
		}
	}
	s.chosen = next
}

// ClearAll unchooses every item.
func (s *Selection) ClearAll() {
	s.chosen = make(map[int]struct{})
}

// ChosenCodes returns the chosen item codes in catalog order.
func (s *Selection) ChosenCodes() []int {
	out := make([]int, 0, len(s.chosen))
	for _, c := range s.order {
		if _, ok := s.chosen[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Cursor returns the multi-select cursor contents. By construction it
// is always identical to ChosenCodes.
func (s *Selection) Cursor() []int {
	return s.ChosenCodes()
}

// IsChosen reports whether one item is chosen.
func (s *Selection) IsChosen(code int) bool {
	_, ok := s.chosen[code]
	return ok
}

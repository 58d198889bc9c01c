package issuance

import (
	"errors"
	"fmt"
	"strings"

	"github.com/imah-safety/epi-api/internal/catalog"
	"github.com/shopspring/decimal"
)

// Errors returned by the line-item editor.
var (
	ErrEmptySelection   = errors.New("no items selected")
	ErrInvalidQuantity  = errors.New("quantity must be a non-negative integer")
	ErrNoItemsToDeliver = errors.New("no items with quantity greater than zero")
	ErrUnknownLine      = errors.New("item is not part of the draft")
)

// Line is one editable draft entry. Description is copied from the
// catalog when the draft opens and never changes afterwards.
type Line struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// CommittedLine is a finalized draft line with quantity > 0.
type CommittedLine struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// ItemSource resolves catalog items for draft creation.
// Satisfied by *catalog.ItemStore; narrow interface for testability.
type ItemSource interface {
	Get(code int) (catalog.Item, bool)
}

// Draft is a snapshot of the chosen items with editable quantities.
// Later selection changes do not affect an open draft.
type Draft struct {
	lines  []Line
	byCode map[int]int
}

// OpenDraft builds a draft from the chosen codes, one line per code in
// the order given (catalog order when the codes come from a Selection),
// each with quantity 1. Codes no longer present in the catalog are
// skipped.
func OpenDraft(chosen []int, items ItemSource) (*Draft, error) {
	if len(chosen) == 0 {
		return nil, ErrEmptySelection
	}

	d := &Draft{byCode: make(map[int]int, len(chosen))}
	for _, code := range chosen {
		it, ok := items.Get(code)
		if !ok {
			continue
		}
		d.byCode[it.Code] = len(d.lines)
		d.lines = append(d.lines, Line{Code: it.Code, Description: it.Description, Quantity: 1})
	}
	return d, nil
}

// Lines returns a copy of the draft lines in draft order.
func (d *Draft) Lines() []Line {
	out := make([]Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// SetQuantity parses raw as a delivered quantity and stores it on the
// line for code. An empty string means "0". Negative, fractional and
// non-numeric input is rejected with ErrInvalidQuantity. Returns the
// normalized quantity.
func (d *Draft) SetQuantity(code int, raw string) (int, error) {
	i, ok := d.byCode[code]
	if !ok {
		return 0, ErrUnknownLine
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "0"
	}
	q, err := parseQuantity(raw)
	if err != nil {
		return 0, err
	}

	d.lines[i].Quantity = q
	return q, nil
}

// Finalize drops zero-quantity lines and returns the remaining lines
// for commit, preserving draft order.
func (d *Draft) Finalize() ([]CommittedLine, error) {
	var out []CommittedLine
	for _, l := range d.lines {
		if l.Quantity == 0 {
			continue
		}
		out = append(out, CommittedLine(l))
	}
	if len(out) == 0 {
		return nil, ErrNoItemsToDeliver
	}
	return out, nil
}

// parseQuantity validates quantity text through decimal so that
// fractional input like "1.5" is rejected rather than truncated.
func parseQuantity(raw string) (int, error) {
	dec, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}
	if dec.IsNegative() || !dec.IsInteger() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}
	return int(dec.IntPart()), nil
}

package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imah-safety/epi-api/internal/adjustment"
	"github.com/imah-safety/epi-api/internal/catalog"
	"github.com/imah-safety/epi-api/internal/issuance"
)

// Adjuster issues one stock decrement to the external inventory system.
// Satisfied by *adjustment.Client; narrow interface for testability.
type Adjuster interface {
	Adjust(ctx context.Context, itemCode, quantity int, date time.Time, note string) error
}

// Generator renders the receipt document for a committed issuance.
// Satisfied by *receipt.Assembler.
type Generator interface {
	Generate(employee catalog.Employee, lines []issuance.CommittedLine, dateText string) ([]byte, error)
}

// Outcome is the per-item result of one adjustment attempt.
type Outcome struct {
	Code      int    `json:"code"`
	Succeeded bool   `json:"succeeded"`
	Detail    string `json:"detail,omitempty"`
}

// Committer executes the fulfillment step of an issuance: a best-effort
// batch of stock adjustments followed, unconditionally, by receipt
// generation. Adjustment failures are collected, never raised; only a
// document failure fails the commit.
type Committer struct {
	adjuster      Adjuster
	generator     Generator
	adjustEnabled bool
}

// NewCommitter creates a Committer. When adjustEnabled is false no
// external calls are made and the outcome list stays empty.
func NewCommitter(adjuster Adjuster, generator Generator, adjustEnabled bool) *Committer {
	return &Committer{
		adjuster:      adjuster,
		generator:     generator,
		adjustEnabled: adjustEnabled,
	}
}

// Commit applies one adjustment per committed line, sequentially and
// with no early exit, then renders the receipt from the full line list.
// It returns the outcome list together with the document bytes, or a
// document error. The caller receives outcomes even when rendering
// fails.
func (c *Committer) Commit(ctx context.Context, employee catalog.Employee, lines []issuance.CommittedLine, today time.Time) ([]Outcome, []byte, error) {
	dateText := today.Format(adjustment.DateLayout)

	var outcomes []Outcome
	if c.adjustEnabled {
		note := auditNote(employee.Name, dateText)
		outcomes = make([]Outcome, 0, len(lines))
		for _, l := range lines {
			o := Outcome{Code: l.Code, Succeeded: true}
			if err := c.adjuster.Adjust(ctx, l.Code, l.Quantity, today, note); err != nil {
				o.Succeeded = false
				o.Detail = err.Error()
			}
			outcomes = append(outcomes, o)
		}
	}

	doc, err := c.generator.Generate(employee, lines, dateText)
	if err != nil {
		return outcomes, nil, err
	}
	return outcomes, doc, nil
}

// auditNote is the movement note sent with every adjustment, naming the
// receiving employee and the receipt date.
func auditNote(employeeName, dateText string) string {
	return fmt.Sprintf(
		"DELIVERED TO EMPLOYEE %s: THE PPE ITEMS LISTED ON THE RECEIPT GENERATED ON %s.",
		strings.ToUpper(employeeName), dateText,
	)
}

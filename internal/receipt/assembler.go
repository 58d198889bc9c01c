package receipt

import (
	"errors"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"

	"github.com/imah-safety/epi-api/internal/catalog"
	"github.com/imah-safety/epi-api/internal/issuance"
)

// Placeholder tokens replaced in the receipt template. Replacement is
// plain substring substitution, every occurrence; anything else in the
// template passes through unchanged.
const (
	TokenEmployeeName = "{{EMPLOYEE_NAME}}"
	TokenCompanyName  = "{{COMPANY_NAME}}"
	TokenDeliveryDate = "{{DELIVERY_DATE}}"
	TokenItemsTable   = "{{ITEMS_TABLE}}"
)

// ErrRender marks any failure in template loading or rendering. A
// render failure is fatal to the commit, unlike adjustment failures.
var ErrRender = errors.New("receipt render failed")

// Renderer turns final markup into the receipt artifact bytes. The
// fixed-layout renderer is an external collaborator; HTMLRenderer is
// the default and emits the markup unchanged.
type Renderer interface {
	Render(markup string) ([]byte, error)
}

// HTMLRenderer passes the substituted markup through as the artifact.
type HTMLRenderer struct{}

func (HTMLRenderer) Render(markup string) ([]byte, error) {
	return []byte(markup), nil
}

// Assembler renders delivery receipts from a template file.
//
// Values are inserted into the markup verbatim: employee names and item
// descriptions are not escaped, matching the template's historical
// output byte for byte. Deployments that accept untrusted descriptions
// can set EscapeValues, which changes the output.
type Assembler struct {
	TemplatePath string
	Renderer     Renderer
	EscapeValues bool
}

// Generate loads the template and renders the receipt for one
// committed issuance. All errors wrap ErrRender.
func (a *Assembler) Generate(employee catalog.Employee, lines []issuance.CommittedLine, dateText string) ([]byte, error) {
	tpl, err := os.ReadFile(a.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read template: %v", ErrRender, err)
	}
	return a.Render(string(tpl), employee, lines, dateText)
}

// Render substitutes the four placeholder tokens in templateText and
// feeds the result to the renderer. Deterministic: identical inputs
// produce identical bytes.
func (a *Assembler) Render(templateText string, employee catalog.Employee, lines []issuance.CommittedLine, dateText string) ([]byte, error) {
	markup := templateText
	markup = strings.ReplaceAll(markup, TokenEmployeeName, a.value(employee.Name))
	markup = strings.ReplaceAll(markup, TokenCompanyName, a.value(employee.Company))
	markup = strings.ReplaceAll(markup, TokenDeliveryDate, dateText)
	markup = strings.ReplaceAll(markup, TokenItemsTable, a.itemsTable(lines))

	renderer := a.Renderer
	if renderer == nil {
		renderer = HTMLRenderer{}
	}
	out, err := renderer.Render(markup)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return out, nil
}

// itemsTable builds the item-table fragment, one row per committed
// line in the order supplied.
func (a *Assembler) itemsTable(lines []issuance.CommittedLine) string {
	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="8" cellspacing="0" style="width:100%; border-collapse: collapse; margin-top: 20px;">
<thead>
<tr style="background-color: #f0f0f0;">
<th style="text-align: center;">Code</th>
<th style="text-align: left;">PPE Description</th>
<th style="text-align: center;">Quantity</th>
</tr>
</thead>
<tbody>
`)
	for _, l := range lines {
		b.WriteString(`<tr>
<td style="text-align: center;">`)
		b.WriteString(strconv.Itoa(l.Code))
		b.WriteString(`</td>
<td>`)
		b.WriteString(a.value(l.Description))
		b.WriteString(`</td>
<td style="text-align: center;">`)
		b.WriteString(strconv.Itoa(l.Quantity))
		b.WriteString(`</td>
</tr>
`)
	}
	b.WriteString("</tbody>\n</table>")
	return b.String()
}

func (a *Assembler) value(s string) string {
	if a.EscapeValues {
		return html.EscapeString(s)
	}
	return s
}

package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Required column headers. Matching is case-insensitive.
const (
	colCode        = "code"
	colDescription = "description"
	colName        = "name"
	colCompany     = "company"
	colTaxID       = "tax_id"
)

// LoadItems reads the PPE catalog from a CSV or XLSX file.
// Rows missing code or description are dropped. A non-numeric code is a
// data error and fails the whole load, reported with its row number:
// codes are forwarded to the stock-adjustment API and must never be
// silently coerced.
func LoadItems(path string) ([]Item, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	return itemsFromRows(rows)
}

// LoadEmployees reads the employee table from a CSV or XLSX file.
// Rows missing name, company or tax ID are dropped.
func LoadEmployees(path string) ([]Employee, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	return employeesFromRows(rows)
}

// readRows returns all rows of the file, header included, dispatching
// on the file extension. Anything that is not .xlsx is treated as CSV.
func readRows(path string) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSXRows(path)
	}
	return readCSVRows(path)
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows; missing fields drop the row later
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("read %s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func itemsFromRows(rows [][]string) ([]Item, error) {
	cols, err := headerIndex(rows, colCode, colDescription)
	if err != nil {
		return nil, err
	}

	var items []Item
	for i, row := range rows[1:] {
		code := cell(row, cols[colCode])
		desc := cell(row, cols[colDescription])
		if code == "" || desc == "" {
			continue
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			// Row numbers are 1-based and include the header row.
			return nil, fmt.Errorf("row %d: item code %q is not numeric", i+2, code)
		}
		items = append(items, Item{Code: n, Description: desc})
	}
	return items, nil
}

func employeesFromRows(rows [][]string) ([]Employee, error) {
	cols, err := headerIndex(rows, colName, colCompany, colTaxID)
	if err != nil {
		return nil, err
	}

	var employees []Employee
	for _, row := range rows[1:] {
		e := Employee{
			Name:    cell(row, cols[colName]),
			Company: cell(row, cols[colCompany]),
			TaxID:   cell(row, cols[colTaxID]),
		}
		if e.Name == "" || e.Company == "" || e.TaxID == "" {
			continue
		}
		employees = append(employees, e)
	}
	return employees, nil
}

// headerIndex maps each required column name to its position in the
// header row.
func headerIndex(rows [][]string, required ...string) (map[string]int, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	cols := make(map[string]int, len(required))
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

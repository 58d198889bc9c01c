package catalog

import (
	"sort"
	"strings"
)

// Item is a PPE catalog entry. Immutable after load; the code is the
// external identifier used in stock-adjustment calls.
type Item struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// Employee is a person PPE can be issued to. Immutable after load.
type Employee struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	TaxID   string `json:"tax_id"`
}

// ItemStore is a read-only in-memory view of the PPE catalog.
// A failed load is kept alongside whatever rows did load so it can be
// reported inline with the list instead of taking the service down.
type ItemStore struct {
	items   []Item
	byCode  map[int]int
	loadErr error
}

// NewItemStore builds a store over the loaded items. loadErr, if non-nil,
// is surfaced through LoadError.
func NewItemStore(items []Item, loadErr error) *ItemStore {
	s := &ItemStore{
		items:   items,
		byCode:  make(map[int]int, len(items)),
		loadErr: loadErr,
	}
	for i, it := range items {
		s.byCode[it.Code] = i
	}
	return s
}

// Items returns all catalog items in load order.
func (s *ItemStore) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item for a code.
func (s *ItemStore) Get(code int) (Item, bool) {
	i, ok := s.byCode[code]
	if !ok {
		return Item{}, false
	}
	return s.items[i], true
}

// Codes returns all item codes in catalog order.
func (s *ItemStore) Codes() []int {
	codes := make([]int, len(s.items))
	for i, it := range s.items {
		codes[i] = it.Code
	}
	return codes
}

// LoadError reports the error from the load that built this store, if any.
func (s *ItemStore) LoadError() error {
	return s.loadErr
}

// EmployeeStore is a read-only in-memory view of the employee table,
// sorted case-insensitively by name for display.
type EmployeeStore struct {
	employees []Employee
	byTaxID   map[string]int
	loadErr   error
}

// NewEmployeeStore builds a store over the loaded employees.
func NewEmployeeStore(employees []Employee, loadErr error) *EmployeeStore {
	sorted := make([]Employee, len(employees))
	copy(sorted, employees)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToUpper(sorted[i].Name) < strings.ToUpper(sorted[j].Name)
	})

	s := &EmployeeStore{
		employees: sorted,
		byTaxID:   make(map[string]int, len(sorted)),
		loadErr:   loadErr,
	}
	for i, e := range sorted {
		s.byTaxID[e.TaxID] = i
	}
	return s
}

// Employees returns all employees in display order.
func (s *EmployeeStore) Employees() []Employee {
	out := make([]Employee, len(s.employees))
	copy(out, s.employees)
	return out
}

// GetByTaxID returns the employee with the given tax ID.
func (s *EmployeeStore) GetByTaxID(taxID string) (Employee, bool) {
	i, ok := s.byTaxID[taxID]
	if !ok {
		return Employee{}, false
	}
	return s.employees[i], true
}

// LoadError reports the error from the load that built this store, if any.
func (s *EmployeeStore) LoadError() error {
	return s.loadErr
}

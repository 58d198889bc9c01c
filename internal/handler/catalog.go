package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/imah-safety/epi-api/internal/catalog"
)

// ItemLister defines the catalog store methods needed by the items
// endpoint. Satisfied by *catalog.ItemStore.
type ItemLister interface {
	Items() []catalog.Item
	LoadError() error
}

// EmployeeLister defines the employee store methods needed by the
// employees endpoint. Satisfied by *catalog.EmployeeStore.
type EmployeeLister interface {
	Employees() []catalog.Employee
	LoadError() error
}

// CatalogHandler serves the read-only catalog and employee lists.
type CatalogHandler struct {
	items     ItemLister
	employees EmployeeLister
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(items ItemLister, employees EmployeeLister) *CatalogHandler {
	return &CatalogHandler{items: items, employees: employees}
}

// RegisterRoutes registers the list endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/items", h.ListItems)
	r.Get("/employees", h.ListEmployees)
}

// --- Response types ---

type itemListResponse struct {
	Items []catalog.Item `json:"items"`
	// LoadError reports a data-load failure inline with the list; the
	// rest of the application keeps working.
	LoadError string `json:"load_error,omitempty"`
}

type employeeListResponse struct {
	Employees []catalog.Employee `json:"employees"`
	LoadError string             `json:"load_error,omitempty"`
}

// ListItems returns the PPE catalog in load order.
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	resp := itemListResponse{Items: h.items.Items()}
	if resp.Items == nil {
		resp.Items = []catalog.Item{}
	}
	if err := h.items.LoadError(); err != nil {
		resp.LoadError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEmployees returns the employee table sorted by name.
func (h *CatalogHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	resp := employeeListResponse{Employees: h.employees.Employees()}
	if resp.Employees == nil {
		resp.Employees = []catalog.Employee{}
	}
	if err := h.employees.LoadError(); err != nil {
		resp.LoadError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

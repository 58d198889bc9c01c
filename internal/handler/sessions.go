package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/imah-safety/epi-api/internal/catalog"
	"github.com/imah-safety/epi-api/internal/fulfillment"
	"github.com/imah-safety/epi-api/internal/issuance"
	"github.com/imah-safety/epi-api/internal/ws"
)

// EmployeeSource resolves the employee an issuance session is opened
// for. Satisfied by *catalog.EmployeeStore.
type EmployeeSource interface {
	GetByTaxID(taxID string) (catalog.Employee, bool)
}

// ItemSource provides catalog codes and lookups for sessions and
// drafts. Satisfied by *catalog.ItemStore.
type ItemSource interface {
	Get(code int) (catalog.Item, bool)
	Codes() []int
}

// Committer runs the fulfillment step of a commit. Satisfied by
// *fulfillment.Committer.
type Committer interface {
	Commit(ctx context.Context, employee catalog.Employee, lines []issuance.CommittedLine, today time.Time) ([]fulfillment.Outcome, []byte, error)
}

// ReceiptWriter persists and opens the rendered receipt. Satisfied by
// *receipt.Writer.
type ReceiptWriter interface {
	Save(artifact []byte) (string, error)
	Open(path string) error
}

// Broadcaster pushes issuance events to connected UI clients.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToSession(sessionID uuid.UUID, event ws.Event)
}

// SessionHandler drives the issuance workflow: selection, draft and
// commit, all scoped to one session.
type SessionHandler struct {
	sessions  *issuance.Manager
	employees EmployeeSource
	items     ItemSource
	committer Committer
	receipts  ReceiptWriter
	hub       Broadcaster
	now       func() time.Time
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *issuance.Manager, employees EmployeeSource, items ItemSource, committer Committer, receipts ReceiptWriter, hub Broadcaster) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		employees: employees,
		items:     items,
		committer: committer,
		receipts:  receipts,
		hub:       hub,
		now:       time.Now,
	}
}

// RegisterRoutes registers session endpoints on the given Chi router.
// Expected to be mounted at /sessions.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{sid}", func(r chi.Router) {
		r.Get("/selection", h.GetSelection)
		r.Post("/selection/toggle", h.Toggle)
		r.Put("/selection", h.SetCursor)
		r.Delete("/selection", h.ClearSelection)
		r.Post("/draft", h.OpenDraft)
		r.Get("/draft", h.GetDraft)
		r.Put("/draft/{code}", h.SetQuantity)
		r.Delete("/draft", h.CancelDraft)
		r.Post("/commit", h.Commit)
	})
}

// --- Request / Response types ---

type createSessionRequest struct {
	TaxID string `json:"tax_id"`
}

type sessionResponse struct {
	ID       uuid.UUID        `json:"id"`
	Employee catalog.Employee `json:"employee"`
}

type toggleRequest struct {
	Code int `json:"code"`
}

type setCursorRequest struct {
	Codes []int `json:"codes"`
}

type selectionResponse struct {
	Codes []int `json:"codes"`
}

type draftResponse struct {
	Lines []issuance.Line `json:"lines"`
}

type setQuantityRequest struct {
	Quantity string `json:"quantity"`
}

type setQuantityResponse struct {
	Code     int `json:"code"`
	Quantity int `json:"quantity"`
}

type commitResponse struct {
	Outcomes    []fulfillment.Outcome `json:"outcomes"`
	ReceiptPath string                `json:"receipt_path"`
	Opened      bool                  `json:"opened"`
}

// --- Handlers ---

// Create opens an issuance session for one employee.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.TaxID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tax_id is required"})
		return
	}

	employee, ok := h.employees.GetByTaxID(req.TaxID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "employee not found"})
		return
	}

	s := h.sessions.Create(employee, h.items.Codes())
	writeJSON(w, http.StatusCreated, sessionResponse{ID: s.ID, Employee: s.Employee})
}

// GetSelection returns the chosen item codes in catalog order.
func (h *SessionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	codes := s.ChosenCodes()
	if codes == nil {
		codes = []int{}
	}
	writeJSON(w, http.StatusOK, selectionResponse{Codes: codes})
}

// Toggle flips one item's chosen state. Unknown codes are a no-op.
func (h *SessionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s.Toggle(req.Code)
	writeJSON(w, http.StatusOK, selectionResponse{Codes: s.ChosenCodes()})
}

// SetCursor replaces the chosen set, as after a drag-select.
func (h *SessionHandler) SetCursor(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req setCursorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	s.SetCursor(req.Codes)
	writeJSON(w, http.StatusOK, selectionResponse{Codes: s.ChosenCodes()})
}

// ClearSelection unchooses every item.
func (h *SessionHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

// OpenDraft snapshots the selection into an editable draft.
func (h *SessionHandler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	lines, err := s.OpenDraft(h.items)
	if err != nil {
		switch {
		case errors.Is(err, issuance.ErrEmptySelection):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "select at least one item first"})
		case errors.Is(err, issuance.ErrDraftOpen), errors.Is(err, issuance.ErrCommitInFlight):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to open draft"})
		}
		return
	}
	writeJSON(w, http.StatusCreated, draftResponse{Lines: lines})
}

// GetDraft returns the open draft's lines.
func (h *SessionHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	lines, err := s.DraftLines()
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Lines: lines})
}

// SetQuantity updates one draft line from raw quantity text.
func (h *SessionHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	code, err := parseCode(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item code"})
		return
	}
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	quantity, err := s.SetQuantity(code, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, issuance.ErrInvalidQuantity):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, issuance.ErrUnknownLine), errors.Is(err, issuance.ErrNoDraft):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, issuance.ErrCommitInFlight):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set quantity"})
		}
		return
	}
	writeJSON(w, http.StatusOK, setQuantityResponse{Code: code, Quantity: quantity})
}

// CancelDraft discards the open draft with no side effects.
func (h *SessionHandler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.CancelDraft(); err != nil {
		status := http.StatusNotFound
		if errors.Is(err, issuance.ErrCommitInFlight) {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Commit finalizes the draft and runs fulfillment: best-effort stock
// adjustments, then receipt generation. Adjustment failures come back
// in the outcome list; only a document failure fails the request, and
// then the draft is kept so the user can retry.
func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	lines, err := s.BeginCommit()
	if err != nil {
		switch {
		case errors.Is(err, issuance.ErrCommitInFlight), errors.Is(err, issuance.ErrNoDraft):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, issuance.ErrNoItemsToDeliver):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start commit"})
		}
		return
	}

	// The commit path runs best-effort to completion; a client that
	// disconnects mid-batch must not abort the remaining adjustments.
	ctx := context.WithoutCancel(r.Context())

	outcomes, doc, err := h.committer.Commit(ctx, s.Employee, lines, h.now())
	if outcomes == nil {
		outcomes = []fulfillment.Outcome{}
	}
	if err != nil {
		s.EndCommit(false)
		log.Printf("ERROR: receipt generation failed for session %s: %v", s.ID, err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":    err.Error(),
			"outcomes": outcomes,
		})
		return
	}

	path, err := h.receipts.Save(doc)
	if err != nil {
		s.EndCommit(false)
		log.Printf("ERROR: receipt write failed for session %s: %v", s.ID, err)
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":    err.Error(),
			"outcomes": outcomes,
		})
		return
	}
	s.EndCommit(true)

	opened := true
	if err := h.receipts.Open(path); err != nil {
		// Non-fatal: report the saved path instead.
		opened = false
		log.Printf("WARN: could not open receipt %s: %v", path, err)
	}

	h.broadcastCommit(s.ID, outcomes, path)
	writeJSON(w, http.StatusOK, commitResponse{
		Outcomes:    outcomes,
		ReceiptPath: path,
		Opened:      opened,
	})
}

// --- Helpers ---

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*issuance.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session id"})
		return nil, false
	}
	s, ok := h.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) broadcastCommit(sessionID uuid.UUID, outcomes []fulfillment.Outcome, path string) {
	payload, err := json.Marshal(map[string]interface{}{
		"outcomes":     outcomes,
		"receipt_path": path,
	})
	if err != nil {
		log.Printf("ERROR: failed to marshal commit event: %v", err)
		return
	}
	h.hub.BroadcastToSession(sessionID, ws.Event{Type: "commit.completed", Payload: payload})
}

func parseCode(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "code"))
}

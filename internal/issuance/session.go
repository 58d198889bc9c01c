package issuance

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/imah-safety/epi-api/internal/catalog"
)

// Errors returned by session operations.
var (
	ErrNoDraft        = errors.New("no draft is open")
	ErrDraftOpen      = errors.New("a draft is already open")
	ErrCommitInFlight = errors.New("a commit is already executing for this session")
)

// Session holds the state of one issuance flow: the employee receiving
// the PPE, the item selection, and at most one open draft. All access
// goes through its mutex; the committing flag is the modal scope that
// blocks further draft interaction while a commit executes.
type Session struct {
	ID       uuid.UUID
	Employee catalog.Employee

	mu         sync.Mutex
	selection  *Selection
	draft      *Draft
	committing bool
}

// NewSession creates a session for an employee over the given catalog
// codes.
func NewSession(employee catalog.Employee, catalogCodes []int) *Session {
	return &Session{
		ID:        uuid.New(),
		Employee:  employee,
		selection: NewSelection(catalogCodes),
	}
}

// Toggle flips the chosen state of one item.
func (s *Session) Toggle(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Toggle(code)
}

// SetCursor replaces the chosen set, as after a drag-select.
func (s *Session) SetCursor(codes []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SetCursor(codes)
}

// ClearAll unchooses every item.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.ClearAll()
}

// ChosenCodes returns the chosen item codes in catalog order.
func (s *Session) ChosenCodes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.ChosenCodes()
}

// OpenDraft snapshots the current selection into a new draft and
// returns its lines. Only one draft can be open at a time.
func (s *Session) OpenDraft(items ItemSource) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committing {
		return nil, ErrCommitInFlight
	}
	if s.draft != nil {
		return nil, ErrDraftOpen
	}

	d, err := OpenDraft(s.selection.ChosenCodes(), items)
	if err != nil {
		return nil, err
	}
	s.draft = d
	return d.Lines(), nil
}

// DraftLines returns the open draft's lines.
func (s *Session) DraftLines() ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil, ErrNoDraft
	}
	return s.draft.Lines(), nil
}

// SetQuantity updates one draft line from raw quantity text.
func (s *Session) SetQuantity(code int, raw string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committing {
		return 0, ErrCommitInFlight
	}
	if s.draft == nil {
		return 0, ErrNoDraft
	}
	return s.draft.SetQuantity(code, raw)
}

// CancelDraft discards the open draft with no side effects. The
// selection is untouched.
func (s *Session) CancelDraft() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committing {
		return ErrCommitInFlight
	}
	if s.draft == nil {
		return ErrNoDraft
	}
	s.draft = nil
	return nil
}

// BeginCommit finalizes the open draft and marks the session as
// committing, blocking all draft interaction until EndCommit. Fails if
// a commit is already in flight, no draft is open, or every line has
// quantity zero.
func (s *Session) BeginCommit() ([]CommittedLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committing {
		return nil, ErrCommitInFlight
	}
	if s.draft == nil {
		return nil, ErrNoDraft
	}
	lines, err := s.draft.Finalize()
	if err != nil {
		return nil, err
	}
	s.committing = true
	return lines, nil
}

// EndCommit leaves the committing state. On success the draft is
// discarded; on failure it is kept so the user can retry.
func (s *Session) EndCommit(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.committing = false
	if success {
		s.draft = nil
	}
}

// Manager is the registry of live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Create starts a new session and registers it.
func (m *Manager) Create(employee catalog.Employee, catalogCodes []int) *Session {
	s := NewSession(employee, catalogCodes)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a session by ID.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete removes a session from the registry.
func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

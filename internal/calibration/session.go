package calibration

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/slitdrum-mcp/internal/detection"
)

// ErrUnknownSession is returned for a session ID the table does not hold.
var ErrUnknownSession = errors.New("unknown session")

// Session is one detection run and the selection made over its
// candidates.
type Session struct {
	ID            string
	ImagePath     string
	Width         int
	Height        int
	ExpectedCount int
	Candidates    []detection.Candidate
	UsedFallback  bool
	Backend       string
	Selection     Selection
	CreatedAt     time.Time
}

// NewSession starts a session with an empty selection over candidates.
func NewSession(imagePath string, width, height, expectedCount int, outcome *detection.Outcome) *Session {
	return &Session{
		ID:            uuid.New().String(),
		ImagePath:     imagePath,
		Width:         width,
		Height:        height,
		ExpectedCount: expectedCount,
		Candidates:    outcome.Candidates,
		UsedFallback:  outcome.UsedFallback,
		Backend:       outcome.Backend,
		Selection:     NewSelection(len(outcome.Candidates)),
		CreatedAt:     time.Now().UTC(),
	}
}

// Selected returns the selected candidates in selection order.
func (s *Session) Selected() []detection.Candidate {
	order := s.Selection.Order()
	out := make([]detection.Candidate, len(order))
	for i, idx := range order {
		out[i] = s.Candidates[idx]
	}
	return out
}

// SessionTable holds the live sessions of a server. It is safe for
// concurrent use.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionTable creates an empty table.
func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]*Session)}
}

// Add stores s under its ID.
func (t *SessionTable) Add(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.ID] = s
}

// Get returns a copy of the session so callers cannot race on it.
func (t *SessionTable) Get(id string) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return *s, nil
}

// Update applies fn to the session's selection and stores the result.
// The new selection is returned.
func (t *SessionTable) Update(id string, fn func(Selection) Selection) (Selection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return Selection{}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	s.Selection = fn(s.Selection)
	return s.Selection, nil
}

// Remove discards the session. Removing an unknown ID is an error.
func (t *SessionTable) Remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	delete(t.sessions, id)
	return nil
}

// IDs lists the live session IDs, oldest first.
func (t *SessionTable) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

// Len is the number of live sessions.
func (t *SessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

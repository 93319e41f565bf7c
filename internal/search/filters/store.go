package filters

import "sync"

// Store holds one page visit's draft. All mutations go through SetField so
// that cascading updates land in a single step.
type Store struct {
	mu    sync.RWMutex
	draft Draft
}

func NewStore(initial Draft) *Store {
	return &Store{draft: initial}
}

func (s *Store) Draft() Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// SetField applies one field change and returns the resulting draft. On error
// the draft is left untouched.
func (s *Store) SetField(name Field, value string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := SetField(s.draft, name, value)
	if err != nil {
		return s.draft, err
	}
	s.draft = next
	return next, nil
}

// ResetFromCommitted overwrites the whole draft, e.g. after back/forward
// navigation changed the URL.
func (s *Store) ResetFromCommitted(c Committed) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = c.Draft()
	return s.draft
}

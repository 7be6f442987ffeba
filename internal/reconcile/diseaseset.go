package reconcile

import "errors"

// ErrDiseaseLimit signals that the accumulator's optional cap was reached.
// Callers stop feeding further SNPs and keep the partial results.
var ErrDiseaseLimit = errors.New("pathogenic disease limit reached")

// DiseaseSet is the run-level accumulator of pathogenic disease names.
// Membership is set-like but insertion order is preserved for display;
// entries are never removed.
type DiseaseSet struct {
	limit int
	names []string
	index map[string]struct{}
}

// NewDiseaseSet creates an accumulator. A limit of 0 means unlimited.
func NewDiseaseSet(limit int) *DiseaseSet {
	return &DiseaseSet{
		limit: limit,
		index: make(map[string]struct{}),
	}
}

// Add records a disease name, ignoring empty strings and duplicates.
// Returns ErrDiseaseLimit when a new name would exceed the cap.
func (s *DiseaseSet) Add(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := s.index[name]; ok {
		return nil
	}
	if s.limit > 0 && len(s.names) >= s.limit {
		return ErrDiseaseLimit
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return nil
}

// Contains reports membership.
func (s *DiseaseSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns the accumulated names in insertion order.
func (s *DiseaseSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of accumulated names.
func (s *DiseaseSet) Len() int {
	return len(s.names)
}

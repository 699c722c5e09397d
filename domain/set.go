package domain

import (
	"encoding/json"
	"sort"
)

// IDSet is a set of entity ids with array JSON encoding, so the stored
// documents stay readable and re-adding an existing id is a no-op.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add reports whether the id was actually inserted.
func (s IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Remove reports whether the id was actually present.
func (s IDSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s, id)
	return true
}

// Values returns the ids sorted, for deterministic encoding and tests.
func (s IDSet) Values() []string {
	values := make([]string, 0, len(s))
	for id := range s {
		values = append(values, id)
	}
	sort.Strings(values)
	return values
}

func (s IDSet) Clone() IDSet {
	return NewIDSet(s.Values()...)
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

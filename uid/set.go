package uid

import (
	"sort"
	"strings"
)

// Set is a deduplicated collection of UIDs. Insertion order is not
// preserved; iteration and listing use ascending UID order.
//
// The zero value is not usable; create sets with NewSet. Set is not safe
// for concurrent use; discovery hands the set to the caller by ownership
// transfer, never by sharing.
type Set struct {
	uids map[UID]struct{}
}

// NewSet creates a Set containing the given UIDs, deduplicated.
func NewSet(uids ...UID) *Set {
	s := &Set{uids: make(map[UID]struct{}, len(uids))}
	for _, u := range uids {
		s.uids[u] = struct{}{}
	}

	return s
}

// Add inserts a UID into the set. It returns true if the UID was not
// already present.
func (s *Set) Add(u UID) bool {
	if _, ok := s.uids[u]; ok {
		return false
	}
	s.uids[u] = struct{}{}

	return true
}

// Remove deletes a UID from the set. It returns true if the UID was present.
func (s *Set) Remove(u UID) bool {
	if _, ok := s.uids[u]; !ok {
		return false
	}
	delete(s.uids, u)

	return true
}

// Contains returns true if the UID is in the set.
func (s *Set) Contains(u UID) bool {
	_, ok := s.uids[u]

	return ok
}

// Size returns the number of UIDs in the set.
func (s *Set) Size() int {
	return len(s.uids)
}

// AddAll inserts every UID from other into s (set union in place).
func (s *Set) AddAll(other *Set) {
	if other == nil {
		return
	}
	for u := range other.uids {
		s.uids[u] = struct{}{}
	}
}

// Union returns a new Set containing the UIDs of both s and other.
// Neither input is modified.
func (s *Set) Union(other *Set) *Set {
	result := NewSet()
	result.AddAll(s)
	result.AddAll(other)

	return result
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	result := NewSet()
	result.AddAll(s)

	return result
}

// List returns the UIDs in ascending order.
func (s *Set) List() []UID {
	result := make([]UID, 0, len(s.uids))
	for u := range s.uids {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Less(result[j]) })

	return result
}

// Each calls fn for every UID in ascending order. Iteration stops early
// if fn returns false.
func (s *Set) Each(fn func(UID) bool) {
	for _, u := range s.List() {
		if !fn(u) {
			return
		}
	}
}

// String formats the set as a comma-separated list of UIDs in ascending
// order, e.g. "7a70:00000001,7a70:00000002".
func (s *Set) String() string {
	uids := s.List()
	parts := make([]string, len(uids))
	for i, u := range uids {
		parts[i] = u.String()
	}

	return strings.Join(parts, ",")
}

// Package orderedset provides an insertion-ordered, duplicate-free set.
// It backs every collection in tstack whose order is user visible: frontend
// stacks, selected features and the persisted addon record.
package orderedset

// Set keeps the first-seen order of its members and ignores duplicates.
// The zero value is an empty set ready to use.
type Set[T comparable] struct {
	items []T
	index map[T]struct{}
}

// New returns a set holding vals in first-seen order.
func New[T comparable](vals ...T) *Set[T] {
	s := &Set[T]{}
	s.Add(vals...)
	return s
}

// Add appends each value that is not already a member.
// It reports whether at least one value was added.
func (s *Set[T]) Add(vals ...T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{}, len(vals))
	}
	added := false
	for _, v := range vals {
		if _, ok := s.index[v]; ok {
			continue
		}
		s.index[v] = struct{}{}
		s.items = append(s.items, v)
		added = true
	}
	return added
}

// Remove deletes v while keeping the order of the remaining members.
func (s *Set[T]) Remove(v T) bool {
	if _, ok := s.index[v]; !ok {
		return false
	}
	delete(s.index, v)
	for i, item := range s.items {
		if item == v {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether v is a member.
func (s *Set[T]) Has(v T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Len returns the number of members.
func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Values returns a copy of the members in insertion order.
func (s *Set[T]) Values() []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy.
func (s *Set[T]) Clone() *Set[T] {
	return New(s.Values()...)
}

// Union returns a new set with the members of s followed by the members of
// other that s does not already hold.
func (s *Set[T]) Union(other *Set[T]) *Set[T] {
	out := s.Clone()
	out.Add(other.Values()...)
	return out
}

// Equal reports whether both sets hold the same members, ignoring order.
func (s *Set[T]) Equal(other *Set[T]) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, v := range s.Values() {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

// Dedupe returns vals with duplicates removed, first occurrence wins.
func Dedupe[T comparable](vals []T) []T {
	return New(vals...).Values()
}

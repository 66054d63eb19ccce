package util

// Set holds unique comparable values, such as the node IDs seen while
// validating a flow
type Set[K comparable] map[K]struct{}

// NewSet returns a set sized for n elements
func NewSet[K comparable](n int) Set[K] {
	return make(Set[K], n)
}

// Add inserts key, reporting false if it was already present
func (s Set[K]) Add(key K) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Remove deletes key from the set
func (s Set[K]) Remove(key K) {
	delete(s, key)
}

// Contains reports whether key is in the set
func (s Set[K]) Contains(key K) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of elements
func (s Set[K]) Len() int {
	return len(s)
}

// Items returns the elements in no particular order
func (s Set[K]) Items() []K {
	res := make([]K, 0, len(s))
	for k := range s {
		res = append(res, k)
	}
	return res
}

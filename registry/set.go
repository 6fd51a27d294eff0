package registry

// Set is a concurrent set of unique values.
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

// NewSet returns an empty Set.
func NewSet[K comparable](opts ...Option) *Set[K] {
	return &Set[K]{m: NewMap[K, struct{}](opts...)}
}

// Insert adds k. Inserting an existing value is a no-op.
func (s *Set[K]) Insert(k K) {
	if _, loaded := s.m.m.LoadOrStore(k, struct{}{}); !loaded {
		s.m.size.Add(1)
		s.m.logger.Trace("registered new key", "key", k)
	}
}

func (s *Set[K]) Contains(k K) bool {
	_, ok := s.m.Load(k)
	return ok
}

// Range calls fn for each value until fn returns false.
func (s *Set[K]) Range(fn func(k K) bool) {
	s.m.Range(func(k K, _ struct{}) bool { return fn(k) })
}

func (s *Set[K]) Size() int { return s.m.Size() }

// AggregateSet is Aggregate for sets.
func AggregateSet[K comparable, R any](s *Set[K], zero R, fn func(K) R, combine func(R, R) R) R {
	return Aggregate(s.m, zero, func(k K, _ struct{}) R { return fn(k) }, combine)
}

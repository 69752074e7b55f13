package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments or recipe
// sets can share one Redis without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "tc4:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SolveKey generates a prefixed key for heuristic solves.
func (k *ScopedKeyer) SolveKey(boardHash string, opts SolveKeyOpts) string {
	return k.prefix + k.inner.SolveKey(boardHash, opts)
}

// ExactKey generates a prefixed key for exact solves.
func (k *ScopedKeyer) ExactKey(boardHash string, opts ExactKeyOpts) string {
	return k.prefix + k.inner.ExactKey(boardHash, opts)
}

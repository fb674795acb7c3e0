package cache

// ScopedKeyer wraps a Keyer with a prefix so several users or environments
// can share one Redis or Mongo backend.
//
//	staging := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. If inner is nil, a
// DefaultKeyer is used.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) GraphKey(name string) string {
	return k.prefix + k.inner.GraphKey(name)
}

func (k *ScopedKeyer) PlanKey(source []byte, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(source, opts)
}

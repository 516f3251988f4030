package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several datasets or
// experiments can share one backend without colliding.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "kosarak:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner. A nil inner uses the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ImportanceKey returns the prefixed importance key.
func (k *ScopedKeyer) ImportanceKey(datasetHash string, opts ImportanceKeyOpts) string {
	return k.prefix + k.inner.ImportanceKey(datasetHash, opts)
}

// WeightsKey returns the prefixed weights key.
func (k *ScopedKeyer) WeightsKey(datasetHash string, opts WeightsKeyOpts) string {
	return k.prefix + k.inner.WeightsKey(datasetHash, opts)
}

package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several deployments
// or tenants can share one Redis without colliding:
//
//	keyer := cache.NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer uses
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(profilesHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(profilesHash, opts)
}

// ViewKey generates a prefixed view key.
func (k *ScopedKeyer) ViewKey(viewID string) string {
	return k.prefix + k.inner.ViewKey(viewID)
}

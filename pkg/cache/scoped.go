package cache

// ScopedKeyer wraps a Keyer with a prefix so that several workspaces or
// tenants can share one cache backend without sharing entries.
//
// Example usage:
//
//	// Per-workspace keys on a shared Redis cache
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "ws:notes:")
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

// OutlineKey generates a prefixed key for outline caching.
func (k *ScopedKeyer) OutlineKey(textHash string, opts OutlineKeyOpts) string {
	return k.prefix + k.inner.OutlineKey(textHash, opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(outlineHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(outlineHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(diagramHash, opts)
}

package dedupe

// Option configures the in-memory index.
type Option func(*inMemoryIndex)

// WithMaxSize sets the number of fingerprints kept in memory.
// If maxSize > 0 the oldest entry is evicted when full.
// If maxSize <= 0 the index is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryIndex) {
		d.maxSize = maxSize
	}
}

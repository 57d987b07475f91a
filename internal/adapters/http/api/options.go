package api

// Default handler limits.
const (
	DefaultMaxUploadBytes = 32 << 20
	DefaultMaxListLimit   = 100
)

type config struct {
	maxUploadBytes int64
	maxListLimit   int
	sheet          string
}

func defaultConfig() config {
	return config{
		maxUploadBytes: DefaultMaxUploadBytes,
		maxListLimit:   DefaultMaxListLimit,
	}
}

// Option configures the API server.
type Option func(*config)

// WithMaxUploadBytes caps the size of an uploaded dataset.
func WithMaxUploadBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// WithMaxListLimit caps the limit accepted by GET /analyses.
func WithMaxListLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxListLimit = n
		}
	}
}

// WithDefaultSheet sets the worksheet read from XLSX uploads when the
// request names none.
func WithDefaultSheet(sheet string) Option {
	return func(c *config) {
		c.sheet = sheet
	}
}

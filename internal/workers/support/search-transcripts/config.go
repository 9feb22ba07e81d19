// internal/workers/support/search-transcripts/config.go
package searchtranscripts

import "time"

type Config struct {
	Timeout time.Duration
	// IncludeMessages returns full conversations with each hit instead of
	// only the ticket summary.
	IncludeMessages bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

// internal/workers/chatbot/resolve-intent/config.go
package resolveintent

import "time"

type Config struct {
	Timeout time.Duration
	// IncludeRanking adds every positive topic score to the output.
	IncludeRanking bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

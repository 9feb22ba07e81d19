// internal/workers/support/close-ticket/config.go
package closeticket

import "time"

type Config struct {
	Timeout      time.Duration
	AgentsOnline bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		AgentsOnline: true,
	}
}

// internal/workers/chatbot/handle-message/config.go
package handlemessage

import "time"

type Config struct {
	Timeout time.Duration
	// AgentsOnline is used when the live presence flag is missing or unreadable.
	AgentsOnline bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		AgentsOnline: true,
	}
}

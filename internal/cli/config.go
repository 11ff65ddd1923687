package cli

import "os"

// Config holds client configuration
type Config struct {
	// ServerURL is the websocket endpoint to connect to
	ServerURL string
}

// DefaultConfig returns the default configuration, honoring environment
// overrides
func DefaultConfig() *Config {
	cfg := &Config{
		ServerURL: "ws://localhost:8080/ws",
	}
	if url := os.Getenv("TICTAC_SERVER"); url != "" {
		cfg.ServerURL = url
	}
	return cfg
}

package payment

import (
	"fmt"
	"time"
)

// PixConfig holds connection settings for the Pix transfer provider
type PixConfig struct {
	BaseURL        string        // Provider API base URL
	APIKey         string        // API credential
	RequestTimeout time.Duration // Per-transfer HTTP timeout
}

// Validate checks the configuration for required fields
func (c *PixConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("pix: base URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("pix: API key is required")
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return nil
}

// Package camera acquires a webcam stream and captures still JPEG frames
// from it.
package camera

import (
	"fmt"
	"strings"
)

// Config holds capture device parameters.
type Config struct {
	Device  int `json:"device"`  // OpenCV device index
	Width   int `json:"width"`   // Requested frame width in pixels
	Height  int `json:"height"`  // Requested frame height in pixels
	Quality int `json:"quality"` // JPEG quality 1-100
}

// Limits accepted by Validate.
const (
	MinWidth  = 160
	MinHeight = 120
	MaxWidth  = 3840
	MaxHeight = 2160
)

// DefaultConfig returns a VGA configuration on the first device.
// 0.92 is the browser default for toDataURL("image/jpeg").
func DefaultConfig() Config {
	return Config{
		Device:  0,
		Width:   640,
		Height:  480,
		Quality: 92,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must not be negative")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}

// Err returns Validate's problems as a single error, or nil.
func (c *Config) Err() error {
	if errs := c.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

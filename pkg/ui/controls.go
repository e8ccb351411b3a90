// Package ui holds the widget's visible state: the student ID input, the
// capture prompt, the thumbnail preview and which buttons are enabled.
package ui

import "sync"

// Button identifies one of the widget's actions.
type Button string

const (
	ButtonRecapture Button = "recapture"
	ButtonNext      Button = "next"
	ButtonSave      Button = "save"
	ButtonStart     Button = "start"
	ButtonStop      Button = "stop"
)

// Buttons lists every button in display order.
var Buttons = []Button{ButtonRecapture, ButtonNext, ButtonSave, ButtonStart, ButtonStop}

// Controls tracks enabled/disabled state. Everything starts disabled.
type Controls struct {
	mu      sync.RWMutex
	enabled map[Button]bool
}

// NewControls returns controls with every button disabled.
func NewControls() *Controls {
	return &Controls{enabled: make(map[Button]bool, len(Buttons))}
}

// Enable turns the given buttons on.
func (c *Controls) Enable(buttons ...Button) {
	c.set(true, buttons)
}

// Disable turns the given buttons off.
func (c *Controls) Disable(buttons ...Button) {
	c.set(false, buttons)
}

func (c *Controls) set(enabled bool, buttons []Button) {
	c.mu.Lock()
	for _, b := range buttons {
		c.enabled[b] = enabled
	}
	c.mu.Unlock()
}

// Enabled reports whether b is enabled.
func (c *Controls) Enabled(b Button) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled[b]
}

// Snapshot returns the state of every button.
func (c *Controls) Snapshot() map[Button]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Button]bool, len(Buttons))
	for _, b := range Buttons {
		out[b] = c.enabled[b]
	}
	return out
}

// ParseButton maps a name to a Button.
func ParseButton(name string) (Button, bool) {
	for _, b := range Buttons {
		if string(b) == name {
			return b, true
		}
	}
	return "", false
}

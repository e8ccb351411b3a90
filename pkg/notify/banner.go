package notify

import (
	"sync"
	"time"
)

// DefaultAlertDuration is how long an alert stays visible.
const DefaultAlertDuration = 3 * time.Second

// AlertState is what the banner currently displays.
type AlertState struct {
	Message string    `json:"message"`
	Error   bool      `json:"error"`
	Visible bool      `json:"visible"`
	ShownAt time.Time `json:"shown_at"`
}

// Banner is the transient alert area. Every Show restarts the hide timer,
// and a timer from an earlier Show never hides a newer message.
type Banner struct {
	mu       sync.Mutex
	state    AlertState
	duration time.Duration
	timer    *time.Timer
	gen      uint64

	onChange func(AlertState)
}

// NewBanner creates a banner that hides alerts after d.
func NewBanner(d time.Duration) *Banner {
	if d <= 0 {
		d = DefaultAlertDuration
	}
	return &Banner{duration: d}
}

// OnChange registers a callback invoked after every show and hide.
func (b *Banner) OnChange(fn func(AlertState)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Show overwrites the banner text and style and schedules it to hide.
func (b *Banner) Show(message string, isError bool) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.state = AlertState{
		Message: message,
		Error:   isError,
		Visible: true,
		ShownAt: time.Now(),
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.duration, func() { b.hide(gen) })
	state, cb := b.state, b.onChange
	b.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}

func (b *Banner) hide(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || !b.state.Visible {
		b.mu.Unlock()
		return
	}
	b.state.Visible = false
	state, cb := b.state, b.onChange
	b.mu.Unlock()

	if cb != nil {
		cb(state)
	}
}

// State returns the current banner contents.
func (b *Banner) State() AlertState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stop cancels any pending hide.
func (b *Banner) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

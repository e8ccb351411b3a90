package ui

import (
	"strings"
	"sync"

	"github.com/teslashibe/proctorcam/pkg/camera"
)

// View is the widget's display state. It is passed to the controllers
// rather than looked up, so tests can inspect it directly.
type View struct {
	Controls *Controls

	mu        sync.RWMutex
	studentID string
	prompt    string
	preview   []camera.Frame
}

// NewView creates an empty view with all controls disabled.
func NewView() *View {
	return &View{Controls: NewControls()}
}

// SetStudentID stores the raw input value.
func (v *View) SetStudentID(id string) {
	v.mu.Lock()
	v.studentID = id
	v.mu.Unlock()
}

// StudentID returns the input value with surrounding whitespace removed.
func (v *View) StudentID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return strings.TrimSpace(v.studentID)
}

// SetPrompt replaces the capture instruction.
func (v *View) SetPrompt(text string) {
	v.mu.Lock()
	v.prompt = text
	v.mu.Unlock()
}

// Prompt returns the capture instruction.
func (v *View) Prompt() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.prompt
}

// RenderPreview replaces the thumbnails with frames, in order.
func (v *View) RenderPreview(frames []camera.Frame) {
	cp := make([]camera.Frame, len(frames))
	copy(cp, frames)
	v.mu.Lock()
	v.preview = cp
	v.mu.Unlock()
}

// ClearPreview removes every thumbnail.
func (v *View) ClearPreview() {
	v.mu.Lock()
	v.preview = nil
	v.mu.Unlock()
}

// Preview returns the thumbnails in display order.
func (v *View) Preview() []camera.Frame {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]camera.Frame, len(v.preview))
	copy(out, v.preview)
	return out
}

// Thumbnail returns the i-th preview frame.
func (v *View) Thumbnail(i int) (camera.Frame, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if i < 0 || i >= len(v.preview) {
		return camera.Frame{}, false
	}
	return v.preview[i], true
}

// Snapshot is the JSON form of the view.
type Snapshot struct {
	StudentID    string          `json:"student_id"`
	Prompt       string          `json:"prompt"`
	PreviewCount int             `json:"preview_count"`
	Buttons      map[Button]bool `json:"buttons"`
}

// Snapshot captures the current view state.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	s := Snapshot{
		StudentID:    strings.TrimSpace(v.studentID),
		Prompt:       v.prompt,
		PreviewCount: len(v.preview),
	}
	v.mu.RUnlock()
	s.Buttons = v.Controls.Snapshot()
	return s
}

package ui

import (
	"testing"

	"github.com/teslashibe/proctorcam/pkg/camera"
)

func TestControlsStartDisabled(t *testing.T) {
	c := NewControls()
	for b, on := range c.Snapshot() {
		if on {
			t.Errorf("%s should start disabled", b)
		}
	}
}

func TestControlsEnableDisable(t *testing.T) {
	c := NewControls()
	c.Enable(ButtonNext, ButtonRecapture)

	if !c.Enabled(ButtonNext) || !c.Enabled(ButtonRecapture) {
		t.Error("Enable should turn buttons on")
	}
	if c.Enabled(ButtonSave) {
		t.Error("save should still be disabled")
	}

	c.Disable(ButtonNext)
	c.Enable(ButtonStop)
	if c.Enabled(ButtonNext) {
		t.Error("Disable should turn next off")
	}
	if !c.Enabled(ButtonStop) {
		t.Error("Enable(stop) should enable stop")
	}
}

func TestParseButton(t *testing.T) {
	if b, ok := ParseButton("save"); !ok || b != ButtonSave {
		t.Errorf("ParseButton(save) = %v, %v", b, ok)
	}
	if _, ok := ParseButton("launch"); ok {
		t.Error("unknown button should not parse")
	}
}

func TestStudentIDTrimmed(t *testing.T) {
	v := NewView()
	v.SetStudentID("  S100 \n")
	if got := v.StudentID(); got != "S100" {
		t.Errorf("StudentID = %q, want S100", got)
	}

	v.SetStudentID("   ")
	if v.StudentID() != "" {
		t.Error("whitespace-only ID should read as empty")
	}
}

func TestPreviewIsCopied(t *testing.T) {
	v := NewView()
	frames := []camera.Frame{camera.SolidFrame(1, 16, 12), camera.SolidFrame(2, 16, 12)}
	v.RenderPreview(frames)
	frames[0] = camera.Frame{}

	got := v.Preview()
	if len(got) != 2 || got[0].Empty() {
		t.Error("RenderPreview should copy the slice it is given")
	}
	if _, ok := v.Thumbnail(2); ok {
		t.Error("Thumbnail out of range should fail")
	}

	v.ClearPreview()
	if v.Snapshot().PreviewCount != 0 {
		t.Error("ClearPreview should empty the preview")
	}
}

// Package capture runs the reference-image wizard: it owns the camera,
// walks the student through three poses and uploads the result.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/notify"
	"github.com/teslashibe/proctorcam/pkg/proctor"
	"github.com/teslashibe/proctorcam/pkg/ui"
)

// Stages is the number of reference poses.
const Stages = 3

// Prompts is the instruction shown while awaiting each pose.
var Prompts = [Stages]string{
	"Align your face in the center",
	"Turn your face to the left",
	"Turn your face to the right",
}

// Messages shown to the user.
const (
	MsgEnterStudentID    = "Please enter your Student ID."
	MsgStudentIDRequired = "Student ID is required."
	MsgIncomplete        = "Please capture all 3 reference images."
	MsgSaved             = "✅ Reference images saved successfully!"
	MsgSaveFailed        = "❌ Failed to save reference images: "
	MsgServerError       = "Server error occurred."
	MsgCameraDenied      = "Camera access denied. Allow camera access for this page and reload."
	MsgCameraNotReady    = "Camera is not available."
	MsgCaptureFailed     = "❌ Could not capture a frame from the camera."
	MsgSaveInFlight      = "Reference images are already being saved."
)

// Sentinel errors returned by the controller.
var (
	ErrMissingStudentID    = errors.New("capture: student ID required")
	ErrIncompleteReference = errors.New("capture: all 3 reference images required")
	ErrCameraUnavailable   = errors.New("capture: camera not available")
	ErrSaveInFlight        = errors.New("capture: save already in progress")
	ErrRejected            = errors.New("capture: reference images rejected")
)

// Uploader submits a reference set to the backend.
type Uploader interface {
	SubmitReference(ctx context.Context, studentID string, frames [Stages]camera.Frame) (*proctor.ReferenceResult, error)
}

// Deps are the controller's collaborators.
type Deps struct {
	Source   camera.Source
	Uploader Uploader
	View     *ui.View
	Notifier notify.Notifier
	Logger   *slog.Logger
}

// Controller is the capture wizard. It is safe for concurrent use.
type Controller struct {
	source   camera.Source
	uploader Uploader
	view     *ui.View
	notifier notify.Notifier
	logger   *slog.Logger

	mu        sync.Mutex
	openTried bool
	openErr   error
	frames    []camera.Frame
	stage     int
	saving    bool
	saved     bool
}

// New creates a controller and shows the first prompt.
func New(d Deps) *Controller {
	view := d.View
	if view == nil {
		view = ui.NewView()
	}
	c := &Controller{
		source:   d.Source,
		uploader: d.Uploader,
		view:     view,
		notifier: d.Notifier,
		logger:   log.Or(d.Logger).With("component", "capture"),
		frames:   make([]camera.Frame, 0, Stages),
	}
	view.SetPrompt(Prompts[0])
	return c
}

// InitializeCamera acquires the stream once. A failure shows the blocking
// modal and leaves the capture controls disabled; there is no retry.
func (c *Controller) InitializeCamera(ctx context.Context) error {
	c.mu.Lock()
	if c.openTried {
		err := c.openErr
		c.mu.Unlock()
		return err
	}
	c.openTried = true
	c.mu.Unlock()

	var err error
	if c.source == nil {
		err = camera.ErrUnavailable
	} else {
		err = c.source.Open(ctx)
	}

	c.mu.Lock()
	if err != nil {
		c.openErr = fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
		err = c.openErr
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("camera access failed", "error", err)
		c.notifier.Block(MsgCameraDenied)
		return err
	}

	c.logger.Info("camera ready")
	c.view.Controls.Enable(ui.ButtonNext, ui.ButtonRecapture)
	return nil
}

// CameraReady reports whether the stream was acquired.
func (c *Controller) CameraReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openTried && c.openErr == nil
}

// CaptureFrame takes one still from the shared stream. Monitoring uses it
// too; a capture is a read of the current frame and needs no lock here.
func (c *Controller) CaptureFrame() (camera.Frame, error) {
	if !c.CameraReady() {
		return camera.Frame{}, ErrCameraUnavailable
	}
	return c.source.Capture()
}

// Recapture discards every captured pose and restarts at the first one.
func (c *Controller) Recapture() {
	c.mu.Lock()
	c.frames = c.frames[:0:0]
	c.stage = 0
	c.saved = false
	c.mu.Unlock()

	c.view.ClearPreview()
	c.view.SetPrompt(Prompts[0])
	c.view.Controls.Enable(ui.ButtonNext)
	c.view.Controls.Disable(ui.ButtonSave)
}

// CaptureNext captures the pose for the current stage. It does nothing
// once all poses are captured.
func (c *Controller) CaptureNext() error {
	if c.view.StudentID() == "" {
		c.notifier.Notify(notify.SeverityError, MsgEnterStudentID)
		return ErrMissingStudentID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage >= Stages {
		return nil
	}
	if !c.openTried || c.openErr != nil {
		c.notifier.Notify(notify.SeverityError, MsgCameraNotReady)
		return ErrCameraUnavailable
	}

	frame, err := c.source.Capture()
	if err != nil {
		c.logger.Warn("reference capture failed", "stage", c.stage, "error", err)
		c.notifier.Notify(notify.SeverityError, MsgCaptureFailed)
		return fmt.Errorf("capture: stage %d: %w", c.stage, err)
	}

	c.frames = append(c.frames, frame)
	c.stage++
	c.view.RenderPreview(c.frames)

	if c.stage < Stages {
		c.view.SetPrompt(Prompts[c.stage])
	} else {
		c.view.Controls.Disable(ui.ButtonNext)
		c.view.Controls.Enable(ui.ButtonSave)
	}

	c.logger.Debug("reference pose captured", "stage", c.stage, "bytes", len(frame.Data))
	return nil
}

// Save uploads the three poses. The set is kept whatever the outcome so a
// failed submission can be retried by calling Save again.
func (c *Controller) Save(ctx context.Context) error {
	studentID := c.view.StudentID()
	if studentID == "" {
		c.notifier.Notify(notify.SeverityError, MsgStudentIDRequired)
		return ErrMissingStudentID
	}

	c.mu.Lock()
	if len(c.frames) != Stages {
		c.mu.Unlock()
		c.notifier.Notify(notify.SeverityError, MsgIncomplete)
		return ErrIncompleteReference
	}
	if c.saving {
		c.mu.Unlock()
		c.notifier.Notify(notify.SeverityWarning, MsgSaveInFlight)
		return ErrSaveInFlight
	}
	var set [Stages]camera.Frame
	copy(set[:], c.frames)
	c.saving = true
	c.mu.Unlock()

	res, err := c.uploader.SubmitReference(ctx, studentID, set)

	c.mu.Lock()
	c.saving = false
	if err == nil && res.Success {
		c.saved = true
	}
	c.mu.Unlock()

	logger := c.logger.With("student_id", studentID)
	switch {
	case err != nil:
		logger.Error("reference upload failed", "error", err)
		c.notifier.Notify(notify.SeverityError, MsgServerError)
		return fmt.Errorf("capture: save: %w", err)

	case !res.Success:
		reason := res.Reason()
		if reason == "" {
			reason = "unknown error"
		}
		logger.Warn("reference images rejected", "status", res.StatusCode, "reason", reason)
		c.notifier.Notify(notify.SeverityError, MsgSaveFailed+reason)
		return fmt.Errorf("%w: %s", ErrRejected, reason)
	}

	logger.Info("reference images saved")
	c.notifier.Notify(notify.SeveritySuccess, MsgSaved)
	c.view.Controls.Enable(ui.ButtonStart)
	return nil
}

// Stage returns the current capture stage in [0, 3].
func (c *Controller) Stage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// References returns the captured poses in stage order.
func (c *Controller) References() []camera.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]camera.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// State is the JSON form of the wizard progress.
type State struct {
	Stage       int  `json:"stage"`
	Captured    int  `json:"captured"`
	CameraReady bool `json:"camera_ready"`
	Saving      bool `json:"saving"`
	Saved       bool `json:"saved"`
}

// State returns the wizard progress.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Stage:       c.stage,
		Captured:    len(c.frames),
		CameraReady: c.openTried && c.openErr == nil,
		Saving:      c.saving,
		Saved:       c.saved,
	}
}

package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/notify"
	"github.com/teslashibe/proctorcam/pkg/proctor"
	"github.com/teslashibe/proctorcam/pkg/ui"
)

// Messages shown to the user.
const (
	MsgStudentIDRequired = "Student ID is required."
	MsgStarted           = "🟢 Monitoring started..."
	MsgStopped           = "🛑 Monitoring stopped."

	LogStopped     = "⛔ Monitoring stopped."
	LogServerError = "❌ Server error"
	LogCameraError = "❌ Camera error"
	LogFlagged     = "⚠️ "
)

// Sentinel errors returned by the controller.
var (
	ErrMissingStudentID  = errors.New("monitor: student ID required")
	ErrAlreadyMonitoring = errors.New("monitor: monitoring already active")
	ErrFlagged           = errors.New("monitor: batch flagged by server")
)

// FrameSource yields stills from the shared camera stream.
type FrameSource interface {
	CaptureFrame() (camera.Frame, error)
}

// Verifier uploads one batch for verification.
type Verifier interface {
	VerifyBatch(ctx context.Context, studentID string, frames []camera.Frame) (*proctor.VerifyResult, error)
}

// Deps are the controller's collaborators.
type Deps struct {
	Frames   FrameSource
	Verifier Verifier
	View     *ui.View
	Notifier notify.Notifier
	Logger   *slog.Logger
	Config   Config
}

// Session is one active monitoring run.
type Session struct {
	ID        string
	StudentID string
	StartedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}

	batches atomic.Int64
	flagged atomic.Int64
	failed  atomic.Int64
}

// SessionInfo is the JSON form of a session.
type SessionInfo struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
	Batches   int64     `json:"batches"`
	Flagged   int64     `json:"flagged"`
	Failed    int64     `json:"failed"`
}

func (s *Session) info() SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		StudentID: s.StudentID,
		StartedAt: s.StartedAt,
		Batches:   s.batches.Load(),
		Flagged:   s.flagged.Load(),
		Failed:    s.failed.Load(),
	}
}

// Controller starts and stops monitoring. At most one session is active.
type Controller struct {
	frames   FrameSource
	verifier Verifier
	view     *ui.View
	notifier notify.Notifier
	logger   *slog.Logger
	config   Config

	mu      sync.Mutex
	session *Session
}

// New creates a controller. A zero Config means DefaultConfig.
func New(d Deps) *Controller {
	cfg := d.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	view := d.View
	if view == nil {
		view = ui.NewView()
	}
	return &Controller{
		frames:   d.Frames,
		verifier: d.Verifier,
		view:     view,
		notifier: d.Notifier,
		logger:   log.Or(d.Logger).With("component", "monitor"),
		config:   cfg,
	}
}

// StartExam begins a monitoring session for the current student ID. The
// session lives until StopExam or until ctx is done.
func (c *Controller) StartExam(ctx context.Context) error {
	studentID := c.view.StudentID()
	if studentID == "" {
		c.notifier.Notify(notify.SeverityError, MsgStudentIDRequired)
		return ErrMissingStudentID
	}
	if err := c.config.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return ErrAlreadyMonitoring
	}
	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:        uuid.New().String(),
		StudentID: studentID,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	c.session = s
	// Buttons change under mu so a concurrent StopExam cannot interleave.
	c.view.Controls.Disable(ui.ButtonStart)
	c.view.Controls.Enable(ui.ButtonStop)
	c.mu.Unlock()

	c.logger.Info("monitoring started",
		"session", s.ID,
		"student_id", studentID,
		"tick", c.config.TickInterval,
		"frames", c.config.FramesPerBatch)

	c.notifier.Notify(notify.SeveritySuccess, MsgStarted)

	go c.run(runCtx, s)
	return nil
}

// run drives the repeating tick. Cycles run one at a time; a tick that
// fires while a cycle is still running is coalesced by the ticker.
func (c *Controller) run(ctx context.Context, s *Session) {
	defer close(s.done)

	ticker := time.NewTicker(c.config.TickInterval)
	defer ticker.Stop()

	logger := c.logger.With("session", s.ID)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("tick loop exiting", "reason", ctx.Err())
			return
		case <-ticker.C:
			err := c.cycle(ctx, s)
			switch {
			case err == nil:
			case ctx.Err() != nil:
				// Cancelled mid-cycle; the batch is dropped.
			default:
				logger.Debug("batch cycle ended with error", "error", err)
			}
		}
	}
}

func (c *Controller) cycle(ctx context.Context, s *Session) error {
	s.batches.Add(1)
	err := c.CaptureAndSendBatch(ctx, s.StudentID)
	if ctx.Err() != nil {
		return err
	}
	switch {
	case errors.Is(err, ErrFlagged):
		s.flagged.Add(1)
	case err != nil:
		s.failed.Add(1)
	}
	return err
}

// StopExam ends the active session. It cancels the tick loop and any batch
// in flight, and returns only once the loop has exited, so nothing from the
// session is logged afterwards. With no session only the buttons change.
func (c *Controller) StopExam() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s != nil {
		s.cancel()
		<-s.done

		info := s.info()
		c.logger.Info("monitoring stopped",
			"session", info.ID,
			"batches", info.Batches,
			"flagged", info.Flagged,
			"failed", info.Failed,
			"duration", time.Since(info.StartedAt).Round(time.Second))

		c.notifier.Log(notify.SeverityInfo, LogStopped)
		c.notifier.Notify(notify.SeverityInfo, MsgStopped)
	}

	c.mu.Lock()
	if c.session == nil {
		c.view.Controls.Enable(ui.ButtonStart)
		c.view.Controls.Disable(ui.ButtonStop)
	}
	c.mu.Unlock()
}

// Active reports whether a session is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Session returns the active session, if any.
func (c *Controller) Session() (SessionInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return SessionInfo{}, false
	}
	return c.session.info(), true
}

// CaptureAndSendBatch captures FramesPerBatch frames, FrameInterval apart,
// then uploads them. Server-reported problems and transport failures are
// logged; success is silent. A cancelled ctx drops the batch without
// logging.
func (c *Controller) CaptureAndSendBatch(ctx context.Context, studentID string) error {
	frames := make([]camera.Frame, 0, c.config.FramesPerBatch)

	ticker := time.NewTicker(c.config.FrameInterval)
	defer ticker.Stop()

	for len(frames) < c.config.FramesPerBatch {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f, err := c.frames.CaptureFrame()
			if err != nil {
				c.logger.Warn("batch capture failed", "captured", len(frames), "error", err)
				c.notifier.Log(notify.SeverityError, LogCameraError)
				return fmt.Errorf("monitor: capture frame %d: %w", len(frames), err)
			}
			frames = append(frames, f)
		}
	}

	return c.send(ctx, studentID, frames)
}

func (c *Controller) send(ctx context.Context, studentID string, frames []camera.Frame) error {
	res, err := c.verifier.VerifyBatch(ctx, studentID, frames)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	logger := c.logger.With("student_id", studentID, "frames", len(frames))
	switch {
	case err != nil:
		logger.Error("batch upload failed", "error", err)
		c.notifier.Log(notify.SeverityError, LogServerError)
		return fmt.Errorf("monitor: verify: %w", err)

	case res.Flagged():
		msg := res.Message
		if msg == "" {
			msg = "verification failed"
		}
		logger.Warn("batch flagged", "message", msg, "details", len(res.Details))
		c.notifier.Log(notify.SeverityWarning, LogFlagged+msg)
		return fmt.Errorf("%w: %s", ErrFlagged, msg)

	case !res.OK():
		logger.Error("batch rejected", "status", res.StatusCode, "error", res.Error)
		c.notifier.Log(notify.SeverityError, LogServerError)
		return fmt.Errorf("monitor: verify: HTTP %d: %s", res.StatusCode, res.Error)
	}

	logger.Debug("batch verified", "status", res.Status)
	return nil
}

// Package widget assembles the capture wizard, the monitoring loop, the
// view and the notification sink into the single object the control
// surface drives.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/capture"
	"github.com/teslashibe/proctorcam/pkg/monitor"
	"github.com/teslashibe/proctorcam/pkg/notify"
	"github.com/teslashibe/proctorcam/pkg/ui"
)

// ErrDisabled is returned when a button is pressed while disabled.
var ErrDisabled = errors.New("widget: button disabled")

// ErrUnknownButton is returned for a button name that does not exist.
var ErrUnknownButton = errors.New("widget: unknown button")

// Backend is what the widget needs from the proctoring server.
type Backend interface {
	capture.Uploader
	monitor.Verifier
}

// Deps are the widget's collaborators. View and Sink are created when nil.
type Deps struct {
	Source  camera.Source
	Backend Backend
	View    *ui.View
	Sink    *notify.Sink
	Monitor monitor.Config
	Logger  *slog.Logger
}

// Widget is the proctoring capture widget.
type Widget struct {
	View    *ui.View
	Sink    *notify.Sink
	Capture *capture.Controller
	Monitor *monitor.Controller

	ctx    context.Context
	logger *slog.Logger
}

// New builds the widget. ctx bounds the lifetime of monitoring sessions.
func New(ctx context.Context, d Deps) *Widget {
	logger := log.Or(d.Logger)
	view := d.View
	if view == nil {
		view = ui.NewView()
	}
	sink := d.Sink
	if sink == nil {
		sink = notify.NewSink(notify.DefaultAlertDuration, notify.DefaultLogCapacity, logger)
	}

	capt := capture.New(capture.Deps{
		Source:   d.Source,
		Uploader: d.Backend,
		View:     view,
		Notifier: sink,
		Logger:   logger,
	})
	mon := monitor.New(monitor.Deps{
		Frames:   capt,
		Verifier: d.Backend,
		View:     view,
		Notifier: sink,
		Logger:   logger,
		Config:   d.Monitor,
	})

	return &Widget{
		View:    view,
		Sink:    sink,
		Capture: capt,
		Monitor: mon,
		ctx:     ctx,
		logger:  logger.With("component", "widget"),
	}
}

// Init acquires the camera.
func (w *Widget) Init(ctx context.Context) error {
	return w.Capture.InitializeCamera(ctx)
}

// SetStudentID updates the student ID input.
func (w *Widget) SetStudentID(id string) {
	w.View.SetStudentID(id)
}

// Press performs the action bound to b, refusing disabled buttons the way
// the page did. The controllers still check their own preconditions.
func (w *Widget) Press(ctx context.Context, b ui.Button) error {
	if _, ok := ui.ParseButton(string(b)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownButton, b)
	}
	if !w.View.Controls.Enabled(b) {
		return fmt.Errorf("%w: %s", ErrDisabled, b)
	}

	w.logger.Debug("button pressed", "button", b)
	switch b {
	case ui.ButtonRecapture:
		w.Capture.Recapture()
		return nil
	case ui.ButtonNext:
		return w.Capture.CaptureNext()
	case ui.ButtonSave:
		return w.Capture.Save(ctx)
	case ui.ButtonStart:
		return w.Monitor.StartExam(w.ctx)
	case ui.ButtonStop:
		w.Monitor.StopExam()
		return nil
	}
	return nil
}

// State is the full widget snapshot.
type State struct {
	View       ui.Snapshot          `json:"view"`
	Capture    capture.State        `json:"capture"`
	Monitoring bool                 `json:"monitoring"`
	Session    *monitor.SessionInfo `json:"session,omitempty"`
	Alert      notify.AlertState    `json:"alert"`
	Modal      string               `json:"modal,omitempty"`
	LogCount   int                  `json:"log_count"`
}

// State returns the current snapshot.
func (w *Widget) State() State {
	s := State{
		View:    w.View.Snapshot(),
		Capture: w.Capture.State(),
		Alert:   w.Sink.Alert(),
		Modal:   w.Sink.Modal(),
	}
	if info, ok := w.Monitor.Session(); ok {
		s.Monitoring = true
		s.Session = &info
	}
	s.LogCount = len(w.Sink.Entries())
	return s
}

// Log returns the log feed, newest first.
func (w *Widget) Log() []notify.Entry {
	return w.Sink.Entries()
}

// Thumbnail returns the i-th preview image.
func (w *Widget) Thumbnail(i int) (camera.Frame, bool) {
	return w.View.Thumbnail(i)
}

// CaptureFrame takes a still from the shared stream for the live preview.
func (w *Widget) CaptureFrame() (camera.Frame, error) {
	return w.Capture.CaptureFrame()
}

// Close stops monitoring and releases the banner timer.
func (w *Widget) Close() {
	if w.Monitor.Active() {
		w.Monitor.StopExam()
	}
	w.Sink.Close()
}

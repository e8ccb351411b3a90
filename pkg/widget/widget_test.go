package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/capture"
	"github.com/teslashibe/proctorcam/pkg/monitor"
	"github.com/teslashibe/proctorcam/pkg/proctor"
	"github.com/teslashibe/proctorcam/pkg/ui"
)

// mockBackend answers both endpoints and counts calls.
type mockBackend struct {
	mu          sync.Mutex
	references  int
	batches     int
	ReferenceOK bool
}

func (m *mockBackend) SubmitReference(ctx context.Context, studentID string, frames [capture.Stages]camera.Frame) (*proctor.ReferenceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.references++
	if !m.ReferenceOK {
		return &proctor.ReferenceResult{Success: false, Error: "No face", StatusCode: 400}, nil
	}
	return &proctor.ReferenceResult{Success: true, StatusCode: 200}, nil
}

func (m *mockBackend) VerifyBatch(ctx context.Context, studentID string, frames []camera.Frame) (*proctor.VerifyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	return &proctor.VerifyResult{Status: proctor.StatusSuccess, StatusCode: 200}, nil
}

func (m *mockBackend) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

func newTestWidget(t *testing.T, backend *mockBackend) (*Widget, *camera.Mock) {
	t.Helper()
	cam := camera.NewMock()
	w := New(context.Background(), Deps{
		Source:  cam,
		Backend: backend,
		Logger:  log.Discard(),
		Monitor: monitor.Config{
			TickInterval:   20 * time.Millisecond,
			FrameInterval:  time.Millisecond,
			FramesPerBatch: 10,
		},
	})
	t.Cleanup(w.Close)
	return w, cam
}

func TestPressDisabledBeforeInit(t *testing.T) {
	w, cam := newTestWidget(t, &mockBackend{ReferenceOK: true})

	for _, b := range ui.Buttons {
		err := w.Press(context.Background(), b)
		if !errors.Is(err, ErrDisabled) {
			t.Errorf("Press(%s) error = %v, want ErrDisabled", b, err)
		}
	}
	if cam.Captures() != 0 {
		t.Errorf("Captures = %d, want 0", cam.Captures())
	}
}

func TestPressUnknownButton(t *testing.T) {
	w, _ := newTestWidget(t, &mockBackend{})
	if err := w.Press(context.Background(), ui.Button("explode")); !errors.Is(err, ErrUnknownButton) {
		t.Errorf("error = %v, want ErrUnknownButton", err)
	}
}

func TestFullExamFlow(t *testing.T) {
	backend := &mockBackend{ReferenceOK: true}
	w, _ := newTestWidget(t, backend)
	ctx := context.Background()

	if err := w.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	w.SetStudentID("  S42  ")

	for i := 0; i < capture.Stages; i++ {
		if err := w.Press(ctx, ui.ButtonNext); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	if err := w.Press(ctx, ui.ButtonNext); !errors.Is(err, ErrDisabled) {
		t.Errorf("fourth next error = %v, want ErrDisabled", err)
	}

	if err := w.Press(ctx, ui.ButtonSave); err != nil {
		t.Fatalf("save: %v", err)
	}
	st := w.State()
	if !st.Capture.Saved {
		t.Error("state should report saved")
	}
	if st.View.StudentID != "S42" {
		t.Errorf("StudentID = %q, want S42", st.View.StudentID)
	}
	if st.Alert.Message != capture.MsgSaved {
		t.Errorf("alert = %q, want %q", st.Alert.Message, capture.MsgSaved)
	}

	if err := w.Press(ctx, ui.ButtonStart); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !w.State().Monitoring || w.State().Session == nil {
		t.Fatal("state should report an active session")
	}
	if err := w.Press(ctx, ui.ButtonStart); !errors.Is(err, ErrDisabled) {
		t.Errorf("second start error = %v, want ErrDisabled", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for backend.batchCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if backend.batchCount() == 0 {
		t.Fatal("no batch uploaded")
	}

	if err := w.Press(ctx, ui.ButtonStop); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if w.State().Monitoring {
		t.Error("monitoring should be stopped")
	}
	entries := w.Log()
	if len(entries) == 0 || entries[0].Message != monitor.LogStopped {
		t.Errorf("newest log entry = %+v, want %q", entries, monitor.LogStopped)
	}
}

func TestRejectedSaveKeepsStartDisabled(t *testing.T) {
	w, _ := newTestWidget(t, &mockBackend{ReferenceOK: false})
	ctx := context.Background()
	if err := w.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	w.SetStudentID("S1")
	for i := 0; i < capture.Stages; i++ {
		if err := w.Press(ctx, ui.ButtonNext); err != nil {
			t.Fatalf("next: %v", err)
		}
	}

	if err := w.Press(ctx, ui.ButtonSave); !errors.Is(err, capture.ErrRejected) {
		t.Fatalf("save error = %v, want ErrRejected", err)
	}
	if w.View.Controls.Enabled(ui.ButtonStart) {
		t.Error("start should stay disabled after a rejected save")
	}
	if got := w.State().Alert; !got.Error || got.Message != capture.MsgSaveFailed+"No face" {
		t.Errorf("alert = %+v", got)
	}
}

func TestCameraDeniedShowsModal(t *testing.T) {
	w, cam := newTestWidget(t, &mockBackend{})
	cam.OpenFunc = func(ctx context.Context) error { return camera.ErrUnavailable }

	if err := w.Init(context.Background()); err == nil {
		t.Fatal("Init should fail")
	}
	st := w.State()
	if st.Modal != capture.MsgCameraDenied {
		t.Errorf("Modal = %q, want %q", st.Modal, capture.MsgCameraDenied)
	}
	for b, on := range st.View.Buttons {
		if on {
			t.Errorf("button %s should be disabled", b)
		}
	}
}

func TestCloseStopsMonitoring(t *testing.T) {
	w, _ := newTestWidget(t, &mockBackend{ReferenceOK: true})
	w.SetStudentID("S9")
	if err := w.Monitor.StartExam(context.Background()); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	w.Close()
	if w.Monitor.Active() {
		t.Error("Close should stop monitoring")
	}
}

package capture

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/notify"
	"github.com/teslashibe/proctorcam/pkg/proctor"
	"github.com/teslashibe/proctorcam/pkg/ui"
)

// mockUploader records submissions and answers with SubmitFunc.
type mockUploader struct {
	mu         sync.Mutex
	calls      int
	studentIDs []string
	SubmitFunc func(ctx context.Context, studentID string, frames [Stages]camera.Frame) (*proctor.ReferenceResult, error)
}

func (m *mockUploader) SubmitReference(ctx context.Context, studentID string, frames [Stages]camera.Frame) (*proctor.ReferenceResult, error) {
	m.mu.Lock()
	m.calls++
	m.studentIDs = append(m.studentIDs, studentID)
	fn := m.SubmitFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, studentID, frames)
	}
	return &proctor.ReferenceResult{Success: true, StatusCode: 200}, nil
}

func (m *mockUploader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fixture struct {
	ctrl     *Controller
	cam      *camera.Mock
	uploader *mockUploader
	view     *ui.View
	rec      *notify.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cam:      camera.NewMock(),
		uploader: &mockUploader{},
		view:     ui.NewView(),
		rec:      notify.NewRecorder(),
	}
	f.ctrl = New(Deps{
		Source:   f.cam,
		Uploader: f.uploader,
		View:     f.view,
		Notifier: f.rec,
		Logger:   log.Discard(),
	})
	return f
}

func newReadyFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	if err := f.ctrl.InitializeCamera(context.Background()); err != nil {
		t.Fatalf("InitializeCamera: %v", err)
	}
	f.view.SetStudentID("S100")
	return f
}

func (f *fixture) captureAll(t *testing.T) {
	t.Helper()
	for i := 0; i < Stages; i++ {
		if err := f.ctrl.CaptureNext(); err != nil {
			t.Fatalf("CaptureNext %d: %v", i, err)
		}
	}
}

func TestInitializeCameraEnablesControls(t *testing.T) {
	f := newFixture(t)

	if err := f.ctrl.InitializeCamera(context.Background()); err != nil {
		t.Fatalf("InitializeCamera: %v", err)
	}
	if !f.view.Controls.Enabled(ui.ButtonNext) || !f.view.Controls.Enabled(ui.ButtonRecapture) {
		t.Error("next and recapture should be enabled after camera init")
	}
	if !f.ctrl.CameraReady() {
		t.Error("CameraReady should be true")
	}
	if f.view.Prompt() != Prompts[0] {
		t.Errorf("Prompt = %q, want %q", f.view.Prompt(), Prompts[0])
	}
}

func TestInitializeCameraDenied(t *testing.T) {
	f := newFixture(t)
	f.cam.OpenFunc = func(ctx context.Context) error { return camera.ErrUnavailable }

	err := f.ctrl.InitializeCamera(context.Background())
	if !errors.Is(err, ErrCameraUnavailable) {
		t.Fatalf("err = %v, want ErrCameraUnavailable", err)
	}

	if len(f.rec.Blocks()) != 1 {
		t.Fatalf("expected one blocking notification, got %v", f.rec.Calls())
	}
	if len(f.rec.Alerts()) != 0 {
		t.Error("denial should use the modal, not the transient alert")
	}
	for b, on := range f.view.Controls.Snapshot() {
		if on {
			t.Errorf("%s should remain disabled after camera denial", b)
		}
	}
	if st := f.ctrl.State(); st.Stage != 0 || st.Captured != 0 || st.CameraReady {
		t.Errorf("state changed after denial: %+v", st)
	}
}

func TestInitializeCameraNoRetry(t *testing.T) {
	f := newFixture(t)
	f.cam.OpenFunc = func(ctx context.Context) error { return camera.ErrUnavailable }

	f.ctrl.InitializeCamera(context.Background())
	f.ctrl.InitializeCamera(context.Background())

	if f.cam.Opens() != 1 {
		t.Errorf("Opens = %d, the stream must be acquired only once", f.cam.Opens())
	}
}

func TestCaptureNextRequiresStudentID(t *testing.T) {
	f := newReadyFixture(t)
	f.view.SetStudentID("  ")

	if err := f.ctrl.CaptureNext(); !errors.Is(err, ErrMissingStudentID) {
		t.Fatalf("err = %v, want ErrMissingStudentID", err)
	}
	if f.ctrl.Stage() != 0 || f.cam.Captures() != 0 {
		t.Error("nothing should be captured without a student ID")
	}
	if last, _ := f.rec.LastAlert(); last.Message != MsgEnterStudentID {
		t.Errorf("alert = %q, want %q", last.Message, MsgEnterStudentID)
	}
	if len(f.rec.Logs()) != 0 {
		t.Error("validation errors must not be logged")
	}
}

func TestCaptureNextProgression(t *testing.T) {
	f := newReadyFixture(t)

	for want := 1; want <= Stages; want++ {
		if err := f.ctrl.CaptureNext(); err != nil {
			t.Fatalf("CaptureNext: %v", err)
		}
		if got := len(f.ctrl.References()); got != f.ctrl.Stage() {
			t.Errorf("references = %d, stage = %d; they must match", got, f.ctrl.Stage())
		}
		if f.ctrl.Stage() != want {
			t.Errorf("Stage = %d, want %d", f.ctrl.Stage(), want)
		}
		if want < Stages && f.view.Prompt() != Prompts[want] {
			t.Errorf("Prompt = %q, want %q", f.view.Prompt(), Prompts[want])
		}
		if got := len(f.view.Preview()); got != want {
			t.Errorf("preview = %d thumbnails, want %d", got, want)
		}
	}

	if f.view.Controls.Enabled(ui.ButtonNext) {
		t.Error("next should be disabled at stage 3")
	}
	if !f.view.Controls.Enabled(ui.ButtonSave) {
		t.Error("save should be enabled at stage 3")
	}
}

func TestCaptureNextNoopAtFinalStage(t *testing.T) {
	f := newReadyFixture(t)
	f.captureAll(t)

	if err := f.ctrl.CaptureNext(); err != nil {
		t.Errorf("CaptureNext at stage 3 = %v, want nil", err)
	}
	if f.ctrl.Stage() != Stages || f.cam.Captures() != Stages {
		t.Error("CaptureNext at stage 3 should not capture")
	}
}

func TestPreviewKeepsStageOrder(t *testing.T) {
	f := newReadyFixture(t)
	f.captureAll(t)

	refs := f.ctrl.References()
	preview := f.view.Preview()
	for i := range refs {
		if string(refs[i].Data) != string(preview[i].Data) {
			t.Errorf("preview[%d] does not match reference[%d]", i, i)
		}
	}
}

func TestCaptureFailure(t *testing.T) {
	f := newReadyFixture(t)
	f.cam.CaptureFunc = func(seq int) (camera.Frame, error) { return camera.Frame{}, camera.ErrNoFrame }

	if err := f.ctrl.CaptureNext(); !errors.Is(err, camera.ErrNoFrame) {
		t.Fatalf("err = %v, want ErrNoFrame", err)
	}
	if f.ctrl.Stage() != 0 {
		t.Error("a failed capture must not advance the stage")
	}
}

func TestRecaptureIdempotent(t *testing.T) {
	f := newReadyFixture(t)
	f.captureAll(t)

	for i := 0; i < 2; i++ {
		f.ctrl.Recapture()

		if f.ctrl.Stage() != 0 || len(f.ctrl.References()) != 0 {
			t.Fatalf("Recapture #%d: stage=%d refs=%d", i, f.ctrl.Stage(), len(f.ctrl.References()))
		}
		if len(f.view.Preview()) != 0 {
			t.Error("preview should be cleared")
		}
		if f.view.Prompt() != Prompts[0] {
			t.Errorf("Prompt = %q", f.view.Prompt())
		}
		if !f.view.Controls.Enabled(ui.ButtonNext) || f.view.Controls.Enabled(ui.ButtonSave) {
			t.Error("Recapture should enable next and disable save")
		}
	}
}

func TestRecaptureFromFreshState(t *testing.T) {
	f := newFixture(t)
	f.ctrl.Recapture()
	if f.ctrl.Stage() != 0 || len(f.ctrl.References()) != 0 {
		t.Error("Recapture on a fresh controller should leave it empty")
	}
}

func TestSaveRejectsMissingStudentID(t *testing.T) {
	f := newReadyFixture(t)
	f.captureAll(t)
	f.view.SetStudentID("")

	if err := f.ctrl.Save(context.Background()); !errors.Is(err, ErrMissingStudentID) {
		t.Fatalf("err = %v, want ErrMissingStudentID", err)
	}
	if f.uploader.callCount() != 0 {
		t.Error("no network call should be made without a student ID")
	}
	if last, _ := f.rec.LastAlert(); last.Message != MsgStudentIDRequired {
		t.Errorf("alert = %q", last.Message)
	}
}

func TestSaveRejectsIncompleteSet(t *testing.T) {
	f := newReadyFixture(t)
	f.ctrl.CaptureNext()
	f.ctrl.CaptureNext()

	if err := f.ctrl.Save(context.Background()); !errors.Is(err, ErrIncompleteReference) {
		t.Fatalf("err = %v, want ErrIncompleteReference", err)
	}
	if f.uploader.callCount() != 0 {
		t.Error("no network call should be made with 2 frames")
	}
	last, _ := f.rec.LastAlert()
	if !strings.Contains(last.Message, "capture all 3") {
		t.Errorf("alert = %q, should reference incomplete capture", last.Message)
	}
}

func TestSaveSuccessScenario(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != proctor.ReferencePath {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.FormValue("student_id") != "S100" {
			t.Errorf("student_id = %q", r.FormValue("student_id"))
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	f := newReadyFixture(t)
	f.ctrl.uploader = proctor.NewClient(server.URL, proctor.WithLogger(log.Discard()))
	f.captureAll(t)

	if err := f.ctrl.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if requests.Load() != 1 {
		t.Errorf("requests = %d, want 1", requests.Load())
	}
	if !f.view.Controls.Enabled(ui.ButtonStart) {
		t.Error("start should be enabled after a successful save")
	}
	last, _ := f.rec.LastAlert()
	if last.Severity != notify.SeveritySuccess || last.Message != MsgSaved {
		t.Errorf("alert = %+v", last)
	}
	if len(f.rec.Logs()) != 0 {
		t.Error("a successful save adds no log entry")
	}
	if !f.ctrl.State().Saved {
		t.Error("State.Saved should be true")
	}
}

func TestSaveServerRejection(t *testing.T) {
	f := newReadyFixture(t)
	f.uploader.SubmitFunc = func(ctx context.Context, id string, frames [Stages]camera.Frame) (*proctor.ReferenceResult, error) {
		return &proctor.ReferenceResult{Error: "No face detected in image 2", StatusCode: 400}, nil
	}
	f.captureAll(t)

	if err := f.ctrl.Save(context.Background()); !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	last, _ := f.rec.LastAlert()
	if last.Message != MsgSaveFailed+"No face detected in image 2" {
		t.Errorf("alert = %q", last.Message)
	}
	if f.view.Controls.Enabled(ui.ButtonStart) {
		t.Error("start must stay disabled after a rejection")
	}
	if len(f.ctrl.References()) != Stages {
		t.Error("a failed save must keep the reference set")
	}

	// Resubmission is allowed.
	f.uploader.SubmitFunc = nil
	if err := f.ctrl.Save(context.Background()); err != nil {
		t.Errorf("resubmit: %v", err)
	}
	if f.uploader.callCount() != 2 {
		t.Errorf("calls = %d, want 2", f.uploader.callCount())
	}
}

func TestSaveTransportError(t *testing.T) {
	f := newReadyFixture(t)
	f.uploader.SubmitFunc = func(ctx context.Context, id string, frames [Stages]camera.Frame) (*proctor.ReferenceResult, error) {
		return nil, &proctor.TransportError{Endpoint: proctor.ReferencePath, Err: errors.New("connection refused")}
	}
	f.captureAll(t)

	err := f.ctrl.Save(context.Background())
	var te *proctor.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *proctor.TransportError", err)
	}
	if last, _ := f.rec.LastAlert(); last.Message != MsgServerError || last.Severity != notify.SeverityError {
		t.Errorf("alert = %+v", last)
	}
}

func TestSaveInFlightRejected(t *testing.T) {
	f := newReadyFixture(t)
	release := make(chan struct{})
	f.uploader.SubmitFunc = func(ctx context.Context, id string, frames [Stages]camera.Frame) (*proctor.ReferenceResult, error) {
		<-release
		return &proctor.ReferenceResult{Success: true}, nil
	}
	f.captureAll(t)

	done := make(chan error, 1)
	go func() { done <- f.ctrl.Save(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for !f.ctrl.State().Saving && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := f.ctrl.Save(context.Background()); !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("second Save = %v, want ErrSaveInFlight", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Save: %v", err)
	}
	if f.uploader.callCount() != 1 {
		t.Errorf("calls = %d, want 1", f.uploader.callCount())
	}
}

func TestCaptureFrameRequiresCamera(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ctrl.CaptureFrame(); !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("err = %v, want ErrCameraUnavailable", err)
	}
	f.ctrl.InitializeCamera(context.Background())
	if _, err := f.ctrl.CaptureFrame(); err != nil {
		t.Errorf("CaptureFrame after init: %v", err)
	}
}

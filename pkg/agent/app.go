package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/proctorcam/internal/httpc"
	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/hub"
	"github.com/teslashibe/proctorcam/pkg/notify"
	"github.com/teslashibe/proctorcam/pkg/proctor"
	"github.com/teslashibe/proctorcam/pkg/web"
	"github.com/teslashibe/proctorcam/pkg/widget"
)

// App is the proctoring agent. It manages all components and their
// lifecycle: New, then Init, then Run, then Shutdown.
type App struct {
	config Config
	logger *slog.Logger

	source camera.Source
	sink   *notify.Sink
	widget *widget.Widget

	eventsHub *hub.Hub
	cameraHub *hub.Hub
	server    *web.Server

	// ctx bounds monitoring sessions; cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	previewFrames int
	preview       sync.WaitGroup // streamPreview, waited on before the camera closes
	shutdownOnce  sync.Once
}

// New builds the agent. Nothing touches the camera or the network yet.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := log.Or(cfg.Logger)
	s := cfg.Settings

	source := cfg.Source
	if source == nil {
		camCfg, err := cfg.CameraConfig()
		if err != nil {
			return nil, err
		}
		source = camera.NewDevice(camCfg, logger)
	}

	var backend widget.Backend = cfg.Backend
	if backend == nil {
		backend = proctor.NewClient(s.ServerURL,
			proctor.WithHTTPClient(httpc.NewClient(s.HTTPTimeout)),
			proctor.WithLogger(logger))
	}

	a := &App{
		config:    cfg,
		logger:    logger.With("component", "agent"),
		source:    source,
		eventsHub: hub.New("events", logger),
		cameraHub: hub.New("camera", logger),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.sink = notify.NewSink(s.Alert.Duration, s.LogCapacity, logger)
	a.sink.SetPublisher(a.eventsHub)

	a.widget = widget.New(a.ctx, widget.Deps{
		Source:  source,
		Backend: backend,
		Sink:    a.sink,
		Monitor: cfg.MonitorConfig(),
		Logger:  logger,
	})
	a.server = web.NewServer(s.Listen, a.widget, a.eventsHub, a.cameraHub, logger)

	return a, nil
}

// Init starts the hubs and acquires the camera. A camera failure is
// returned but leaves the agent usable: the page shows the blocking modal.
func (a *App) Init(ctx context.Context) error {
	fmt.Println("📷 proctorcam - exam proctoring capture agent")
	fmt.Println("=============================================")

	go a.eventsHub.Run()
	go a.cameraHub.Run()

	fmt.Print("📷 Opening camera... ")
	if err := a.widget.Init(ctx); err != nil {
		fmt.Println("❌")
		return err
	}
	fmt.Println("✅")
	return nil
}

// Run serves the control surface and pumps preview frames. It blocks until
// ctx is cancelled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	fmt.Printf("🌐 Control surface: http://%s\n", a.config.Settings.Listen)
	fmt.Printf("🎓 Proctoring server: %s\n", a.config.Settings.ServerURL)
	fmt.Println("   (Ctrl+C to exit)")

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()
	a.preview.Add(1)
	go func() {
		defer a.preview.Done()
		a.streamPreview(ctx)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("agent: serve: %w", err)
		}
		return nil
	}
}

// streamPreview sends the latest frame to camera websocket clients at
// preview_fps, skipping ticks when nobody is watching.
func (a *App) streamPreview(ctx context.Context) {
	fps := a.config.Settings.PreviewFPS
	if fps <= 0 {
		a.logger.Info("camera preview disabled")
		return
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var lastErr time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			if a.cameraHub.ClientCount() == 0 || !a.widget.Capture.CameraReady() {
				continue
			}
			frame, err := a.widget.CaptureFrame()
			if err != nil {
				if errors.Is(err, camera.ErrClosed) {
					return
				}
				if time.Since(lastErr) > 5*time.Second {
					a.logger.Warn("preview frame failed", "error", err)
					lastErr = time.Now()
				}
				continue
			}
			a.server.SendCameraFrame(frame.Data)
			a.previewFrames++
			if a.previewFrames == 1 {
				a.logger.Debug("first preview frame sent", "bytes", len(frame.Data))
			}
		}
	}
}

// Widget returns the widget the control surface drives.
func (a *App) Widget() *widget.Widget {
	return a.widget
}

// Server returns the control surface.
func (a *App) Server() *web.Server {
	return a.server
}

// Shutdown stops monitoring, the server, the hubs and the camera. Safe to
// call more than once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		fmt.Println("\n👋 Goodbye!")

		a.widget.Close()
		a.cancel()
		a.preview.Wait()

		if err := a.server.Shutdown(); err != nil {
			a.logger.Warn("web shutdown failed", "error", err)
		}
		a.eventsHub.Stop()
		a.cameraHub.Stop()

		if err := a.source.Close(); err != nil {
			a.logger.Warn("camera close failed", "error", err)
		}
	})
}

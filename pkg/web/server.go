// Package web serves the widget's local control surface: the JSON state
// and log, the action routes the page buttons map to, and websocket
// streams for events and the camera preview.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/hub"
	"github.com/teslashibe/proctorcam/pkg/notify"
	"github.com/teslashibe/proctorcam/pkg/ui"
	"github.com/teslashibe/proctorcam/pkg/widget"
)

// Widget is what the control surface drives.
type Widget interface {
	State() widget.State
	Log() []notify.Entry
	Thumbnail(i int) (camera.Frame, bool)
	SetStudentID(id string)
	Press(ctx context.Context, b ui.Button) error
}

// EventState is the event type pushed after every action.
const EventState = "state"

// StateEvent carries a fresh snapshot on the events stream.
type StateEvent struct {
	Type  string       `json:"type"`
	State widget.State `json:"state"`
}

// Server is the control surface server.
type Server struct {
	app    *fiber.App
	addr   string
	widget Widget
	logger *slog.Logger

	eventsHub *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the server. The hubs are owned by the caller, which
// must run them.
func NewServer(addr string, w Widget, events, cam *hub.Hub, logger *slog.Logger) *Server {
	s := &Server{
		addr:      addr,
		widget:    w,
		logger:    log.Or(logger).With("component", "web"),
		eventsHub: events,
		cameraHub: cam,
	}

	app := fiber.New(fiber.Config{
		AppName:               "proctorcam",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Get("/log", s.handleLog)
	api.Get("/preview/:index", s.handlePreview)
	api.Put("/student", s.handleStudent)

	ref := api.Group("/reference")
	ref.Post("/recapture", s.press(ui.ButtonRecapture))
	ref.Post("/next", s.press(ui.ButtonNext))
	ref.Post("/save", s.press(ui.ButtonSave))

	exam := api.Group("/exam")
	exam.Post("/start", s.press(ui.ButtonStart))
	exam.Post("/stop", s.press(ui.ButtonStop))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start listens and blocks until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("control surface listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// PublishState pushes the current snapshot to event clients.
func (s *Server) PublishState() {
	if err := s.eventsHub.BroadcastJSON(StateEvent{Type: EventState, State: s.widget.State()}); err != nil {
		s.logger.Warn("state broadcast failed", "error", err)
	}
}

// SendCameraFrame pushes a JPEG frame to camera clients.
func (s *Server) SendCameraFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

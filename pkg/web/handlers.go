package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/capture"
	"github.com/teslashibe/proctorcam/pkg/hub"
	"github.com/teslashibe/proctorcam/pkg/monitor"
	"github.com/teslashibe/proctorcam/pkg/ui"
	"github.com/teslashibe/proctorcam/pkg/widget"
)

// StudentRequest is the body of PUT /api/student.
type StudentRequest struct {
	StudentID string `json:"student_id"`
}

// ErrorResponse is returned for failed actions. State is the snapshot
// after the failure so the page can re-render.
type ErrorResponse struct {
	Error string        `json:"error"`
	State *widget.State `json:"state,omitempty"`
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.widget.State())
}

func (s *Server) handleLog(c *fiber.Ctx) error {
	return c.JSON(s.widget.Log())
}

func (s *Server) handlePreview(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid preview index"})
	}
	frame, ok := s.widget.Thumbnail(index)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no preview image"})
	}
	c.Set(fiber.HeaderContentType, camera.MIMEType)
	return c.Send(frame.Data)
}

func (s *Server) handleStudent(c *fiber.Ctx) error {
	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	s.widget.SetStudentID(req.StudentID)
	state := s.widget.State()
	s.PublishState()
	return c.JSON(state)
}

// press returns the handler for a button route.
func (s *Server) press(b ui.Button) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := s.widget.Press(c.UserContext(), b)
		state := s.widget.State()
		s.PublishState()
		if err != nil {
			s.logger.Debug("action failed", "button", b, "error", err)
			return c.Status(statusFor(err)).JSON(ErrorResponse{Error: err.Error(), State: &state})
		}
		return c.JSON(state)
	}
}

// statusFor maps an action error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, widget.ErrUnknownButton):
		return fiber.StatusNotFound
	case errors.Is(err, widget.ErrDisabled),
		errors.Is(err, capture.ErrSaveInFlight),
		errors.Is(err, monitor.ErrAlreadyMonitoring):
		return fiber.StatusConflict
	case errors.Is(err, capture.ErrMissingStudentID),
		errors.Is(err, capture.ErrIncompleteReference),
		errors.Is(err, monitor.ErrMissingStudentID):
		return fiber.StatusBadRequest
	case errors.Is(err, capture.ErrCameraUnavailable),
		errors.Is(err, camera.ErrNotOpen),
		errors.Is(err, camera.ErrNoFrame),
		errors.Is(err, camera.ErrClosed):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}

// handleEventsWS sends the current snapshot, then relays hub events.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	// The write pump has not started yet, so this is the only writer.
	if err := c.WriteJSON(StateEvent{Type: EventState, State: s.widget.State()}); err != nil {
		s.logger.Debug("initial state write failed", "error", err)
		c.Close()
		return
	}
	hub.Serve(s.eventsHub, c)
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	s.logger.Debug("camera client connected", "remote", c.RemoteAddr().String())
	hub.Serve(s.cameraHub, c)
}

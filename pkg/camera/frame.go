package camera

import (
	"context"
	"encoding/base64"
	"errors"
	"time"
)

// Sentinel errors for camera operations.
var (
	// ErrUnavailable is returned when the device cannot be opened or denied access.
	ErrUnavailable = errors.New("camera: device unavailable")

	// ErrNotOpen is returned by Capture before a successful Open.
	ErrNotOpen = errors.New("camera: not open")

	// ErrNoFrame is returned when the stream has not produced a frame yet.
	ErrNoFrame = errors.New("camera: no frame available")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("camera: closed")
)

// MIMEType of every captured frame.
const MIMEType = "image/jpeg"

// Frame is one encoded still image taken from the live stream.
// Treat Data as read-only once the frame is produced.
type Frame struct {
	Data       []byte
	Width      int
	Height     int
	CapturedAt time.Time
}

// DataURL renders the frame as a data: URL, the form the backend expects
// inside multipart fields.
func (f Frame) DataURL() string {
	return "data:" + MIMEType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Empty reports whether the frame carries no image bytes.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}

// Source is a live video stream that can be sampled for stills.
// Capture must be safe for concurrent use once Open has returned.
type Source interface {
	// Open acquires the device. It is called once per Source lifetime.
	Open(ctx context.Context) error

	// Capture encodes the current frame of the stream.
	Capture() (Frame, error)

	// Close releases the device.
	Close() error
}

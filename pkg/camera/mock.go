package camera

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"sync"
	"time"
)

// Mock implements Source for testing.
// All methods can be customized via function fields.
type Mock struct {
	// OpenFunc is called when Open is invoked. If nil, Open succeeds.
	OpenFunc func(ctx context.Context) error

	// CaptureFunc is called when Capture is invoked.
	// If nil, returns a small JPEG whose pixel shade encodes the sequence number.
	CaptureFunc func(seq int) (Frame, error)

	mu       sync.Mutex
	opened   bool
	closed   bool
	opens    int
	captures []time.Time
}

// NewMock creates a mock source with default behavior.
func NewMock() *Mock {
	return &Mock{}
}

// Open implements Source.
func (m *Mock) Open(ctx context.Context) error {
	m.mu.Lock()
	m.opens++
	fn := m.OpenFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.opened = true
	m.mu.Unlock()
	return nil
}

// Capture implements Source.
func (m *Mock) Capture() (Frame, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Frame{}, ErrClosed
	}
	if !m.opened {
		m.mu.Unlock()
		return Frame{}, ErrNotOpen
	}
	seq := len(m.captures)
	m.captures = append(m.captures, time.Now())
	fn := m.CaptureFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(seq)
	}
	return SolidFrame(uint8(seq%256), 16, 12), nil
}

// Close implements Source.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Opens returns how many times Open was called.
func (m *Mock) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// Captures returns how many frames were captured.
func (m *Mock) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.captures)
}

// CaptureTimes returns the time of every capture in order.
func (m *Mock) CaptureTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Time, len(m.captures))
	copy(out, m.captures)
	return out
}

// SolidFrame encodes a w×h gray JPEG of the given shade.
func SolidFrame(shade uint8, w, h int) Frame {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = shade
	}

	var buf bytes.Buffer
	// Encoding an in-memory image to a bytes.Buffer does not fail.
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})

	return Frame{
		Data:       buf.Bytes(),
		Width:      w,
		Height:     h,
		CapturedAt: time.Now(),
	}
}

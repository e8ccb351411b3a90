package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/proctorcam/internal/log"
)

// FirstFrameTimeout bounds how long Open waits for the stream to deliver.
const FirstFrameTimeout = 5 * time.Second

// Device is a Source backed by an OpenCV VideoCapture.
// A background loop keeps the most recent frame so Capture always encodes
// the current instant rather than a stale buffered frame.
type Device struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex // guards capture lifecycle
	capture *gocv.VideoCapture
	opened  bool
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup

	frameMu  sync.RWMutex
	latest   gocv.Mat
	released bool // latest has been closed
	width    int
	height   int
}

// NewDevice creates a device for cfg. Nothing is opened until Open.
func NewDevice(cfg Config, logger *slog.Logger) *Device {
	return &Device{
		config: cfg,
		logger: log.Or(logger).With("component", "camera", "device", cfg.Device),
		latest: gocv.NewMat(),
	}
}

// Open acquires the device and waits for the first frame.
func (d *Device) Open(ctx context.Context) error {
	if err := d.config.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.opened {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(d.config.Device)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: device %d did not open", ErrUnavailable, d.config.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.config.Height))

	d.capture = vc
	d.stop = make(chan struct{})
	d.wg.Add(1)
	go d.grabLoop()

	if err := d.waitFirstFrame(ctx); err != nil {
		close(d.stop)
		d.wg.Wait()
		vc.Close()
		d.capture = nil
		return err
	}

	d.opened = true
	d.frameMu.RLock()
	d.logger.Info("camera opened", "width", d.width, "height", d.height)
	d.frameMu.RUnlock()
	return nil
}

func (d *Device) waitFirstFrame(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, FirstFrameTimeout)
	defer cancel()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		d.frameMu.RLock()
		ready := !d.latest.Empty()
		d.frameMu.RUnlock()
		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: no frames: %v", ErrUnavailable, ctx.Err())
		case <-ticker.C:
		}
	}
}

// grabLoop reads frames as fast as the device delivers them.
func (d *Device) grabLoop() {
	defer d.wg.Done()

	scratch := gocv.NewMat()
	defer scratch.Close()

	failures := 0
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		if ok := d.capture.Read(&scratch); !ok || scratch.Empty() {
			failures++
			if failures == 50 {
				d.logger.Warn("camera stopped delivering frames")
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		failures = 0

		d.frameMu.Lock()
		scratch.CopyTo(&d.latest)
		d.width, d.height = scratch.Cols(), scratch.Rows()
		d.frameMu.Unlock()
	}
}

// Capture encodes the latest frame at native resolution.
func (d *Device) Capture() (Frame, error) {
	d.mu.Lock()
	opened, closed := d.opened, d.closed
	d.mu.Unlock()
	if closed {
		return Frame{}, ErrClosed
	}
	if !opened {
		return Frame{}, ErrNotOpen
	}

	d.frameMu.RLock()
	defer d.frameMu.RUnlock()

	// Close may have run since the check above.
	if d.released {
		return Frame{}, ErrClosed
	}
	if d.latest.Empty() {
		return Frame{}, ErrNoFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, d.latest, []int{gocv.IMWriteJpegQuality, d.config.Quality})
	if err != nil {
		return Frame{}, fmt.Errorf("camera: encode jpeg: %w", err)
	}
	defer buf.Close()

	raw := buf.GetBytes()
	data := make([]byte, len(raw))
	copy(data, raw)

	return Frame{
		Data:       data,
		Width:      d.width,
		Height:     d.height,
		CapturedAt: time.Now(),
	}, nil
}

// Close stops the grab loop and releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.capture != nil {
		close(d.stop)
		d.wg.Wait()
		d.capture.Close()
		d.capture = nil
	}

	d.frameMu.Lock()
	err := d.latest.Close()
	d.released = true
	d.frameMu.Unlock()
	return err
}

// Probe reports which device indexes in [0, max) can be opened.
func Probe(max int) []int {
	var found []int
	for i := 0; i < max; i++ {
		vc, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		if vc.IsOpened() {
			found = append(found, i)
		}
		vc.Close()
	}
	return found
}

// Package agent wires the camera, the proctoring client, the widget and
// the control surface together and owns their lifecycle.
package agent

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/proctorcam/internal/config"
	"github.com/teslashibe/proctorcam/pkg/camera"
	"github.com/teslashibe/proctorcam/pkg/monitor"
	"github.com/teslashibe/proctorcam/pkg/widget"
)

// Config holds everything the agent needs. Settings come from
// internal/config; Source and Backend replace the real camera and server
// client when set.
type Config struct {
	Settings config.Settings

	Source  camera.Source
	Backend widget.Backend
	Logger  *slog.Logger
}

// DefaultConfig returns a config built from default settings.
func DefaultConfig() Config {
	return Config{Settings: config.Default()}
}

// Validate checks the settings and the camera preset.
func (c Config) Validate() error {
	if problems := c.Settings.Validate(); len(problems) > 0 {
		return fmt.Errorf("agent: invalid config: %s", strings.Join(problems, "; "))
	}
	if _, err := c.CameraConfig(); err != nil {
		return err
	}
	return nil
}

// CameraConfig resolves the camera settings, applying the preset if one
// is named.
func (c Config) CameraConfig() (camera.Config, error) {
	s := c.Settings.Camera
	cfg := camera.Config{
		Device:  s.Device,
		Width:   s.Width,
		Height:  s.Height,
		Quality: s.Quality,
	}
	if s.Preset != "" {
		applied, ok := cfg.Apply(s.Preset)
		if !ok {
			return camera.Config{}, fmt.Errorf("agent: unknown camera preset %q (want one of %s)",
				s.Preset, strings.Join(camera.PresetNames(), ", "))
		}
		cfg = applied
	}
	if err := cfg.Err(); err != nil {
		return camera.Config{}, err
	}
	return cfg, nil
}

// MonitorConfig returns the monitoring cadence.
func (c Config) MonitorConfig() monitor.Config {
	return monitor.Config{
		TickInterval:   c.Settings.Monitor.TickInterval,
		FrameInterval:  c.Settings.Monitor.FrameInterval,
		FramesPerBatch: c.Settings.Monitor.FramesPerBatch,
	}
}

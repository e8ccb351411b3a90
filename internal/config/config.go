// Package config loads proctorcam settings from defaults, an optional
// config file, PROCTOR_* environment variables and bound CLI flags.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. PROCTOR_SERVER_URL.
const EnvPrefix = "PROCTOR"

// Default configuration values.
const (
	DefaultServerURL      = "http://localhost:5000"
	DefaultListen         = ":8080"
	DefaultLogLevel       = "info"
	DefaultLogCapacity    = 50
	DefaultPreviewFPS     = 5
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultCameraDevice   = 0
	DefaultCameraWidth    = 640
	DefaultCameraHeight   = 480
	DefaultCameraQuality  = 92
	DefaultTickInterval   = 5 * time.Second
	DefaultFrameInterval  = 250 * time.Millisecond
	DefaultFramesPerBatch = 10
	DefaultAlertDuration  = 3 * time.Second
)

// CameraSettings selects and shapes the capture device.
type CameraSettings struct {
	Device  int    `mapstructure:"device"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	Quality int    `mapstructure:"quality"` // JPEG quality 1-100
	Preset  string `mapstructure:"preset"`  // overrides width/height when set
}

// MonitorSettings controls the exam monitoring cadence.
type MonitorSettings struct {
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	FrameInterval  time.Duration `mapstructure:"frame_interval"`
	FramesPerBatch int           `mapstructure:"frames_per_batch"`
}

// AlertSettings controls the transient banner.
type AlertSettings struct {
	Duration time.Duration `mapstructure:"duration"`
}

// Settings is the fully resolved configuration.
type Settings struct {
	ServerURL   string          `mapstructure:"server_url"`
	Listen      string          `mapstructure:"listen"`
	LogLevel    string          `mapstructure:"log_level"`
	LogCapacity int             `mapstructure:"log_capacity"`
	PreviewFPS  int             `mapstructure:"preview_fps"`
	HTTPTimeout time.Duration   `mapstructure:"http_timeout"`
	Camera      CameraSettings  `mapstructure:"camera"`
	Monitor     MonitorSettings `mapstructure:"monitor"`
	Alert       AlertSettings   `mapstructure:"alert"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers every known key so env overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("listen", DefaultListen)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_capacity", DefaultLogCapacity)
	v.SetDefault("preview_fps", DefaultPreviewFPS)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("camera.device", DefaultCameraDevice)
	v.SetDefault("camera.width", DefaultCameraWidth)
	v.SetDefault("camera.height", DefaultCameraHeight)
	v.SetDefault("camera.quality", DefaultCameraQuality)
	v.SetDefault("camera.preset", "")
	v.SetDefault("monitor.tick_interval", DefaultTickInterval)
	v.SetDefault("monitor.frame_interval", DefaultFrameInterval)
	v.SetDefault("monitor.frames_per_batch", DefaultFramesPerBatch)
	v.SetDefault("alert.duration", DefaultAlertDuration)
}

// Load reads file (if non-empty) into v and decodes the result.
func Load(v *viper.Viper, file string) (Settings, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	s.ServerURL = strings.TrimRight(s.ServerURL, "/")

	if problems := s.Validate(); len(problems) > 0 {
		return Settings{}, fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return s, nil
}

// Default returns the built-in settings. It ignores the environment and
// any config file.
func Default() Settings {
	return Settings{
		ServerURL:   DefaultServerURL,
		Listen:      DefaultListen,
		LogLevel:    DefaultLogLevel,
		LogCapacity: DefaultLogCapacity,
		PreviewFPS:  DefaultPreviewFPS,
		HTTPTimeout: DefaultHTTPTimeout,
		Camera: CameraSettings{
			Device:  DefaultCameraDevice,
			Width:   DefaultCameraWidth,
			Height:  DefaultCameraHeight,
			Quality: DefaultCameraQuality,
		},
		Monitor: MonitorSettings{
			TickInterval:   DefaultTickInterval,
			FrameInterval:  DefaultFrameInterval,
			FramesPerBatch: DefaultFramesPerBatch,
		},
		Alert: AlertSettings{Duration: DefaultAlertDuration},
	}
}

// Validate checks value ranges and returns a list of problems, or nil.
func (s Settings) Validate() []string {
	var problems []string

	if u, err := url.Parse(s.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "server_url must be an absolute http(s) URL")
	}
	if s.Listen == "" {
		problems = append(problems, "listen must not be empty")
	}
	if s.LogCapacity < 1 {
		problems = append(problems, "log_capacity must be at least 1")
	}
	if s.PreviewFPS < 0 || s.PreviewFPS > 30 {
		problems = append(problems, "preview_fps must be between 0 and 30")
	}
	if s.Camera.Device < 0 {
		problems = append(problems, "camera.device must not be negative")
	}
	if s.Camera.Quality < 1 || s.Camera.Quality > 100 {
		problems = append(problems, "camera.quality must be between 1 and 100")
	}
	if s.Monitor.TickInterval <= 0 {
		problems = append(problems, "monitor.tick_interval must be positive")
	}
	if s.Monitor.FrameInterval <= 0 {
		problems = append(problems, "monitor.frame_interval must be positive")
	}
	if s.Monitor.FramesPerBatch < 1 {
		problems = append(problems, "monitor.frames_per_batch must be at least 1")
	}
	if s.Alert.Duration <= 0 {
		problems = append(problems, "alert.duration must be positive")
	}

	return problems
}

// proctorcam captures reference and monitoring frames from a webcam for an
// exam proctoring server, and serves a local control surface for the page.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teslashibe/proctorcam/internal/config"
	"github.com/teslashibe/proctorcam/internal/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error("proctorcam command failed", "error", err)
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// cli carries the shared viper instance and resolved settings.
type cli struct {
	v          *viper.Viper
	configFile string
	settings   config.Settings
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:           "proctorcam",
		Short:         "Webcam capture agent for exam proctoring",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(c.v, c.configFile)
			if err != nil {
				return err
			}
			c.settings = s
			log.Init(s.LogLevel)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (yaml, json or toml)")
	pf.String("server-url", config.DefaultServerURL, "proctoring server base URL")
	pf.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.Int("device", config.DefaultCameraDevice, "camera device index")
	pf.String("preset", "", "camera preset: default, vga, 720p, 1080p, lowband")
	pf.Int("quality", config.DefaultCameraQuality, "JPEG quality 1-100")
	c.bind(pf.Lookup("server-url"), "server_url")
	c.bind(pf.Lookup("log-level"), "log_level")
	c.bind(pf.Lookup("device"), "camera.device")
	c.bind(pf.Lookup("preset"), "camera.preset")
	c.bind(pf.Lookup("quality"), "camera.quality")

	serve := newServeCmd(c)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newDevicesCmd(c))
	root.AddCommand(newSnapshotCmd(c))
	root.AddCommand(newVersionCmd())
	return root
}

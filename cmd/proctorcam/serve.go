package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/teslashibe/proctorcam/internal/config"
	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/agent"
	"github.com/teslashibe/proctorcam/pkg/capture"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open the camera and serve the control surface (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := agent.New(agent.Config{Settings: c.settings, Logger: log.L()})
			if err != nil {
				return err
			}
			defer app.Shutdown()

			if err := app.Init(cmd.Context()); err != nil {
				// The page shows the blocking modal; keep serving it.
				if !errors.Is(err, capture.ErrCameraUnavailable) {
					return err
				}
				log.Warn("camera unavailable, serving without it", "error", err)
			}
			return app.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.String("listen", config.DefaultListen, "control surface listen address")
	f.Int("preview-fps", config.DefaultPreviewFPS, "camera preview frames per second, 0 disables")
	c.bind(f.Lookup("listen"), "listen")
	c.bind(f.Lookup("preview-fps"), "preview_fps")
	return cmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teslashibe/proctorcam/internal/log"
	"github.com/teslashibe/proctorcam/pkg/agent"
	"github.com/teslashibe/proctorcam/pkg/camera"
)

func newSnapshotCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture one JPEG from the camera to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			camCfg, err := agent.Config{Settings: c.settings}.CameraConfig()
			if err != nil {
				return err
			}
			dev := camera.NewDevice(camCfg, log.L())
			defer dev.Close()

			if err := dev.Open(cmd.Context()); err != nil {
				return err
			}
			frame, err := dev.Capture()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, frame.Data, 0o644); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %dx%d snapshot written to %s (%d bytes)\n",
				frame.Width, frame.Height, out, len(frame.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "snapshot.jpg", "output file")
	return cmd
}

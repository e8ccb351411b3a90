package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/proctorcam/pkg/camera"
)

func newDevicesCmd(c *cli) *cobra.Command {
	var max int
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List camera device indexes that can be opened",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			found := camera.Probe(max)
			if len(found) == 0 {
				fmt.Fprintf(out, "⚠️  No cameras found in indexes 0..%d\n", max-1)
				return nil
			}
			for _, idx := range found {
				marker := ""
				if idx == c.settings.Camera.Device {
					marker = " (configured)"
				}
				fmt.Fprintf(out, "📷 camera %d%s\n", idx, marker)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&max, "max", 10, "number of indexes to probe")
	return cmd
}

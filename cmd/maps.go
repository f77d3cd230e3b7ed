package cmd

import (
	"fmt"

	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
)

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "List the maps in the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		for i, cfg := range reg.Maps() {
			name := truncate.StringWithTail(cfg.Name, 24, "…")
			fmt.Fprintf(cmd.OutOrStdout(), "%3d. %-15s - %-24s (max_zoom: %d, size: %dx%d)\n",
				i+1, cfg.Namespace, name, cfg.MaxZoom, cfg.Size.X, cfg.Size.Y)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapsCmd)
}

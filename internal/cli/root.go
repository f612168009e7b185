package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root timewarp command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timewarp",
		Short: "Run a page's logical clock at a multiple of real time",
		Long: `Timewarp decouples logical time from wall-clock time: clock reads, elapsed
counters and timer scheduling all run at a configurable multiplier, and
continuous-media playback rates are kept in sync with it.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newGetCmd(),
		newSetCmd(),
		newInitCmd(),
	)

	return root
}

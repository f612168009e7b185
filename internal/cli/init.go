package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timewarplabs/timewarp/internal/config"
)

func newInitCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an example config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteExample(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "timewarp.toml", "output path")
	return cmd
}

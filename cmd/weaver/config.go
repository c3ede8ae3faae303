package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/ravi-parthasarathy/weaver/pkg/session"
)

// ─── config ───────────────────────────────────────────────────────────────────

func configCmd() *cobra.Command {
	var edit session.Config

	cmd := &cobra.Command{
		Use:   "config <file>",
		Short: "Show or edit a run config file",
		Long: `Config prints the run settings stored in a file. Any of the setting
flags changes that value and writes the file back; a missing file starts
from the defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg, err := session.LoadConfig(path)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				cfg = session.DefaultConfig()
			case err != nil:
				return err
			}

			flags := cmd.Flags()
			changed := false
			if flags.Changed("graph-name") {
				cfg.GraphName, changed = edit.GraphName, true
			}
			if flags.Changed("iterations") {
				cfg.Iterations, changed = edit.Iterations, true
			}
			if flags.Changed("rollout-steps") {
				cfg.RolloutSteps, changed = edit.RolloutSteps, true
			}
			if flags.Changed("num-channels") {
				cfg.NumChannels, changed = edit.NumChannels, true
			}
			if changed {
				if err := session.SaveConfig(path, cfg); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Graph Name:    %s\n", cfg.GraphName)
			fmt.Fprintf(out, "Iterations:    %d\n", cfg.Iterations)
			fmt.Fprintf(out, "Rollout Steps: %d\n", cfg.RolloutSteps)
			fmt.Fprintf(out, "Num Channels:  %d\n", cfg.NumChannels)
			return nil
		},
	}

	cmd.Flags().StringVar(&edit.GraphName, "graph-name", "", "graph name")
	cmd.Flags().IntVar(&edit.Iterations, "iterations", 0, "number of iterations")
	cmd.Flags().IntVar(&edit.RolloutSteps, "rollout-steps", 0, "rollout steps")
	cmd.Flags().IntVar(&edit.NumChannels, "num-channels", 0, "number of channels")
	return cmd
}

package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newSettingsCmd(s *session) *cobra.Command {
	var work, shortBreak, longBreak, cycles, interval float64

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change phase durations and cycle counts",
		Long: `Change phase durations and cycle counts. Only the flags given are sent.
The daemon clamps every value to its allowed range and applies new
durations to an idle timer immediately.

Examples:
  pomoctl settings --work 50 --short-break 10
  pomoctl settings --cycles 6 --long-break-interval 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch SettingsPatch
			flags := cmd.Flags()
			if flags.Changed("work") {
				patch.WorkMinutes = &work
			}
			if flags.Changed("short-break") {
				patch.ShortBreakMinutes = &shortBreak
			}
			if flags.Changed("long-break") {
				patch.LongBreakMinutes = &longBreak
			}
			if flags.Changed("cycles") {
				patch.TotalCycles = &cycles
			}
			if flags.Changed("long-break-interval") {
				patch.LongBreakInterval = &interval
			}
			if patch == (SettingsPatch{}) {
				return errors.New("nothing to change: pass at least one setting flag")
			}

			view, err := s.client.UpdateSettings(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return s.printView(cmd, view)
		},
	}

	cmd.Flags().Float64Var(&work, "work", 0, "work phase length in minutes")
	cmd.Flags().Float64Var(&shortBreak, "short-break", 0, "short break length in minutes")
	cmd.Flags().Float64Var(&longBreak, "long-break", 0, "long break length in minutes")
	cmd.Flags().Float64Var(&cycles, "cycles", 0, "work phases per run")
	cmd.Flags().Float64Var(&interval, "long-break-interval", 0, "work phases between long breaks")
	return cmd
}

package commands

import (
	"github.com/ashureev/juice-coach/internal/printer"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var external bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear all per-challenge progress",
		Long: `Clear hint progress and notes for every challenge. The competency mode and
onboarding status are kept.

A plain reset also notifies REMOTE_RESET_URL when it is set. --external
records that Juice Shop itself was reset and skips the notification.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if external {
				e.session.ResetOnExternalSignal(cmd.Context())
				printer.Success(out, "Progress cleared after Juice Shop reset\n")
				return nil
			}
			e.session.ResetHistory(cmd.Context())
			printer.Success(out, "Progress cleared (mode %s kept)\n", e.session.State().Mode)
			if e.cfg.Remote.ResetURL != "" {
				printer.Step(out, "Notifying %s\n", e.cfg.Remote.ResetURL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&external, "external", false, "Treat as a Juice Shop progress wipe")
	return cmd
}

package commands

import (
	"errors"
	"fmt"

	"github.com/ashureev/juice-coach/internal/coach"
	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/ashureev/juice-coach/internal/policy"
	"github.com/ashureev/juice-coach/internal/printer"
	"github.com/spf13/cobra"
)

func newModeCmd() *cobra.Command {
	var onboard bool
	cmd := &cobra.Command{
		Use:   "mode [MODE]",
		Short: "Show or change the competency mode",
		Long: `Without an argument, list the modes and mark the current one.
With an argument, switch to that mode (case-insensitive).

Modes:
  Beginner - every hint can be revealed
  Explorer - up to half of each challenge's hints
  Trainer  - no hints

Examples:
  coach mode
  coach mode explorer
  coach mode trainer --onboard`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				current := e.session.State().Mode
				for _, m := range domain.Modes() {
					marker := " "
					if m == current {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %-9s hints for a 4-hint challenge: %d\n", marker, m, policy.MaxAllowedHints(m, 4))
				}
				return nil
			}

			// Typed input is folded to the canonical name. Anything else
			// goes through unchanged so the session rejects it.
			name := args[0]
			if m, parseErr := domain.ParseMode(name); parseErr == nil {
				name = string(m)
			}
			if onboard {
				err = e.session.CompleteCompetencySelection(cmd.Context(), name)
			} else {
				err = e.session.SetMode(cmd.Context(), name)
			}
			var verr *coach.ValidationError
			if errors.As(err, &verr) {
				return printer.Error(cmd.ErrOrStderr(), "Unknown mode", verr.Error(),
					"use one of Beginner, Explorer, Trainer")
			}
			if err != nil {
				return err
			}
			printer.Success(out, "Mode set to %s\n", e.session.State().Mode)
			return nil
		},
	}
	cmd.Flags().BoolVar(&onboard, "onboard", false, "Also mark the competency selection as done")
	return cmd
}

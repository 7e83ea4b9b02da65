package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/ashureev/juice-coach/internal/printer"
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the stored coaching state",
		Long: `Show the competency mode, onboarding status and per-challenge progress.

Examples:
  coach state
  coach state --json | jq '.challengeState'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			state := e.session.State()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}
			printState(out, state, e.session.InstallationID())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw state document")
	return cmd
}

func printState(w io.Writer, state domain.CoachingState, installationID string) {
	printer.Heading(w, "Mode: %s\n", state.Mode)
	onboarding := "pending"
	if state.CompetencySelected {
		onboarding = "done"
	}
	fmt.Fprintf(w, "Onboarding: %s\n", onboarding)
	fmt.Fprintf(w, "Minimized: %t\n", state.Minimized)
	fmt.Fprintf(w, "Installation: %s\n", installationID)

	if len(state.ChallengeState) == 0 {
		fmt.Fprintln(w, "\nNo challenge progress recorded.")
		return
	}

	keys := make([]string, 0, len(state.ChallengeState))
	for k := range state.ChallengeState {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fmt.Fprintf(w, "\n%-32s %-6s %s\n", "CHALLENGE", "HINTS", "NOTES")
	for _, k := range keys {
		p := state.ChallengeState[k]
		fmt.Fprintf(w, "%-32s %-6d %s\n", k, p.MaxHintSeen, truncate(p.Notes, 40))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

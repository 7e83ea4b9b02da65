package commands

import (
	"encoding/json"
	"fmt"

	"github.com/ashureev/juice-coach/internal/catalog"
	"github.com/ashureev/juice-coach/internal/juiceshop"
	"github.com/ashureev/juice-coach/internal/printer"
	"github.com/ashureev/juice-coach/internal/recommend"
	"github.com/spf13/cobra"
)

func newRecommendCmd() *cobra.Command {
	var (
		url    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend the next challenge from a live Juice Shop",
		Long: `Fetch the challenge list from Juice Shop, score each category by hints
used against challenges solved, and print the easiest unsolved challenge of
the weakest category.

Examples:
  coach recommend
  coach recommend --url http://juice.local:3000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if url == "" {
				url = e.cfg.JuiceShopURL
			}
			client := juiceshop.NewClient(url, e.cfg.Timeout.Remote, newLogger())
			challenges, err := client.Challenges(cmd.Context())
			if err != nil {
				return printer.Error(cmd.ErrOrStderr(), "Juice Shop unreachable", err.Error(),
					fmt.Sprintf("check that Juice Shop is running at %s", url))
			}

			hints, err := catalog.Load(e.cfg.HintCatalogPath)
			if err != nil {
				return printer.Error(cmd.ErrOrStderr(), "Hint catalog unreadable", err.Error(),
					"check HINT_CATALOG_PATH")
			}

			state := e.session.State()
			scores := recommend.Scores(challenges, state)
			next, ok := recommend.Recommend(challenges, state)

			out := cmd.OutOrStdout()
			if asJSON {
				resp := map[string]interface{}{"scores": scores, "recommendation": nil}
				if ok {
					resp["recommendation"] = next
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			if len(challenges) == 0 {
				printer.Warning(out, "Juice Shop at %s reported no challenges.\n", url)
				return nil
			}

			fmt.Fprintf(out, "%-36s %-6s %-7s %s\n", "CATEGORY", "HINTS", "SOLVED", "SCORE")
			for _, s := range scores {
				fmt.Fprintf(out, "%-36s %-6d %-7d %.2f\n", s.Category, s.TotalHintsUsed, s.SolvedCount, s.Score)
			}
			fmt.Fprintln(out)
			if !ok {
				printer.Success(out, "Every challenge is solved.\n")
				return nil
			}
			printer.Step(out, "Next: %s (%s, difficulty %d)\n", next.Name, next.Category, next.Difficulty)
			fmt.Fprintf(out, "  %s\n", hints.Tip(next.Category))
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Juice Shop base URL (defaults to JUICE_SHOP_URL)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print scores and recommendation as JSON")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"

	"steam-insights-backend/internal/blueocean"
)

func (c *CLI) newMarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market <tag> [tag...]",
		Short: "Score the market niche at the intersection of up to five tags",
		Args:  cobra.RangeArgs(1, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			tuningPath, _ := cmd.Flags().GetString("tuning")
			tuning, err := blueocean.LoadTuning(tuningPath)
			if err != nil {
				return err
			}
			responseCache, err := c.cache()
			if err != nil {
				return err
			}
			svc := blueocean.NewService(c.spyClient(cmd), responseCache, tuning)
			score, err := svc.Analyze(cmd.Context(), args)
			if err != nil {
				return err
			}
			return c.printJSON(score)
		},
	}
	cmd.Flags().String("tuning", c.cfg.MarketTuningFile, "YAML file overriding the scoring tuning")
	return cmd
}

// Package commands implements the insightsctl command tree.
package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"steam-insights-backend/internal/bootstrap"
	"steam-insights-backend/internal/cache"
	"steam-insights-backend/internal/shared/config"
	"steam-insights-backend/internal/steam"
)

// CLI is the insightsctl command line.
type CLI struct {
	cfg     config.Config
	out     io.Writer
	rootCmd *cobra.Command
}

// New creates the command tree. Output is written to out as JSON.
func New(cfg config.Config, out io.Writer) *CLI {
	rootCmd := &cobra.Command{
		Use:           "insightsctl",
		Short:         "Diagnose Steam store pages and score market niches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("store-url", cfg.SteamStoreURL, "Steam store base URL")
	rootCmd.PersistentFlags().String("spy-url", cfg.SteamSpyURL, "SteamSpy base URL")
	rootCmd.SetOut(out)

	c := &CLI{cfg: cfg, out: out, rootCmd: rootCmd}
	rootCmd.AddCommand(c.newDoctorCmd())
	rootCmd.AddCommand(c.newMarketCmd())
	rootCmd.AddCommand(c.newTTLsCmd())
	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

func (c *CLI) cache() (*cache.Cache, error) {
	return bootstrap.BuildCache(c.cfg)
}

func (c *CLI) storeClient(cmd *cobra.Command) *steam.StoreClient {
	u, _ := cmd.Flags().GetString("store-url")
	return steam.NewStoreClient(steam.WithBaseURL(u))
}

func (c *CLI) spyClient(cmd *cobra.Command) *steam.SpyClient {
	u, _ := cmd.Flags().GetString("spy-url")
	return steam.NewSpyClient(steam.WithBaseURL(u))
}

func (c *CLI) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

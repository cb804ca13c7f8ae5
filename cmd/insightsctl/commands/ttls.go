package commands

import (
	"sort"

	"github.com/spf13/cobra"
)

type ttlRow struct {
	Op      string  `json:"op"`
	TTL     string  `json:"ttl"`
	Seconds float64 `json:"seconds"`
}

func (c *CLI) newTTLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ttls",
		Short: "Print the effective cache TTL per operation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			responseCache, err := c.cache()
			if err != nil {
				return err
			}
			rows := make([]ttlRow, 0)
			for op, ttl := range responseCache.TTLs() {
				rows = append(rows, ttlRow{Op: string(op), TTL: ttl.String(), Seconds: ttl.Seconds()})
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].Op < rows[j].Op })
			return c.printJSON(rows)
		},
	}
}

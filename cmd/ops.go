package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brightpath/onboard/internal/store"
)

var (
	opsHours       int
	opsShowAll     bool
	opsErrorsLimit int
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "Inspect operation tracking and the error log",
}

var opsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show aggregate usage, cost and success rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		since := time.Now().UTC().Add(-time.Duration(opsHours) * time.Hour)
		summary, err := st.SummarizeOperations(ctx, since)
		if err != nil {
			return err
		}

		fmt.Printf("Window:        last %dh\n", opsHours)
		fmt.Printf("Operations:    %d (%d succeeded, %d failed)\n", summary.Total, summary.Succeeded, summary.Failed)
		fmt.Printf("Success rate:  %.1f%%\n", summary.SuccessRate*100)
		fmt.Printf("Tokens:        %d in / %d out\n", summary.InputTokens, summary.OutputTokens)
		fmt.Printf("Avg latency:   %dms\n", summary.AvgLatencyMs)
		fmt.Printf("Est. cost:     $%.4f\n", summary.CostUSD)
		return nil
	},
}

var opsErrorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "List tracked error events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		events, err := st.ListErrors(ctx, opsShowAll, opsErrorsLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("no error events")
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	},
}

var opsResolveCmd = &cobra.Command{
	Use:   "resolve <event-id>",
	Short: "Mark an error event as resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ResolveError(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("resolved %s\n", args[0])
		return nil
	},
}

// openStore opens and migrates the configured store without building
// the full pipeline environment.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func init() {
	opsSummaryCmd.Flags().IntVar(&opsHours, "hours", 24, "lookback window in hours")
	opsErrorsCmd.Flags().BoolVar(&opsShowAll, "all", false, "include resolved events")
	opsErrorsCmd.Flags().IntVar(&opsErrorsLimit, "limit", 50, "max events to list")
	opsCmd.AddCommand(opsSummaryCmd)
	opsCmd.AddCommand(opsErrorsCmd)
	opsCmd.AddCommand(opsResolveCmd)
	rootCmd.AddCommand(opsCmd)
}

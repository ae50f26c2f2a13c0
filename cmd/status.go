package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/LeadTechMaster/API/internal/cache"
	"github.com/LeadTechMaster/API/internal/cost"
	"github.com/LeadTechMaster/API/internal/model"
	"github.com/LeadTechMaster/API/internal/source"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent provider calls and per-endpoint freshness",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		calls, err := st.RecentCalls(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		used, err := st.CountCalls(ctx, time.Now().Add(-usageWindow))
		if err != nil {
			return eris.Wrap(err, "status")
		}
		usage := cost.NewCalculator(cfg.SerpAPI.Plan).Usage(used)

		c := newCache(st, nil)
		defaults := dashboardDefaults(cfg.Dashboard)
		var rows []freshnessRow
		for _, e := range source.NewRegistry().Endpoints() {
			f, err := c.IsFresh(ctx, e.Key(e.Default(defaults)), c.FreshFor())
			if err != nil {
				return eris.Wrapf(err, "status: freshness of %s", e.Name)
			}
			rows = append(rows, freshnessRow{Slug: e.Slug, Freshness: f})
		}

		out := cmd.OutOrStdout()
		formatCalls(out, calls)
		fmt.Fprintln(out)
		formatFreshness(out, rows)
		fmt.Fprintln(out)
		formatUsage(out, usage)
		return nil
	},
}

// usageWindow approximates one billing month.
const usageWindow = 30 * 24 * time.Hour

type freshnessRow struct {
	Slug string
	cache.Freshness
}

func formatCalls(w io.Writer, calls []model.CallRecord) {
	if len(calls) == 0 {
		fmt.Fprintln(w, "No provider calls recorded.")
		return
	}
	tw := newTable(w)
	writeRow(tw, "TIME", "ENDPOINT", "QUERY", "STATUS", "MS", "ERROR")
	for _, c := range calls {
		writeRow(tw,
			c.CreatedAt.Local().Format(time.DateTime),
			c.Endpoint, c.Query, string(c.Status),
			strconv.FormatInt(c.ResponseTimeMS, 10), c.ErrorMessage,
		)
	}
	tw.Flush() //nolint:errcheck
}

func formatFreshness(w io.Writer, rows []freshnessRow) {
	tw := newTable(w)
	writeRow(tw, "ENDPOINT", "FRESH", "AGE")
	for _, r := range rows {
		age := "never"
		if r.AgeMinutes != nil {
			age = fmt.Sprintf("%dm", *r.AgeMinutes)
		}
		writeRow(tw, r.Slug, strconv.FormatBool(r.IsFresh), age)
	}
	tw.Flush() //nolint:errcheck
}

func formatUsage(w io.Writer, u cost.Usage) {
	fmt.Fprintf(w, "Provider searches (30d): %d of %d (%.1f%%), %d remaining, est. $%.2f\n",
		u.Calls, u.Included, u.UsedPct, u.Remaining, u.EstimatedUSD)
}

func init() {
	statusCmd.Flags().Int("limit", 20, "number of recent calls to show")
	rootCmd.AddCommand(statusCmd)
}

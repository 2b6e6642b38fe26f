package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the scrape ledger",
	Long:  "Commands for listing, viewing, and summarizing scrape runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scrape runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		src, _ := cmd.Flags().GetString("source")
		status, _ := cmd.Flags().GetString("status")
		lg, _ := cmd.Flags().GetString("league")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListScrapeRuns(ctx, store.RunFilter{
			Source: src,
			Status: model.RunStatus(status),
			League: lg,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetScrapeRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		if run == nil {
			return eris.Errorf("no run with id %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize ledger outcomes per source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		stats, err := st.ScrapeRunStats(ctx)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		if len(stats) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		formatRunStats(os.Stdout, stats)
		return nil
	},
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.ScrapeRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tTYPE\tLEAGUE\tSTATUS\tPROC\tCREATED\tUPDATED\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t----\t------\t------\t----\t-------\t-------\t-------\t--------")

	for _, r := range runs {
		dur := "-"
		if r.CompletedAt != nil {
			dur = r.Duration().Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			shortID(r.ID), r.Source, r.ScrapeType, r.League, r.Status,
			r.RecordsProcessed, r.RecordsCreated, r.RecordsUpdated,
			r.StartedAt.Format("2006-01-02 15:04"), dur)
	}
	_ = w.Flush()
}

func formatRunStats(out io.Writer, stats []store.RunStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tRUNS\tOK\tPARTIAL\tFAILED\tPROCESSED\tCREATED\tUPDATED")
	for _, s := range stats {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			s.Source, s.Total, s.Succeeded, s.Partial, s.Failed,
			s.Processed, s.Created, s.Updated)
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsListCmd.Flags().String("source", "", "filter by source")
	runsListCmd.Flags().String("status", "", "filter by status (started, success, partial, failed)")
	runsListCmd.Flags().String("league", "", "filter by league code")
	runsListCmd.Flags().Int("limit", 50, "max runs to list")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

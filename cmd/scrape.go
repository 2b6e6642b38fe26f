package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fairway-media/golftracker/internal/league"
	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/pipeline"
)

var (
	scrapeLeague     string
	scrapeSource     string
	scrapeYear       int
	scrapeTournament string
	scrapeLimit      int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape one source into the canonical store",
	Long:  "Commands for scraping rosters, tournament schedules, and leaderboard results from the configured sources.",
}

var scrapeRosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Scrape a league's player roster",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScrape(cmd, model.KindPlayer)
	},
}

var scrapeTournamentsCmd = &cobra.Command{
	Use:   "tournaments",
	Short: "Scrape a league's tournament schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScrape(cmd, model.KindTournament)
	},
}

var scrapeResultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Scrape one tournament's leaderboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scrapeTournament == "" {
			return eris.New("--tournament is required for a results scrape")
		}
		return runScrape(cmd, model.KindResult)
	},
}

func runScrape(cmd *cobra.Command, kind model.RecordKind) error {
	ctx := cmd.Context()

	p, st, err := initPipeline(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	summary, err := p.Run(ctx, pipeline.RunSpec{
		League:             scrapeLeague,
		Source:             scrapeSource,
		Kind:               kind,
		Year:               scrapeYear,
		TournamentNativeID: scrapeTournament,
		Limit:              scrapeLimit,
	})
	if err != nil {
		return eris.Wrapf(err, "scrape %s", kind)
	}

	fmt.Fprint(os.Stdout, formatSummary(summary))
	return nil
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Scrape a full season: schedule plus every completed leaderboard",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if scrapeYear == 0 {
			return eris.New("--year is required for a backfill")
		}

		p, st, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		summary, err := p.Backfill(ctx, scrapeLeague, scrapeYear)
		if err != nil {
			return eris.Wrapf(err, "backfill %s %d", scrapeLeague, scrapeYear)
		}
		fmt.Fprint(os.Stdout, formatSummary(summary))
		return nil
	},
}

// formatSummary prints what a run touched, one line per concern.
func formatSummary(s *model.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "status:    %s\n", s.Status)
	fmt.Fprintf(&b, "processed: %d\n", s.Processed)
	fmt.Fprintf(&b, "created:   %d\n", s.Created)
	fmt.Fprintf(&b, "updated:   %d\n", s.Updated)
	if len(s.Errors) > 0 {
		fmt.Fprintf(&b, "errors:    %d sampled\n", len(s.Errors))
		for _, e := range s.Errors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	return b.String()
}

func init() {
	for _, c := range []*cobra.Command{scrapeRosterCmd, scrapeTournamentsCmd, scrapeResultsCmd, backfillCmd} {
		c.Flags().StringVar(&scrapeLeague, "league", league.PGA, "league code ("+strings.Join(league.Codes(), ", ")+")")
	}
	for _, c := range []*cobra.Command{scrapeRosterCmd, scrapeTournamentsCmd, scrapeResultsCmd} {
		c.Flags().StringVar(&scrapeSource, "source", "", "connector to scrape with (default: the league's authoritative source)")
		c.Flags().IntVar(&scrapeLimit, "limit", 0, "cap the number of records (0 = no cap)")
	}
	scrapeTournamentsCmd.Flags().IntVar(&scrapeYear, "year", 0, "season year (0 = current)")
	scrapeResultsCmd.Flags().StringVar(&scrapeTournament, "tournament", "", "tournament id in the source's id space")
	backfillCmd.Flags().IntVar(&scrapeYear, "year", 0, "season year")

	scrapeCmd.AddCommand(scrapeRosterCmd, scrapeTournamentsCmd, scrapeResultsCmd)
	rootCmd.AddCommand(scrapeCmd, backfillCmd)
}

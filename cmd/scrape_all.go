package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fairway-media/golftracker/internal/league"
	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/pipeline"
)

var scrapeAllYear int

// scrape-all fans out over the active leagues. Per-host pacing lives in
// the shared fetcher, so concurrent leagues on the same API still respect
// the politeness floor.
var scrapeAllCmd = &cobra.Command{
	Use:   "scrape-all",
	Short: "Scrape rosters and schedules for every active league",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		p, st, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var mu sync.Mutex
		totals := make(map[string]*model.RunSummary)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(3)
		for _, lg := range league.Active() {
			g.Go(func() error {
				for _, kind := range []model.RecordKind{model.KindPlayer, model.KindTournament} {
					summary, err := p.Run(gctx, pipeline.RunSpec{
						League: lg.Code,
						Kind:   kind,
						Year:   scrapeAllYear,
					})
					if err != nil {
						// one league failing shouldn't stop the others
						zap.L().Error("league scrape failed",
							zap.String("league", lg.Code),
							zap.String("kind", string(kind)),
							zap.Error(err))
						continue
					}
					mu.Lock()
					key := lg.Code + "/" + string(kind)
					totals[key] = summary
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, lg := range league.Active() {
			for _, kind := range []model.RecordKind{model.KindPlayer, model.KindTournament} {
				key := lg.Code + "/" + string(kind)
				if s, ok := totals[key]; ok {
					fmt.Fprintf(os.Stdout, "%-22s %s  processed=%d created=%d updated=%d\n",
						key, s.Status, s.Processed, s.Created, s.Updated)
				}
			}
		}
		return nil
	},
}

func init() {
	scrapeAllCmd.Flags().IntVar(&scrapeAllYear, "year", 0, "season year for schedules (0 = current)")
	rootCmd.AddCommand(scrapeAllCmd)
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fairway-media/golftracker/internal/enrich"
)

var (
	enrichLimit    int
	enrichPlayerID int64
	enrichConfig   string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill missing biographical fields through the source cascade",
	Long:  "Walks players with incomplete bios through Wikipedia, web search, and the Claude fallback, asking each source only for the fields still missing.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cascade, st, err := initCascade(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if enrichConfig != "" {
			cc, err := enrich.LoadConfig(enrichConfig)
			if err != nil {
				return err
			}
			cascade.Configure(cc)
		}

		if enrichPlayerID > 0 {
			report, err := cascade.EnrichPlayer(ctx, enrichPlayerID)
			if err != nil {
				return eris.Wrapf(err, "enrich player %d", enrichPlayerID)
			}
			printReport(report)
			return nil
		}

		reports, err := cascade.EnrichMissing(ctx, enrichLimit)
		if err != nil {
			return eris.Wrap(err, "enrich")
		}
		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No players with missing bio fields.")
			return nil
		}
		for i := range reports {
			printReport(&reports[i])
		}
		return nil
	},
}

func printReport(r *enrich.PlayerReport) {
	line := fmt.Sprintf("%s (%d):", r.Name, r.PlayerID)
	if len(r.Filled) > 0 {
		line += " filled " + strings.Join(r.Filled, ", ")
	}
	if len(r.Missing) > 0 {
		line += " still missing " + strings.Join(r.Missing, ", ")
	}
	if len(r.Filled) == 0 && len(r.Missing) == 0 {
		line += " complete"
	}
	fmt.Fprintln(os.Stdout, line)
}

// -- enrich batch --

var enrichBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Submit missing bios to the Claude batch API",
	Long:  "Batches every incomplete bio into one Claude batch job at half the per-token price. Collect the answers later with enrich collect.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		be := enrich.NewBatchEnricher(initAnthropic(), cfg.Anthropic.Model, st, initEngine(st))
		batchID, count, err := be.Submit(ctx, enrichLimit)
		if err != nil {
			return eris.Wrap(err, "enrich batch")
		}
		if count == 0 {
			fmt.Fprintln(os.Stderr, "No players with missing bio fields.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "Submitted %d players as batch %s\n", count, batchID)
		return nil
	},
}

var enrichCollectCmd = &cobra.Command{
	Use:   "collect <batch-id>",
	Short: "Collect a finished Claude batch and apply the answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		be := enrich.NewBatchEnricher(initAnthropic(), cfg.Anthropic.Model, st, initEngine(st))
		applied, err := be.Collect(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "enrich collect %s", args[0])
		}
		fmt.Fprintf(os.Stdout, "Applied bio fields to %d players\n", applied)
		return nil
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 100, "max players to enrich")
	enrichCmd.Flags().Int64Var(&enrichPlayerID, "player", 0, "enrich one player by id")
	enrichCmd.Flags().StringVar(&enrichConfig, "cascade-config", "", "YAML file restricting which sources fill which fields")
	enrichBatchCmd.Flags().IntVar(&enrichLimit, "limit", 100, "max players to submit")

	enrichCmd.AddCommand(enrichBatchCmd, enrichCollectCmd)
	rootCmd.AddCommand(enrichCmd)
}

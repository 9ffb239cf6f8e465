package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"syscall"

	"talentinsight/common/database"
	"talentinsight/common/rawstore"
	"talentinsight/services/processing/internal/catalog"
	"talentinsight/services/processing/internal/cleaner"
	"talentinsight/services/processing/internal/config"
	"talentinsight/services/processing/internal/dimension"
	"talentinsight/services/processing/internal/pipeline"
	"talentinsight/services/processing/internal/warehouse"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "etl",
		Short:         "Clean the raw store and load the labor-market warehouse",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg

			zcfg := zap.NewDevelopmentConfig()
			if !a.verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
			}
			a.logger, err = zcfg.Build()
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(a.runCmd(), a.schemaCmd(), a.datesCmd(), a.historyCmd())
	return root
}

func (a *app) loader(ctx context.Context) (*warehouse.Loader, func(), error) {
	db, err := database.NewSQLite(ctx, a.cfg.WarehousePath, a.logger)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load(a.cfg.CatalogPath)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	horizon, err := a.cfg.Horizon()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return warehouse.NewLoader(db, cat, horizon, a.logger), func() { db.Close() }, nil
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the run report",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, a.cfg.RunTimeout)
			defer cancel()

			store, err := rawstore.Open(ctx, a.cfg.RawStore(), a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			loader, closeDB, err := a.loader(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			cat, err := catalog.Load(a.cfg.CatalogPath)
			if err != nil {
				return err
			}

			p := pipeline.New(store, cleaner.New(cat, a.logger), loader,
				pipeline.Options{Concurrency: a.cfg.CleanConcurrency}, a.logger)
			report, runErr := p.Run(ctx)
			if report != nil {
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the warehouse tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeDB, err := a.loader(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()
			return loader.Migrate(cmd.Context())
		},
	}
}

func (a *app) datesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "Print the date dimension for the configured horizon as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.cfg.Horizon()
			if err != nil {
				return err
			}
			return writeDates(cmd.OutOrStdout(), dimension.GenerateDates(h.Start, h.End()))
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent load runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, closeDB, err := a.loader(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()
			if err := loader.Migrate(cmd.Context()); err != nil {
				return err
			}

			runs, err := loader.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := csv.NewWriter(cmd.OutOrStdout())
			w.Write([]string{"run_id", "started_at", "status", "error"})
			for _, r := range runs {
				w.Write([]string{r.ID, r.StartedAt.Format("2006-01-02T15:04:05Z07:00"), r.Status, r.Error})
			}
			w.Flush()
			return w.Error()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}

func writeDates(out io.Writer, dates []dimension.Date) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"date_key", "day", "month", "quarter", "year", "day_week"}); err != nil {
		return err
	}
	for _, d := range dates {
		if err := w.Write([]string{
			d.Key,
			strconv.Itoa(d.Day),
			strconv.Itoa(d.Month),
			strconv.Itoa(d.Quarter),
			strconv.Itoa(d.Year),
			strconv.Itoa(d.Weekday),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

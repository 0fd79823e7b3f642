package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/family-scheduler/internal/application"
	"github.com/example/family-scheduler/internal/config"
	"github.com/example/family-scheduler/internal/ics"
	"github.com/example/family-scheduler/internal/persistence/sqlite"
	"github.com/example/family-scheduler/internal/timeparse"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <start-date> <end-date>",
		Short: "Export a date range as an iCalendar feed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cfg, args[0], args[1], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the feed to a file instead of stdout")
	return cmd
}

func runExport(ctx context.Context, cfg config.Config, startRaw, endRaw, output string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	startDate, err := timeparse.ParseDate("start-date", startRaw)
	if err != nil {
		return err
	}
	endDate, err := timeparse.ParseDate("end-date", endRaw)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("resolve timezone: %w", err)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN, loc)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer storage.Close()

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	calendar := application.NewCalendarService(storage.Events, storage.Users, nil, loc, nil, nil)

	events, err := calendar.AgendaForPeriod(ctx, startDate, endDate)
	if err != nil {
		return err
	}

	feed := ics.Export(events)
	if output == "" {
		fmt.Fprint(os.Stdout, feed)
		return nil
	}
	if err := os.WriteFile(output, []byte(feed), 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/family-scheduler/internal/application"
	"github.com/example/family-scheduler/internal/config"
	"github.com/example/family-scheduler/internal/logging"
	"github.com/example/family-scheduler/internal/persistence/sqlite"
)

func newSeedCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed <users.yaml>",
		Short: "Load household members from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "seed even when users already exist")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, path string, force bool) error {
	logger := logging.New(os.Stderr, slog.LevelInfo)
	if ctx == nil {
		ctx = context.Background()
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

	users := application.NewUserService(storage.Users, nil)

	if !force {
		count, err := users.CountUsers(ctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if count > 0 {
			logger.Info("users already present, nothing to do", "count", count)
			return nil
		}
	}

	seeds, err := config.LoadSeedUsers(path)
	if err != nil {
		return err
	}

	for _, seed := range seeds {
		input := application.UserInput{
			ActorID:        seed.ActorID,
			Name:           seed.Name,
			PartnerActorID: seed.PartnerActorID,
			DigestTime:     seed.DigestTime,
		}
		if _, err := users.RegisterUser(ctx, input); err != nil {
			return fmt.Errorf("seed user %d: %w", seed.ActorID, err)
		}
		logger.Info("seeded user", "actor_id", seed.ActorID, "name", seed.Name)
	}
	return nil
}

package main

import (
	"context"
	"fmt"

	"lostlink/internal/db"
	"lostlink/internal/seed"
	"lostlink/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with initial data",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		usersRepo := store.NewUserRepository(pool)
		itemsRepo := store.NewItemRepository(pool)

		logrus.Info("Seeding users...")
		if err := seed.SeedUsers(ctx, usersRepo); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		logrus.Info("Seeding items...")
		if err := seed.SeedItems(ctx, itemsRepo); err != nil {
			return fmt.Errorf("failed to seed items: %w", err)
		}

		logrus.Info("Seed complete")

		return nil
	},
}

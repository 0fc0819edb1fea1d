package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"shareit/internal/database"
	"shareit/internal/seed"
	"shareit/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		dbPath   = flag.String("db", "./data/shareit.db", "path to sqlite db")
	)
	flag.Parse()

	fixtures, err := seed.Load(*seedPath)
	if err != nil {
		return err
	}
	if len(fixtures.Users) == 0 {
		return fmt.Errorf("no users in %s", *seedPath)
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := seed.Apply(ctx, service.NewUserService(db, &logger), service.NewItemService(db, &logger), fixtures, &logger)
	if err != nil {
		return err
	}

	fmt.Printf("done: users=%d items=%d skipped=%d\n", res.Users, res.Items, res.Skipped)
	return nil
}

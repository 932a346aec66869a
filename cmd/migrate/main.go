// Command migrate creates or updates the gallery schema.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"linesen/internal/config"
	"linesen/internal/database"
	"linesen/internal/observability"
	"linesen/internal/seed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|recount>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	observability.Logger = observability.NewLogger(cfg.Env)

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("schema applied")
	case "recount":
		if err := seed.RecountLikes(db); err != nil {
			return fmt.Errorf("recount likes: %w", err)
		}
		log.Println("like counts recomputed from like rows")
	default:
		return usage()
	}
	return nil
}

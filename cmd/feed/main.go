// Command feed prints the gallery feed as seen by an optional access token.
// It is a smoke test for a deployed stack.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"linesen/internal/config"
	"linesen/internal/gallery"
)

func main() {
	token := flag.String("token", "", "Access token to view the feed as")
	like := flag.Uint("like", 0, "Toggle the like on this artwork before printing")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := gallery.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open gallery: %v", err)
	}
	defer func() { _ = rt.Close(context.Background()) }()

	client := rt.NewClient()
	if err := client.Start(ctx); err != nil {
		log.Printf("Session unavailable: %v", err)
	}
	defer client.Close()

	if *token != "" {
		if _, err := rt.Provider.SignIn(ctx, *token); err != nil {
			log.Fatalf("Sign-in failed: %v", err)
		}
	}

	if *like != 0 {
		if _, err := client.Feed(ctx); err != nil {
			log.Fatalf("Failed to load feed: %v", err)
		}
		if _, err := client.ToggleLike(ctx, uint(*like)); err != nil {
			log.Fatalf("Toggle failed: %v", err)
		}
		client.Wait()
	}

	entries, err := client.Feed(ctx)
	if err != nil {
		log.Printf("Feed unavailable: %v", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		log.Fatalf("Failed to encode feed: %v", err)
	}
}

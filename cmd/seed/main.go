// Command seed fills the gallery database with demo data.
package main

import (
	"flag"
	"log"

	"linesen/internal/config"
	"linesen/internal/database"
	"linesen/internal/observability"
	"linesen/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.Profiles, "profiles", opts.Profiles, "Number of profiles to create")
	flag.IntVar(&opts.ArtworksPerUser, "artworks", opts.ArtworksPerUser, "Artworks per owner")
	flag.IntVar(&opts.MaxLikesPerPost, "likes", opts.MaxLikesPerPost, "Maximum likes per artwork")
	flag.IntVar(&opts.Anonymous, "anonymous", opts.Anonymous, "Owners without a profile")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fakerSeed := flag.Int64("seed", 0, "Faker seed (0 = random)")
	flag.Parse()

	log.Println("🌱 Gallery Seeder")
	log.Printf("Target: %d profiles (+%d anonymous), %d artworks each, clean=%v\n",
		opts.Profiles, opts.Anonymous, opts.ArtworksPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.Logger = observability.NewLogger(cfg.Env)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	s := seed.NewSeeder(db, *fakerSeed)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if _, err := s.Run(opts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Println("✨ All done! Your gallery is now populated with demo data.")
}

// Package seed populates a gallery database with demo profiles, artworks and
// likes. It is intended for development and testing only.
package seed

import (
	"fmt"
	"log"

	"linesen/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls the amount of generated data.
type Options struct {
	Profiles        int
	ArtworksPerUser int
	MaxLikesPerPost int
	// Anonymous is the number of owners that get artworks but no profile, so
	// the feed shows fallback artist names.
	Anonymous int
}

// DefaultOptions is a small but varied data set.
var DefaultOptions = Options{Profiles: 12, ArtworksPerUser: 3, MaxLikesPerPost: 8, Anonymous: 3}

// Seeder writes generated rows through gorm.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
}

// NewSeeder creates a Seeder. A zero seed picks a random one.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{db: db, faker: gofakeit.New(seed)}
}

// Result summarizes a seeding run.
type Result struct {
	Profiles []models.Profile
	Artworks []models.Post
	Likes    int
}

// Run generates profiles, artworks and likes and then recomputes the
// counters. Existing rows are kept; call ClearAll first for a fresh set.
func (s *Seeder) Run(opts Options) (*Result, error) {
	profiles, err := s.SeedProfiles(opts.Profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to seed profiles: %w", err)
	}
	log.Printf("✓ Created %d profiles", len(profiles))

	owners := make([]models.Principal, 0, len(profiles)+opts.Anonymous)
	for _, p := range profiles {
		owners = append(owners, p.ID)
	}
	for i := 0; i < opts.Anonymous; i++ {
		owners = append(owners, models.Principal(s.faker.UUID()))
	}

	artworks, err := s.SeedArtworks(owners, opts.ArtworksPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to seed artworks: %w", err)
	}
	log.Printf("✓ Created %d artworks", len(artworks))

	likes, err := s.SeedLikes(owners, artworks, opts.MaxLikesPerPost)
	if err != nil {
		return nil, fmt.Errorf("failed to seed likes: %w", err)
	}
	log.Printf("✓ Added %d likes", likes)

	if err := RecountLikes(s.db); err != nil {
		return nil, fmt.Errorf("failed to recount likes: %w", err)
	}
	return &Result{Profiles: profiles, Artworks: artworks, Likes: likes}, nil
}

// ClearAll deletes every gallery row, children first.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"likes", "artworks", "profiles"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedProfiles creates n profiles with unique normalized usernames.
func (s *Seeder) SeedProfiles(n int) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0, n)
	seen := make(map[string]bool, n)
	for len(profiles) < n {
		username := models.NormalizeUsername(s.faker.Username())
		if username == "" || seen[username] {
			continue
		}
		seen[username] = true
		profiles = append(profiles, models.Profile{
			ID:       models.Principal(s.faker.UUID()),
			Username: username,
			Bio:      s.faker.HipsterSentence(8),
		})
	}
	if len(profiles) == 0 {
		return profiles, nil
	}
	if err := s.db.Create(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// SeedArtworks creates perOwner artworks for each owner in shuffled order so
// the feed interleaves owners.
func (s *Seeder) SeedArtworks(owners []models.Principal, perOwner int) ([]models.Post, error) {
	artworks := make([]models.Post, 0, len(owners)*perOwner)
	for _, owner := range owners {
		for i := 0; i < perOwner; i++ {
			artworks = append(artworks, models.Post{
				Owner:            owner,
				Title:            s.faker.Sentence(3),
				Artist:           s.faker.Name(),
				ImageURL:         fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID()),
				ProtectionStatus: true,
			})
		}
	}
	s.faker.ShuffleAnySlice(artworks)
	if len(artworks) == 0 {
		return artworks, nil
	}
	if err := s.db.Create(&artworks).Error; err != nil {
		return nil, err
	}
	return artworks, nil
}

// SeedLikes gives every artwork between zero and maxPerPost likes from
// distinct principals. like_count is not touched; see RecountLikes.
func (s *Seeder) SeedLikes(principals []models.Principal, artworks []models.Post, maxPerPost int) (int, error) {
	if len(principals) == 0 || maxPerPost <= 0 {
		return 0, nil
	}
	var likes []models.Like
	for _, a := range artworks {
		n := s.faker.Number(0, min(maxPerPost, len(principals)))
		picked := append([]models.Principal(nil), principals...)
		s.faker.ShuffleAnySlice(picked)
		for _, p := range picked[:n] {
			likes = append(likes, models.Like{UserID: p, ArtworkID: a.ID})
		}
	}
	if len(likes) == 0 {
		return 0, nil
	}
	if err := s.db.CreateInBatches(&likes, 500).Error; err != nil {
		return 0, err
	}
	return len(likes), nil
}

// RecountLikes sets every artwork's like_count from its like rows.
func RecountLikes(db *gorm.DB) error {
	return db.Exec(`UPDATE artworks SET like_count = (
		SELECT COUNT(*) FROM likes WHERE likes.artwork_id = artworks.id
	)`).Error
}

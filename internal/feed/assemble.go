// Package feed assembles the gallery feed: posts joined with their owners'
// profiles, newest first, overlaid with the viewer's engagement state.
package feed

import (
	"cmp"
	"slices"

	"linesen/internal/models"
)

// IdentitySource tells where an entry's display name came from.
type IdentitySource int

const (
	// IdentityFallback means the owner has no profile and the post's artist
	// string is shown.
	IdentityFallback IdentitySource = iota
	// IdentityProfile means the owner's profile username is shown.
	IdentityProfile
)

func (s IdentitySource) String() string {
	if s == IdentityProfile {
		return "profile"
	}
	return "fallback"
}

// DisplayIdentity is resolved once per entry during assembly.
type DisplayIdentity struct {
	Source  IdentitySource  `json:"source"`
	Name    string          `json:"name"`
	Profile *models.Profile `json:"-"`
}

// Entry is one render record of the feed.
type Entry struct {
	models.Post
	DisplayName string          `json:"display_name"`
	Identity    DisplayIdentity `json:"identity"`
	Liked       bool            `json:"liked"`
}

// ResolveIdentity picks the owner's profile username when a profile exists,
// else the post's artist.
func ResolveIdentity(post *models.Post, profile *models.Profile) DisplayIdentity {
	if profile != nil {
		return DisplayIdentity{Source: IdentityProfile, Name: profile.Username, Profile: profile}
	}
	return DisplayIdentity{Source: IdentityFallback, Name: post.Artist}
}

// Assemble joins posts with profiles in one batch lookup and orders the
// result by creation order, newest first.
func Assemble(posts []*models.Post, profiles []*models.Profile) []Entry {
	byPrincipal := make(map[models.Principal]*models.Profile, len(profiles))
	for _, p := range profiles {
		if p != nil {
			byPrincipal[p.ID] = p
		}
	}

	entries := make([]Entry, 0, len(posts))
	for _, post := range posts {
		if post == nil {
			continue
		}
		id := ResolveIdentity(post, byPrincipal[post.Owner])
		entries = append(entries, Entry{
			Post:        *post,
			DisplayName: id.Name,
			Identity:    id,
		})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(b.CreatedOrder(), a.CreatedOrder())
	})
	return entries
}

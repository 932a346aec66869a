package models

import (
	"regexp"
	"strings"
	"time"
)

// Profile holds the display identity a principal chose for itself.
type Profile struct {
	ID        Principal `gorm:"primaryKey;column:id" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Bio       string    `gorm:"type:text" json:"bio"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

var whitespace = regexp.MustCompile(`\s`)

// NormalizeUsername lowercases the name and replaces whitespace with underscores.
func NormalizeUsername(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

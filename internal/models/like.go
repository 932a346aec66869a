package models

import "time"

// Like represents a principal's like on an artwork.
// The (UserID, ArtworkID) pair is the primary key; the row's existence is the
// only record that the principal currently likes the artwork.
type Like struct {
	UserID    Principal `gorm:"primaryKey;column:user_id" json:"user_id"`
	ArtworkID uint      `gorm:"primaryKey;column:artwork_id;index" json:"artwork_id"`
	CreatedAt time.Time `json:"created_at"`

	Artwork *Post `gorm:"foreignKey:ArtworkID;constraint:OnDelete:CASCADE" json:"artworks,omitempty"`
}

func (Like) TableName() string {
	return "likes"
}

package models

import "time"

// Post represents an uploaded artwork in the gallery feed.
// Owner is immutable once the row exists; LikeCount is only written by the
// engagement store.
type Post struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Owner            Principal `gorm:"column:user_id;not null;index" json:"user_id"`
	Title            string    `gorm:"not null" json:"title"`
	Artist           string    `json:"artist"`
	ImageURL         string    `json:"image_url"`
	LikeCount        int64     `gorm:"not null;default:0" json:"like_count"`
	ProtectionStatus bool      `gorm:"not null;default:false" json:"protection_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName keeps the collection name shared with the upload form.
func (Post) TableName() string {
	return "artworks"
}

// CreatedOrder is the server-assigned insertion sequence used to order feeds.
func (p *Post) CreatedOrder() uint {
	return p.ID
}

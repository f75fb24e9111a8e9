package model

import "time"

type Post struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	CommunityID uint64    `gorm:"not null;index:idx_community_time,priority:1" json:"community_id"`
	CreatorID   uint64    `gorm:"not null;index" json:"creator_id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	URL         string    `gorm:"size:512" json:"url,omitempty"`
	Body        string    `gorm:"type:text" json:"body,omitempty"`
	Removed     bool      `gorm:"not null;default:false" json:"removed"`
	Deleted     bool      `gorm:"not null;default:false" json:"deleted"`
	Locked      bool      `gorm:"not null;default:false" json:"locked"`
	Stickied    bool      `gorm:"not null;default:false" json:"stickied"`
	Score       int64     `gorm:"not null;default:0" json:"score"`
	CreatedAt   time.Time `gorm:"index:idx_community_time,priority:2,sort:desc" json:"published"`
	UpdatedAt   time.Time `json:"updated"`
}

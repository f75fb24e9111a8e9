package model

import "time"

// PostLike 一人一帖一票，Score 取 1 或 -1
type PostLike struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    uint64 `gorm:"not null;uniqueIndex:uk_post_like_user"`
	PostID    uint64 `gorm:"not null;index;uniqueIndex:uk_post_like_user"`
	Score     int8   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PostLike) TableName() string {
	return "post_likes"
}

package model

import "time"

// PostSaved 用户收藏的帖子
type PostSaved struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"not null;index;uniqueIndex:uk_post_saved"`
	PostID    uint64 `gorm:"not null;uniqueIndex:uk_post_saved"`
	CreatedAt time.Time
}

func (PostSaved) TableName() string {
	return "post_saved"
}

// CommentSaved 用户收藏的评论
type CommentSaved struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"not null;index;uniqueIndex:uk_comment_saved"`
	CommentID uint64 `gorm:"not null;uniqueIndex:uk_comment_saved"`
	CreatedAt time.Time
}

func (CommentSaved) TableName() string {
	return "comment_saved"
}

package model

import "time"

// Comment ParentID 为空表示直接回复帖子
type Comment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	CreatorID uint64    `gorm:"not null;index" json:"creator_id"`
	PostID    uint64    `gorm:"not null;index:idx_post_time,priority:1" json:"post_id"`
	ParentID  *uint64   `gorm:"index" json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Removed   bool      `gorm:"not null;default:false" json:"removed"`
	Deleted   bool      `gorm:"not null;default:false" json:"deleted"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	Score     int64     `gorm:"not null;default:0" json:"score"`
	CreatedAt time.Time `gorm:"index:idx_post_time,priority:2,sort:desc" json:"published"`
	UpdatedAt time.Time `json:"updated"`
}

// CommentLike 一人一评论一票
type CommentLike struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    uint64 `gorm:"not null;uniqueIndex:uk_comment_like_user"`
	CommentID uint64 `gorm:"not null;index;uniqueIndex:uk_comment_like_user"`
	PostID    uint64 `gorm:"not null;index"`
	Score     int8   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CommentLike) TableName() string {
	return "comment_likes"
}

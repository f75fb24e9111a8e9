package model

import "time"

type Community struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:20;not null" json:"name"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   uint64    `gorm:"not null;index" json:"creator_id"`
	Removed     bool      `gorm:"not null;default:false" json:"removed"`
	Deleted     bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt   time.Time `json:"published"`
	UpdatedAt   time.Time `json:"updated"`
}

// CommunityModerator 社区版主关系
type CommunityModerator struct {
	ID          uint64    `gorm:"primaryKey" json:"-"`
	CommunityID uint64    `gorm:"not null;index;uniqueIndex:uk_community_moderator" json:"community_id"`
	UserID      uint64    `gorm:"not null;index;uniqueIndex:uk_community_moderator" json:"user_id"`
	CreatedAt   time.Time `json:"published"`
}

// CommunityFollower 社区关注关系
type CommunityFollower struct {
	ID          uint64 `gorm:"primaryKey"`
	CommunityID uint64 `gorm:"not null;index;uniqueIndex:uk_community_follower"`
	UserID      uint64 `gorm:"not null;index;uniqueIndex:uk_community_follower"`
	CreatedAt   time.Time
}

// CommunityUserBan 行存在即表示该用户被此社区封禁
type CommunityUserBan struct {
	ID          uint64    `gorm:"primaryKey" json:"-"`
	CommunityID uint64    `gorm:"not null;index;uniqueIndex:uk_community_ban" json:"community_id"`
	UserID      uint64    `gorm:"not null;index;uniqueIndex:uk_community_ban" json:"user_id"`
	CreatedAt   time.Time `json:"published"`
}

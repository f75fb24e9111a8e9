// Package repository declares the storage collaborators the gateway talks to.
// Implementations live in the mysql and redis subpackages. Store methods are
// synchronous and must only be called from inside a blocking.Pool worker.
package repository

import (
	"context"
	"errors"

	"Lee_Gateway/internal/model"
)

// ErrNotFound 仓储层统一的"不存在"
var ErrNotFound = errors.New("record not found")

type UserStore interface {
	ReadUser(id uint64) (*model.User, error)
	FindUserByName(nameOrEmail string) (*model.User, error)
	FindUserByEmail(email string) (*model.User, error)
	// RegisterUser 插入新用户；站内还没有管理员时该用户成为管理员
	RegisterUser(user *model.User) error
	ListAdmins() ([]model.User, error)
	SetAdmin(userID uint64, admin bool) error
	SetBanned(userID uint64, banned bool) error
	UpdatePassword(userID uint64, hash string) error
}

type CommunityStore interface {
	ReadCommunity(id uint64) (*model.Community, error)
	FindCommunityByName(name string) (*model.Community, error)
	CreateCommunity(c *model.Community) error
	ListCommunities(offset, limit int) ([]model.Community, error)
	// UpdateCommunity 写回 title、description、removed、deleted
	UpdateCommunity(c *model.Community) error

	IsModOrAdmin(userID, communityID uint64) (bool, error)
	ListModerators(communityID uint64) ([]model.CommunityModerator, error)
	ListModeratedBy(userID uint64) ([]model.CommunityModerator, error)
	AddModerator(communityID, userID uint64) error
	RemoveModerator(communityID, userID uint64) error

	Follow(communityID, userID uint64) error
	Unfollow(communityID, userID uint64) error
	ListFollowedCommunities(userID uint64) ([]model.Community, error)

	GetCommunityBan(userID, communityID uint64) (*model.CommunityUserBan, error)
	BanFromCommunity(communityID, userID uint64) error
	UnbanFromCommunity(communityID, userID uint64) error
}

type PostStore interface {
	ReadPost(id uint64) (*model.Post, error)
	CreatePost(post *model.Post) error
	// ListPosts communityID 为 0 时列出全站
	ListPosts(communityID uint64, offset, limit int) ([]model.Post, error)
	SetPostDeleted(postID uint64, deleted bool) error
	SetPostRemoved(postID uint64, removed bool) error
	SetPostLocked(postID uint64, locked bool) error
	SetPostStickied(postID uint64, stickied bool) error
	UpdatePost(postID uint64, name, url, body string) error
	// SavePost save 为 false 时取消收藏；重复操作幂等
	SavePost(userID, postID uint64, save bool) error

	// Vote score 为 0 表示撤销投票
	Vote(userID, postID uint64, score int8) error
	GetVote(userID, postID uint64) (int8, error)
}

type CommentStore interface {
	ReadComment(id uint64) (*model.Comment, error)
	CreateComment(c *model.Comment) error
	UpdateComment(commentID uint64, content string) error
	SetCommentDeleted(commentID uint64, deleted bool) error
	SetCommentRemoved(commentID uint64, removed bool) error
	SetCommentRead(commentID uint64, read bool) error
	// ListComments postID 优先；两者都为 0 时列出全站
	ListComments(postID, communityID uint64, offset, limit int) ([]model.Comment, error)
	SaveComment(userID, commentID uint64, save bool) error

	VoteComment(userID, commentID uint64, score int8) error
	GetCommentVote(userID, commentID uint64) (int8, error)
}

// Store is the full persistence collaborator.
type Store interface {
	UserStore
	CommunityStore
	PostStore
	CommentStore
}

// TokenStore 记录每个用户当前有效的登录 token，作为吊销状态
type TokenStore interface {
	AddUserToken(ctx context.Context, userID uint64, token string) error
	GetUserToken(ctx context.Context, userID uint64) (string, error)
	DeleteUserToken(ctx context.Context, userID uint64) error
}

// CodeStore 密码重置验证码
type CodeStore interface {
	SaveResetCode(ctx context.Context, email, code string) error
	GetResetCode(ctx context.Context, email string) (string, error)
	DeleteResetCode(ctx context.Context, email string) error
}

package mysql

import (
	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) CreatePost(post *model.Post) error {
	return r.DB.Create(post).Error
}

func (r *PostRepository) ReadPost(id uint64) (*model.Post, error) {
	var post model.Post
	if err := r.DB.First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// ListPosts 置顶优先，其次按时间倒序；已删除/移除的帖子不出现
func (r *PostRepository) ListPosts(communityID uint64, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	q := r.DB.Where("removed = ? AND deleted = ?", false, false)
	if communityID != 0 {
		q = q.Where("community_id = ?", communityID)
	}
	err := q.Order("stickied DESC, created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *PostRepository) SetPostDeleted(postID uint64, deleted bool) error {
	return r.updatePost(postID, "deleted", deleted)
}

func (r *PostRepository) SetPostRemoved(postID uint64, removed bool) error {
	return r.updatePost(postID, "removed", removed)
}

func (r *PostRepository) SetPostLocked(postID uint64, locked bool) error {
	return r.updatePost(postID, "locked", locked)
}

func (r *PostRepository) SetPostStickied(postID uint64, stickied bool) error {
	return r.updatePost(postID, "stickied", stickied)
}

func (r *PostRepository) UpdatePost(postID uint64, name, url, body string) error {
	return updateColumns(r.DB, &model.Post{}, postID, map[string]any{
		"name": name,
		"url":  url,
		"body": body,
	})
}

func (r *PostRepository) updatePost(postID uint64, column string, value any) error {
	return updateColumns(r.DB, &model.Post{}, postID, map[string]any{column: value})
}

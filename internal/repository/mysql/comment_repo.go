package mysql

import (
	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) CreateComment(c *model.Comment) error {
	return r.DB.Create(c).Error
}

func (r *CommentRepository) ReadComment(id uint64) (*model.Comment, error) {
	var c model.Comment
	if err := r.DB.First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListComments 按时间倒序；已删除/移除的评论不出现
func (r *CommentRepository) ListComments(postID, communityID uint64, offset, limit int) ([]model.Comment, error) {
	var list []model.Comment
	q := r.DB.Model(&model.Comment{}).
		Where("comments.removed = ? AND comments.deleted = ?", false, false)
	switch {
	case postID != 0:
		q = q.Where("comments.post_id = ?", postID)
	case communityID != 0:
		q = q.Joins("JOIN posts p ON p.id = comments.post_id").
			Where("p.community_id = ?", communityID)
	}
	err := q.Order("comments.created_at DESC, comments.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *CommentRepository) UpdateComment(commentID uint64, content string) error {
	return r.updateComment(commentID, "content", content)
}

func (r *CommentRepository) SetCommentDeleted(commentID uint64, deleted bool) error {
	return r.updateComment(commentID, "deleted", deleted)
}

func (r *CommentRepository) SetCommentRemoved(commentID uint64, removed bool) error {
	return r.updateComment(commentID, "removed", removed)
}

func (r *CommentRepository) SetCommentRead(commentID uint64, read bool) error {
	return r.updateComment(commentID, "read", read)
}

func (r *CommentRepository) updateComment(commentID uint64, column string, value any) error {
	return updateColumns(r.DB, &model.Comment{}, commentID, map[string]any{column: value})
}

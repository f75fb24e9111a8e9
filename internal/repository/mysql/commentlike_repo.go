package mysql

import (
	"errors"

	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
)

type CommentLikeRepository struct {
	DB *gorm.DB
}

// VoteComment 与帖子投票相同：覆盖旧票并按差值调整评论得分
func (r *CommentLikeRepository) VoteComment(userID, commentID uint64, score int8) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var comment model.Comment
		if err := tx.Select("id", "post_id").First(&comment, commentID).Error; err != nil {
			return translate(err)
		}

		var old model.CommentLike
		err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&old).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		delta := int64(score)
		if err == nil {
			delta -= int64(old.Score)
			if err := tx.Delete(&old).Error; err != nil {
				return err
			}
		}
		if score != 0 {
			like := &model.CommentLike{UserID: userID, CommentID: commentID, PostID: comment.PostID, Score: score}
			if err := tx.Create(like).Error; err != nil {
				return err
			}
		}
		if delta == 0 {
			return nil
		}
		return tx.Model(&model.Comment{}).
			Where("id = ?", commentID).
			UpdateColumn("score", gorm.Expr("score + ?", delta)).
			Error
	})
}

// GetCommentVote 未投票返回 0
func (r *CommentLikeRepository) GetCommentVote(userID, commentID uint64) (int8, error) {
	var cl model.CommentLike
	err := r.DB.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&cl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cl.Score, nil
}

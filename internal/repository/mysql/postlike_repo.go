package mysql

import (
	"errors"

	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
)

type PostLikeRepository struct {
	DB *gorm.DB
}

// Vote 覆盖用户对帖子的投票并同步帖子得分；score=0 撤销
func (r *PostLikeRepository) Vote(userID, postID uint64, score int8) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var old model.PostLike
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&old).Error
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
			if err := tx.Create(&model.PostLike{UserID: userID, PostID: postID, Score: score}).Error; err != nil {
				return err
			}
		}
		if delta == 0 {
			return nil
		}
		return tx.Model(&model.Post{}).
			Where("id = ?", postID).
			UpdateColumn("score", gorm.Expr("score + ?", delta)).
			Error
	})
}

// GetVote 未投票返回 0
func (r *PostLikeRepository) GetVote(userID, postID uint64) (int8, error) {
	var pl model.PostLike
	err := r.DB.Where("user_id = ? AND post_id = ?", userID, postID).First(&pl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return pl.Score, nil
}

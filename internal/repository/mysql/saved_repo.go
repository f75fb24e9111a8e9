package mysql

import (
	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SavedRepository 帖子与评论收藏
type SavedRepository struct {
	DB *gorm.DB
}

func (r *SavedRepository) SavePost(userID, postID uint64, save bool) error {
	if !save {
		return r.DB.Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&model.PostSaved{}).Error
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoNothing: true,
	}).Create(&model.PostSaved{UserID: userID, PostID: postID}).Error
}

func (r *SavedRepository) SaveComment(userID, commentID uint64, save bool) error {
	if !save {
		return r.DB.Where("user_id = ? AND comment_id = ?", userID, commentID).
			Delete(&model.CommentSaved{}).Error
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
		DoNothing: true,
	}).Create(&model.CommentSaved{UserID: userID, CommentID: commentID}).Error
}

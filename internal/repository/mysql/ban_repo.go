package mysql

import (
	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityBanRepository struct {
	DB *gorm.DB
}

// GetCommunityBan 未封禁时返回 repository.ErrNotFound
func (r *CommunityBanRepository) GetCommunityBan(userID, communityID uint64) (*model.CommunityUserBan, error) {
	var ban model.CommunityUserBan
	err := r.DB.Where("community_id = ? AND user_id = ?", communityID, userID).First(&ban).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ban, nil
}

// BanFromCommunity 幂等：重复封禁不报错，同时取消关注
func (r *CommunityBanRepository) BanFromCommunity(communityID, userID uint64) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&model.CommunityUserBan{CommunityID: communityID, UserID: userID}).Error; err != nil {
			return err
		}
		return (&CommunityMemberRepository{DB: tx}).Unfollow(communityID, userID)
	})
}

func (r *CommunityBanRepository) UnbanFromCommunity(communityID, userID uint64) error {
	return r.DB.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityUserBan{}).Error
}

package mysql

import (
	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityMemberRepository 版主与关注关系
type CommunityMemberRepository struct {
	DB *gorm.DB
}

func (r *CommunityMemberRepository) AddModerator(communityID, userID uint64) error {
	// 幂等插入：若已存在 (community_id, user_id) 则不报错
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.CommunityModerator{CommunityID: communityID, UserID: userID}).Error
}

func (r *CommunityMemberRepository) RemoveModerator(communityID, userID uint64) error {
	return r.DB.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityModerator{}).Error
}

func (r *CommunityMemberRepository) ListModerators(communityID uint64) ([]model.CommunityModerator, error) {
	var list []model.CommunityModerator
	err := r.DB.Where("community_id = ?", communityID).Order("id asc").Find(&list).Error
	return list, err
}

func (r *CommunityMemberRepository) ListModeratedBy(userID uint64) ([]model.CommunityModerator, error) {
	var list []model.CommunityModerator
	err := r.DB.Where("user_id = ?", userID).Order("id asc").Find(&list).Error
	return list, err
}

func (r *CommunityMemberRepository) Follow(communityID, userID uint64) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.CommunityFollower{CommunityID: communityID, UserID: userID}).Error
}

func (r *CommunityMemberRepository) Unfollow(communityID, userID uint64) error {
	return r.DB.Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&model.CommunityFollower{}).Error
}

// ListFollowedCommunities 已删除/移除的社区不出现
func (r *CommunityMemberRepository) ListFollowedCommunities(userID uint64) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.Model(&model.Community{}).
		Joins("JOIN community_followers f ON f.community_id = communities.id").
		Where("f.user_id = ? AND communities.removed = ? AND communities.deleted = ?", userID, false, false).
		Order("communities.id asc").
		Find(&list).Error
	return list, err
}

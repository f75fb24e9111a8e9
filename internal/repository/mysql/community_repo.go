package mysql

import (
	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// CreateCommunity 创建者同时成为第一位版主并关注该社区
func (r *CommunityRepository) CreateCommunity(c *model.Community) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		mRepo := &CommunityMemberRepository{DB: tx}

		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if err := mRepo.AddModerator(c.ID, c.CreatorID); err != nil {
			return err
		}
		return mRepo.Follow(c.ID, c.CreatorID)
	})
}

func (r *CommunityRepository) ReadCommunity(id uint64) (*model.Community, error) {
	var community model.Community
	if err := r.DB.First(&community, id).Error; err != nil {
		return nil, translate(err)
	}
	return &community, nil
}

func (r *CommunityRepository) FindCommunityByName(name string) (*model.Community, error) {
	var community model.Community
	if err := r.DB.Where("name = ?", name).First(&community).Error; err != nil {
		return nil, translate(err)
	}
	return &community, nil
}

func (r *CommunityRepository) ListCommunities(offset, limit int) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.Where("removed = ? AND deleted = ?", false, false).
		Order("id desc").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

func (r *CommunityRepository) UpdateCommunity(c *model.Community) error {
	return updateColumns(r.DB, &model.Community{}, c.ID, map[string]any{
		"title":       c.Title,
		"description": c.Description,
		"removed":     c.Removed,
		"deleted":     c.Deleted,
	})
}

// IsModOrAdmin 社区版主或站点管理员
func (r *CommunityRepository) IsModOrAdmin(userID, communityID uint64) (bool, error) {
	var count int64
	err := r.DB.Raw(`
		SELECT
		  (SELECT COUNT(*) FROM community_moderators m WHERE m.community_id = ? AND m.user_id = ?) +
		  (SELECT COUNT(*) FROM users u WHERE u.id = ? AND u.admin = TRUE)`,
		communityID, userID, userID,
	).Scan(&count).Error
	return count > 0, err
}

package mysql

import (
	"Lee_Gateway/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

// RegisterUser 管理员计数与插入在同一事务内，并发注册时只有一个人成为首位管理员
func (r *UserRepository) RegisterUser(user *model.User) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&model.User{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("admin = ?", true).
			Count(&n).Error
		if err != nil {
			return err
		}
		user.Admin = n == 0
		return tx.Create(user).Error
	})
}

func (r *UserRepository) FindUserByName(nameOrEmail string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ? OR email = ?", nameOrEmail, nameOrEmail).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) ReadUser(id uint64) (*model.User, error) {
	var user model.User
	if err := r.DB.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindUserByEmail(email string) (*model.User, error) {
	var usr model.User
	if err := r.DB.Where("email = ?", email).First(&usr).Error; err != nil {
		return nil, translate(err)
	}
	return &usr, nil
}

func (r *UserRepository) ListAdmins() ([]model.User, error) {
	var list []model.User
	err := r.DB.Where("admin = ?", true).Order("id asc").Find(&list).Error
	return list, err
}

func (r *UserRepository) SetAdmin(userID uint64, admin bool) error {
	return r.updateUser(userID, "admin", admin)
}

func (r *UserRepository) SetBanned(userID uint64, banned bool) error {
	return r.updateUser(userID, "banned", banned)
}

func (r *UserRepository) UpdatePassword(userID uint64, hash string) error {
	return r.updateUser(userID, "password", hash)
}

func (r *UserRepository) updateUser(userID uint64, column string, value any) error {
	return updateColumns(r.DB, &model.User{}, userID, map[string]any{column: value})
}

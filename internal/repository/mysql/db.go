package mysql

import (
	"errors"
	"time"

	"Lee_Gateway/internal/model"
	"Lee_Gateway/internal/repository"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB 连接 MySQL；连接池上限与 blocking.Pool 的 worker 数保持一致
func InitDB(dsn string, maxOpen int) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxOpen / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	return nil
}

// AutoMigrate 自动建表（开发阶段 OK）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Community{},
		&model.CommunityModerator{},
		&model.CommunityFollower{},
		&model.CommunityUserBan{},
		&model.Post{},
		&model.PostLike{},
		&model.PostSaved{},
		&model.Comment{},
		&model.CommentLike{},
		&model.CommentSaved{},
	)
}

// Store 聚合各仓储，实现 repository.Store
type Store struct {
	*UserRepository
	*CommunityRepository
	*CommunityMemberRepository
	*CommunityBanRepository
	*PostRepository
	*PostLikeRepository
	*CommentRepository
	*CommentLikeRepository
	*SavedRepository
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{
		UserRepository:            &UserRepository{DB: db},
		CommunityRepository:       &CommunityRepository{DB: db},
		CommunityMemberRepository: &CommunityMemberRepository{DB: db},
		CommunityBanRepository:    &CommunityBanRepository{DB: db},
		PostRepository:            &PostRepository{DB: db},
		PostLikeRepository:        &PostLikeRepository{DB: db},
		CommentRepository:         &CommentRepository{DB: db},
		CommentLikeRepository:     &CommentLikeRepository{DB: db},
		SavedRepository:           &SavedRepository{DB: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

// updateColumns 按主键更新若干列，行不存在时返回 repository.ErrNotFound
func updateColumns(db *gorm.DB, table any, id uint64, values map[string]any) error {
	tx := db.Model(table).Where("id = ?", id).Updates(values)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// 值未变化时 MySQL 也返回 0，再确认一次是否存在
		var n int64
		if err := db.Model(table).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return repository.ErrNotFound
		}
	}
	return nil
}

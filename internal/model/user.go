package model

import "time"

type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Email     string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Admin     bool      `gorm:"not null;default:false" json:"admin"`
	Banned    bool      `gorm:"not null;default:false" json:"banned"` // 全站封禁
	CreatedAt time.Time `json:"published"`
	UpdatedAt time.Time `json:"updated"`
}

package model

import (
	"time"
)

// Follow 关注关系（User 关注 Author）
// idx_follow_pair = (user_id, author_id) 复合唯一键，避免重复关注
type Follow struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    uint   `gorm:"index:idx_follow_user;index:idx_follow_pair,unique;not null"`
	AuthorID  uint   `gorm:"index:idx_follow_author;index:idx_follow_pair,unique;not null"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author    User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (Follow) TableName() string { return "follows" }

package model

import (
	"strings"
	"time"
)

// User 站点用户（作者与读者共用）
type User struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Username   string     `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email      string     `json:"email,omitempty" gorm:"type:varchar(254);index"`
	FirstName  string     `json:"first_name" gorm:"type:varchar(150)"`
	LastName   string     `json:"last_name" gorm:"type:varchar(150)"`
	Password   string     `json:"-" gorm:"type:varchar(128);not null"`
	IsActive   bool       `json:"-" gorm:"not null;default:true"`
	DateJoined time.Time  `json:"date_joined" gorm:"autoCreateTime"`
	LastLogin  *time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

// FullName 名 + 姓，可能为空
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName 优先全名，否则用户名
func (u *User) DisplayName() string {
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Username
}

func (u *User) String() string { return u.Username }

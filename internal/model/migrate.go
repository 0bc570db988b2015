package model

import "gorm.io/gorm"

// AutoMigrate 建表 / 补齐索引
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Group{}, &Post{}, &Comment{}, &Follow{})
}

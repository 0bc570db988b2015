package model

import "time"

// Comment 帖子评论
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"index:idx_comment_post;not null"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Author    User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) String() string { return Truncate(c.Text, postStringLen) }

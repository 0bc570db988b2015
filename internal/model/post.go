package model

import "time"

const postStringLen = 15

// Post 作者发布的内容
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"pub_date" gorm:"column:pub_date;index:idx_post_pub_date"`
	AuthorID  uint      `json:"author_id" gorm:"index:idx_post_author;not null"`
	Author    User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index:idx_post_group"`
	Group     *Group    `json:"group,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	Image     string    `json:"image,omitempty" gorm:"type:varchar(255)"` // 相对 media root，如 posts/small.gif
	Comments  []Comment `json:"comments,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) String() string { return Truncate(p.Text, postStringLen) }

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package handler

import (
	"time"

	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

// JSON API 的输出结构

type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

type postView struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
	Author  string    `json:"author"`
	Group   string    `json:"group,omitempty"`
	Image   string    `json:"image,omitempty"`
}

type commentView struct {
	ID      uint      `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

type postDetailView struct {
	postView
	Comments []commentView `json:"comments"`
}

type pageView struct {
	Count    int64      `json:"count"`
	Page     int        `json:"page"`
	NumPages int        `json:"num_pages"`
	Next     *int       `json:"next"`
	Previous *int       `json:"previous"`
	Results  []postView `json:"results"`
}

func userViews(users []*model.User) []userView {
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{ID: u.ID, Username: u.Username, FullName: u.FullName()})
	}
	return out
}

func newPostView(p *model.Post, store *media.Storage) postView {
	v := postView{
		ID:      p.ID,
		Text:    p.Text,
		PubDate: p.CreatedAt,
		Author:  p.Author.Username,
	}
	if p.Group != nil {
		v.Group = p.Group.Slug
	}
	if p.Image != "" && store != nil {
		v.Image = store.URL(p.Image)
	}
	return v
}

func newPageView(pg *service.PostPage, store *media.Storage) pageView {
	v := pageView{
		Count:    pg.Count,
		Page:     pg.Number,
		NumPages: pg.NumPages,
		Results:  make([]postView, 0, pg.Len()),
	}
	if pg.HasNext() {
		n := pg.NextNumber()
		v.Next = &n
	}
	if pg.HasPrevious() {
		n := pg.PreviousNumber()
		v.Previous = &n
	}
	for _, p := range pg.Items {
		v.Results = append(v.Results, newPostView(p, store))
	}
	return v
}

func newPostDetailView(d *service.PostDetail, store *media.Storage) postDetailView {
	v := postDetailView{postView: newPostView(d.Post, store), Comments: make([]commentView, 0, len(d.Comments))}
	for _, c := range d.Comments {
		v.Comments = append(v.Comments, commentView{ID: c.ID, Author: c.Author.Username, Text: c.Text, Created: c.CreatedAt})
	}
	return v
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/paginator"
)

const (
	// PostsPerPage 列表页每页条数
	PostsPerPage = 10
	// detailTitleLen 详情页标题截取长度
	detailTitleLen = 30
)

type PostPage = paginator.Page[*model.Post]

// PostInput 创建 / 编辑帖子的已校验数据
type PostInput struct {
	Text    string
	GroupID *uint
	// Image 为空表示保持原图
	Image string
}

// PostDetail 帖子详情页数据
type PostDetail struct {
	Post        *model.Post
	Title       string
	AuthorPosts int64
	Comments    []*model.Comment
}

type PostService interface {
	Index(ctx context.Context, rawPage string) (*PostPage, error)
	GroupPosts(ctx context.Context, slug, rawPage string) (*model.Group, *PostPage, error)
	AuthorPosts(ctx context.Context, authorID uint, rawPage string) (*PostPage, error)
	FollowFeed(ctx context.Context, userID uint, rawPage string) (*PostPage, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	Get(ctx context.Context, id uint) (*model.Post, error)
	Detail(ctx context.Context, id uint) (*PostDetail, error)
	Create(ctx context.Context, authorID uint, in PostInput) (*model.Post, error)
	// Update 仅作者本人可编辑，否则返回 ErrForbidden
	Update(ctx context.Context, editorID, postID uint, in PostInput) (*model.Post, error)
	AddComment(ctx context.Context, authorID, postID uint, text string) (*model.Comment, error)
}

type postService struct {
	posts     repository.PostRepository
	groups    repository.GroupRepository
	comments  repository.CommentRepository
	paginator *paginator.Paginator
}

func NewPostService(posts repository.PostRepository, groups repository.GroupRepository, comments repository.CommentRepository) PostService {
	return &postService{
		posts:     posts,
		groups:    groups,
		comments:  comments,
		paginator: paginator.New(PostsPerPage),
	}
}

func (s *postService) page(ctx context.Context, f repository.PostFilter, rawPage string) (*PostPage, error) {
	cnt, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	b := s.paginator.Resolve(cnt, rawPage)
	items, err := s.posts.List(ctx, f, b.Offset(), b.Limit())
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return paginator.NewPage(b, items), nil
}

func (s *postService) Index(ctx context.Context, rawPage string) (*PostPage, error) {
	return s.page(ctx, repository.PostFilter{}, rawPage)
}

func (s *postService) GroupPosts(ctx context.Context, slug, rawPage string) (*model.Group, *PostPage, error) {
	g, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, notFound(err)
	}
	page, err := s.page(ctx, repository.PostFilter{GroupID: g.ID}, rawPage)
	if err != nil {
		return nil, nil, err
	}
	return g, page, nil
}

func (s *postService) AuthorPosts(ctx context.Context, authorID uint, rawPage string) (*PostPage, error) {
	return s.page(ctx, repository.PostFilter{AuthorID: authorID}, rawPage)
}

func (s *postService) FollowFeed(ctx context.Context, userID uint, rawPage string) (*PostPage, error) {
	return s.page(ctx, repository.PostFilter{FollowerID: userID}, rawPage)
}

func (s *postService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.posts.Count(ctx, repository.PostFilter{AuthorID: authorID})
}

func (s *postService) Get(ctx context.Context, id uint) (*model.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *postService) Detail(ctx context.Context, id uint) (*PostDetail, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cnt, err := s.CountByAuthor(ctx, p.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}
	comments, err := s.comments.ListByPost(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &PostDetail{
		Post:        p,
		Title:       model.Truncate(p.Text, detailTitleLen),
		AuthorPosts: cnt,
		Comments:    comments,
	}, nil
}

func (s *postService) checkGroup(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.groups.GetByID(ctx, *id); err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return ErrInvalidGroup
		}
		return err
	}
	return nil
}

func (s *postService) Create(ctx context.Context, authorID uint, in PostInput) (*model.Post, error) {
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}
	p := &model.Post{Text: in.Text, AuthorID: authorID, GroupID: in.GroupID, Image: in.Image}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

func (s *postService) Update(ctx context.Context, editorID, postID uint, in PostInput) (*model.Post, error) {
	p, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != editorID {
		return nil, ErrForbidden
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}
	p.Text = in.Text
	p.GroupID = in.GroupID
	if in.Image != "" {
		p.Image = in.Image
	}
	if err := s.posts.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update post %d: %w", postID, err)
	}
	return p, nil
}

func (s *postService) AddComment(ctx context.Context, authorID, postID uint, text string) (*model.Comment, error) {
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}
	c := &model.Comment{PostID: postID, AuthorID: authorID, Text: text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

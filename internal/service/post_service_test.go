package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/testutil"
)

func newPostService(db *gorm.DB) PostService {
	return NewPostService(
		repository.NewPostRepository(db),
		repository.NewGroupRepository(db),
		repository.NewCommentRepository(db),
	)
}

func TestIndexPagination(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "User")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, db, author, nil, fmt.Sprintf("Текст%d", i))
	}

	first, err := svc.Index(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 10, first.Len())
	assert.Equal(t, "Текст12", first.Items[0].Text)

	second, err := svc.Index(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 3, second.Len())

	clamped, err := svc.Index(ctx, "99")
	require.NoError(t, err)
	assert.Equal(t, 2, clamped.Number)
}

func TestGroupPostsAndFeed(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(db)
	rel := NewRelationshipService(repository.NewFollowRepository(db))
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "author")
	reader := testutil.CreateUser(t, db, "reader")
	g1 := testutil.CreateGroup(t, db, "One", "one")
	g2 := testutil.CreateGroup(t, db, "Two", "two")
	testutil.CreatePost(t, db, author, g1, "in one")
	testutil.CreatePost(t, db, reader, g2, "in two")

	g, page, err := svc.GroupPosts(ctx, "one", "")
	require.NoError(t, err)
	assert.Equal(t, "One", g.Title)
	require.Equal(t, 1, page.Len())
	assert.Equal(t, "in one", page.Items[0].Text)

	_, _, err = svc.GroupPosts(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)

	feed, err := svc.FollowFeed(ctx, reader.ID, "")
	require.NoError(t, err)
	assert.Zero(t, feed.Len())

	require.NoError(t, rel.Follow(ctx, reader.ID, author.ID))
	feed, err = svc.FollowFeed(ctx, reader.ID, "")
	require.NoError(t, err)
	require.Equal(t, 1, feed.Len())
	assert.Equal(t, "author", feed.Items[0].Author.Username)
}

func TestCreateAndUpdateOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(db)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	stranger := testutil.CreateUser(t, db, "stranger")
	group := testutil.CreateGroup(t, db, "G", "g")

	p, err := svc.Create(ctx, owner.ID, PostInput{Text: "original", GroupID: &group.ID, Image: "posts/x.gif"})
	require.NoError(t, err)

	missing := uint(4242)
	_, err = svc.Create(ctx, owner.ID, PostInput{Text: "bad group", GroupID: &missing})
	assert.ErrorIs(t, err, ErrInvalidGroup)

	_, err = svc.Update(ctx, stranger.ID, p.ID, PostInput{Text: "hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, owner.ID, p.ID, PostInput{Text: "edited", GroupID: &group.ID})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	// 未上传新图时保留原图
	assert.Equal(t, "posts/x.gif", updated.Image)

	_, err = svc.Update(ctx, owner.ID, 999, PostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDetailAndComments(t *testing.T) {
	db := testutil.NewDB(t)
	svc := newPostService(db)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "author")
	long := strings.Repeat("абв", 20)
	p := testutil.CreatePost(t, db, author, nil, long)
	testutil.CreatePost(t, db, author, nil, "second")

	_, err := svc.AddComment(ctx, author.ID, p.ID, "nice")
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, author.ID, 777, "lost")
	assert.ErrorIs(t, err, ErrNotFound)

	d, err := svc.Detail(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, []rune(d.Title), 30)
	assert.Equal(t, int64(2), d.AuthorPosts)
	require.Len(t, d.Comments, 1)
	assert.Equal(t, "nice", d.Comments[0].Text)

	_, err = svc.Detail(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

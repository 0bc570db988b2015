package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/form"
	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const invalidGroup = "Select a valid choice. That choice is not one of the available choices."

// Index 首页，最新帖子（路由上挂了整页缓存）
func (h *Handler) Index(c *gin.Context) {
	page, err := h.postService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/index.html", gin.H{"page": page})
}

// GroupPosts 分组下的帖子
func (h *Handler) GroupPosts(c *gin.Context) {
	group, page, err := h.postService.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/group_list.html", gin.H{"group": group, "page": page})
}

// Profile 作者主页
func (h *Handler) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	author, err := h.accounts.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.postService.AuthorPosts(ctx, author.ID, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	stats, err := h.relService.Stats(ctx, author.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	following, err := h.relService.IsFollowing(ctx, middleware.CurrentUserID(c), author.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/profile.html", gin.H{
		"author":    author,
		"page":      page,
		"postCount": page.Count,
		"stats":     stats,
		"following": following,
	})
}

// PostDetail 帖子详情 + 评论
func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	d, err := h.postService.Detail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/post_detail.html", gin.H{
		"post":        d.Post,
		"title":       d.Title,
		"authorPosts": d.AuthorPosts,
		"comments":    d.Comments,
		"form":        form.NewCommentForm(),
	})
}

func (h *Handler) groupChoices(c *gin.Context) ([]*model.Group, bool) {
	groups, err := h.groupService.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return groups, true
}

// saveImage 保存上传图片；失败时写入表单错误
func (h *Handler) saveImage(f *form.PostForm) (string, bool) {
	if f.Image == nil {
		return "", true
	}
	rel, err := h.media.Save(f.Image)
	switch {
	case err == nil:
		return rel, true
	case errors.Is(err, media.ErrNotImage):
		f.Errors.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	case errors.Is(err, media.ErrTooLarge):
		f.Errors.Add("image", "The image is too large.")
	default:
		logger.Error("save upload failed", zap.String("filename", f.Image.Filename), zap.Error(err))
		f.Errors.Add("image", "The image could not be saved.")
	}
	return "", false
}

// discardImage 保存帖子失败时删除已落盘的上传
func (h *Handler) discardImage(rel string) {
	if rel == "" {
		return
	}
	if err := h.media.Delete(rel); err != nil {
		logger.Warn("remove orphan upload failed", zap.String("image", rel), zap.Error(err))
	}
}

// PostCreate 新建帖子，成功后跳转到作者主页
func (h *Handler) PostCreate(c *gin.Context) {
	groups, ok := h.groupChoices(c)
	if !ok {
		return
	}
	f := form.NewPostForm(groups)
	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, "posts/create_post.html", gin.H{"form": f, "isEdit": false})
		return
	}

	viewer := middleware.CurrentUser(c)
	if f.Bind(c) {
		if img, saved := h.saveImage(f); saved {
			_, err := h.postService.Create(c.Request.Context(), viewer.ID, service.PostInput{
				Text:    f.Text,
				GroupID: f.GroupID(),
				Image:   img,
			})
			if err != nil {
				h.discardImage(img)
			}
			switch {
			case err == nil:
				redirect(c, profileURL(viewer.Username))
				return
			case errors.Is(err, service.ErrInvalidGroup):
				f.Errors.Add("group", invalidGroup)
			default:
				h.fail(c, err)
				return
			}
		}
	}
	h.render(c, http.StatusOK, "posts/create_post.html", gin.H{"form": f, "isEdit": false})
}

// PostEdit 编辑帖子；非作者跳回详情页
func (h *Handler) PostEdit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	ctx := c.Request.Context()
	post, err := h.postService.Get(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	viewer := middleware.CurrentUser(c)
	if post.AuthorID != viewer.ID {
		redirect(c, postURL(post.ID))
		return
	}
	groups, ok := h.groupChoices(c)
	if !ok {
		return
	}

	if c.Request.Method != http.MethodPost {
		f := form.PostFormFor(post, groups)
		h.render(c, http.StatusOK, "posts/create_post.html", gin.H{"form": f, "isEdit": true, "post": post})
		return
	}

	f := form.NewPostForm(groups)
	if f.Bind(c) {
		if img, saved := h.saveImage(f); saved {
			_, err := h.postService.Update(ctx, viewer.ID, post.ID, service.PostInput{
				Text:    f.Text,
				GroupID: f.GroupID(),
				Image:   img,
			})
			if err != nil {
				h.discardImage(img)
			}
			switch {
			case err == nil:
				redirect(c, postURL(post.ID))
				return
			case errors.Is(err, service.ErrForbidden):
				redirect(c, postURL(post.ID))
				return
			case errors.Is(err, service.ErrInvalidGroup):
				f.Errors.Add("group", invalidGroup)
			default:
				h.fail(c, err)
				return
			}
		}
	}
	h.render(c, http.StatusOK, "posts/create_post.html", gin.H{"form": f, "isEdit": true, "post": post})
}

// AddComment 无论表单是否合法都跳回详情页
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.postService.Get(ctx, id); err != nil {
		h.fail(c, err)
		return
	}
	f := form.NewCommentForm()
	if f.Bind(c) {
		if _, err := h.postService.AddComment(ctx, middleware.CurrentUserID(c), id, f.Text); err != nil {
			h.fail(c, err)
			return
		}
	}
	redirect(c, postURL(id))
}

// FollowIndex 关注作者的帖子流
func (h *Handler) FollowIndex(c *gin.Context) {
	page, err := h.postService.FollowFeed(c.Request.Context(), middleware.CurrentUserID(c), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/follow.html", gin.H{"page": page})
}

// ProfileFollow 关注作者，自己关注自己时忽略
func (h *Handler) ProfileFollow(c *gin.Context) {
	ctx := c.Request.Context()
	author, err := h.accounts.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	err = h.relService.Follow(ctx, middleware.CurrentUserID(c), author.ID)
	if err != nil && !errors.Is(err, service.ErrFollowSelf) {
		h.fail(c, err)
		return
	}
	redirect(c, profileURL(author.Username))
}

// ProfileUnfollow 取消关注
func (h *Handler) ProfileUnfollow(c *gin.Context) {
	ctx := c.Request.Context()
	author, err := h.accounts.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.relService.Unfollow(ctx, middleware.CurrentUserID(c), author.ID); err != nil {
		h.fail(c, err)
		return
	}
	redirect(c, profileURL(author.Username))
}

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

// APIListPosts 最新帖子分页
// @Summary 帖子列表
// @Tags 帖子
// @Produce json
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=pageView}
// @Router /api/v1/posts [get]
func (h *Handler) APIListPosts(c *gin.Context) {
	page, err := h.postService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, newPageView(page, h.media))
}

// APIGetPost 帖子详情（含评论）
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response{data=postDetailView}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) APIGetPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.NotFound(c, "post not found")
		return
	}
	d, err := h.postService.Detail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, newPostDetailView(d, h.media))
}

// APIGroupPosts 分组帖子
// @Summary 分组帖子
// @Tags 帖子
// @Produce json
// @Param slug path string true "分组 slug"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response{data=pageView}
// @Failure 404 {object} response.Response
// @Router /api/v1/groups/{slug}/posts [get]
func (h *Handler) APIGroupPosts(c *gin.Context) {
	_, page, err := h.postService.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "group not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, newPageView(page, h.media))
}

package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
)

type followRequest struct {
	Author string `json:"author" binding:"required"`
}

func (h *Handler) bindAuthor(c *gin.Context) (*model.User, bool) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return nil, false
	}
	author, err := h.accounts.GetByUsername(c.Request.Context(), req.Author)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "author not found")
		} else {
			response.InternalError(c, err)
		}
		return nil, false
	}
	return author, true
}

// APIFollow 关注作者
// @Summary 关注作者
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "被关注的作者"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) APIFollow(c *gin.Context) {
	author, ok := h.bindAuthor(c)
	if !ok {
		return
	}
	if err := h.relService.Follow(c.Request.Context(), middleware.CurrentUserID(c), author.ID); err != nil {
		if errors.Is(err, service.ErrFollowSelf) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"author": author.Username, "following": true})
}

// APIUnfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body followRequest true "取消关注的作者"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) APIUnfollow(c *gin.Context) {
	author, ok := h.bindAuthor(c)
	if !ok {
		return
	}
	if err := h.relService.Unfollow(c.Request.Context(), middleware.CurrentUserID(c), author.ID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"author": author.Username, "following": false})
}

// pageParams 返回收敛后的 page / page_size，响应里回显的就是实际使用的值
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return service.NormalizePage(page, pageSize)
}

func (h *Handler) pathUser(c *gin.Context) (*model.User, bool) {
	u, err := h.accounts.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "user not found")
		} else {
			response.InternalError(c, err)
		}
		return nil, false
	}
	return u, true
}

// APIListFollowing 查询某用户关注的作者
// @Summary 查询关注列表
// @Tags 关系链
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/{username}/following [get]
func (h *Handler) APIListFollowing(c *gin.Context) {
	u, ok := h.pathUser(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	list, err := h.relService.ListFollowing(c.Request.Context(), u.ID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": userViews(list)})
}

// APIListFans 查询某作者的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Produce json
// @Param username path string true "用户名"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/relations/{username}/fans [get]
func (h *Handler) APIListFans(c *gin.Context) {
	u, ok := h.pathUser(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	list, err := h.relService.ListFans(c.Request.Context(), u.ID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": userViews(list)})
}

package handler

import (
	"strconv"

	"pulse_social/middleware"
	"pulse_social/service"
	"pulse_social/utils"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	svc *service.FollowService
}

func NewFollowHandler(svc *service.FollowService) *FollowHandler {
	return &FollowHandler{svc: svc}
}

// followRequest 关注请求体（全部可选）
type followRequest struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

// bulkRequest 批量操作请求体
type bulkRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

// Follow 关注用户
func (h *FollowHandler) Follow(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req followRequest
	// body 可以为空，解析失败按默认值处理
	_ = c.ShouldBindJSON(&req)

	source := req.Source
	if source == "" {
		source = "api"
	}

	rel, err := h.svc.FollowUser(userID, c.Param("user_id"), req.Kind, source)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, rel)
}

// Unfollow 取关用户
func (h *FollowHandler) Unfollow(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	rel, err := h.svc.UnfollowUser(userID, c.Param("user_id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, rel)
}

// BulkFollow 批量关注
func (h *FollowHandler) BulkFollow(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "user_ids is required")
		return
	}

	outcomes, err := h.svc.BulkFollow(userID, req.UserIDs)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"results": outcomes})
}

// BulkUnfollow 批量取关
func (h *FollowHandler) BulkUnfollow(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "user_ids is required")
		return
	}

	outcomes, err := h.svc.BulkUnfollow(userID, req.UserIDs)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"results": outcomes})
}

// Followers 粉丝列表
func (h *FollowHandler) Followers(c *gin.Context) {
	h.listUsers(c, h.svc.Followers)
}

// Following 关注列表
func (h *FollowHandler) Following(c *gin.Context) {
	h.listUsers(c, h.svc.Following)
}

func (h *FollowHandler) listUsers(c *gin.Context, list func(string, int, string) (*service.UserPage, error)) {
	if _, ok := middleware.GetUserID(c); !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		utils.BadRequest(c, "limit must be an integer")
		return
	}

	page, err := list(c.Param("user_id"), limit, c.Query("cursor"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, page)
}

// parseLimit 解析 limit 参数，缺省返回 0 由服务层填默认值
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// 显式传 0 不等于缺省，按越界处理
		n = -1
	}
	return n, nil
}

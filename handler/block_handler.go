package handler

import (
	"pulse_social/middleware"
	"pulse_social/service"
	"pulse_social/utils"

	"github.com/gin-gonic/gin"
)

type BlockHandler struct {
	svc *service.FollowService
}

func NewBlockHandler(svc *service.FollowService) *BlockHandler {
	return &BlockHandler{svc: svc}
}

// blockRequest 拉黑请求体（全部可选）
type blockRequest struct {
	Reason     string `json:"reason"`
	ReportSpam bool   `json:"report_spam"`
}

// muteRequest 静音请求体（全部可选）
type muteRequest struct {
	Duration        string `json:"duration"`
	IncludeReshares *bool  `json:"include_reshares"`
}

// Block 拉黑用户
func (h *BlockHandler) Block(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req blockRequest
	_ = c.ShouldBindJSON(&req)

	rel, err := h.svc.BlockUser(userID, c.Param("user_id"), req.Reason, req.ReportSpam)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, rel)
}

// Unblock 取消拉黑
func (h *BlockHandler) Unblock(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	rel, err := h.svc.UnblockUser(userID, c.Param("user_id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, rel)
}

// Blocks 当前用户的拉黑列表
func (h *BlockHandler) Blocks(c *gin.Context) {
	h.listOwn(c, h.svc.BlockedUsers)
}

// Mute 静音用户
func (h *BlockHandler) Mute(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req muteRequest
	_ = c.ShouldBindJSON(&req)

	// include_reshares 缺省时转发也一并静音
	includeReshares := true
	if req.IncludeReshares != nil {
		includeReshares = *req.IncludeReshares
	}

	rel, err := h.svc.MuteUser(userID, c.Param("user_id"), req.Duration, includeReshares)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, rel)
}

// Unmute 取消静音
func (h *BlockHandler) Unmute(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	rel, err := h.svc.UnmuteUser(userID, c.Param("user_id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, rel)
}

// Mutes 当前用户的静音列表
func (h *BlockHandler) Mutes(c *gin.Context) {
	h.listOwn(c, h.svc.MutedUsers)
}

func (h *BlockHandler) listOwn(c *gin.Context, list func(string, int, string) (*service.UserPage, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		utils.BadRequest(c, "limit must be an integer")
		return
	}

	page, err := list(userID, limit, c.Query("cursor"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, page)
}

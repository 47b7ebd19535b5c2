package handler

import (
	"pulse_social/middleware"
	"pulse_social/service"
	"pulse_social/utils"

	"github.com/gin-gonic/gin"
)

type RelationshipHandler struct {
	svc *service.FollowService
}

func NewRelationshipHandler(svc *service.FollowService) *RelationshipHandler {
	return &RelationshipHandler{svc: svc}
}

// interactionRequest 互动上报请求体
type interactionRequest struct {
	Type   string  `json:"type" binding:"required"`
	Weight float64 `json:"weight"`
}

// Get 查询与目标用户的关系（viewer 视角）
func (h *RelationshipHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	view, err := h.svc.GetRelationship(userID, c.Param("user_id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, view)
}

// AddCloseFriend 标记密友
func (h *RelationshipHandler) AddCloseFriend(c *gin.Context) {
	h.setCloseFriend(c, true)
}

// RemoveCloseFriend 取消密友
func (h *RelationshipHandler) RemoveCloseFriend(c *gin.Context) {
	h.setCloseFriend(c, false)
}

func (h *RelationshipHandler) setCloseFriend(c *gin.Context, active bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	rel, err := h.svc.SetCloseFriend(userID, c.Param("user_id"), active)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, rel)
}

// RecordInteraction 上报一次互动
func (h *RelationshipHandler) RecordInteraction(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "type is required")
		return
	}

	rel, err := h.svc.RecordInteraction(userID, c.Param("user_id"), req.Type, req.Weight)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, rel)
}

package handler

import (
	"pulse_social/middleware"
	"pulse_social/service"
	"pulse_social/utils"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	svc *service.FollowService
}

func NewAnalyticsHandler(svc *service.FollowService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// SocialMetrics 用户社交指标
func (h *AnalyticsHandler) SocialMetrics(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		utils.Unauthorized(c, "Unauthorized")
		return
	}

	metrics, err := h.svc.GetSocialMetrics(c.Param("user_id"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, metrics)
}

package middleware

import (
	"fmt"
	"log"

	"pulse_social/ratelimit"
	"pulse_social/utils"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 按动作类别限流，客户端标识取认证后的用户 ID
// 限流必须在认证之后挂载
func RateLimitMiddleware(limiters *ratelimit.Set, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			utils.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		allowed, resetSeconds := checkQuota(limiters.Limiter(action), userID)
		if !allowed {
			utils.TooManyRequests(c, fmt.Sprintf("rate limit exceeded, try again in %d seconds", resetSeconds))
			c.Abort()
			return
		}
		c.Next()
	}
}

// checkQuota 配额检查，限流器内部异常时放行（fail-open）
// 限流器故障不能变成针对正常用户的拒绝服务
func checkQuota(l *ratelimit.Limiter, clientID string) (allowed bool, resetSeconds int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] rate limiter failure, allowing request: %v", r)
			allowed = true
			resetSeconds = 0
		}
	}()

	if l.Allowed(clientID) {
		return true, 0
	}
	return false, l.ResetSeconds(clientID)
}

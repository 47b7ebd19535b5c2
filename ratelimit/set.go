package ratelimit

import (
	"context"
	"time"
)

// 动作类别：每类有独立配额和独立的桶
const (
	ActionFollow  = "follow"
	ActionBlock   = "block"
	ActionUnblock = "unblock"
	ActionMute    = "mute"
	ActionGeneral = "general"
)

// Set 按动作类别组织的限流器集合
type Set struct {
	limiters map[string]*Limiter
	general  *Limiter
}

// NewSet 按配额表创建限流器集合，general 类别兜底
func NewSet(window time.Duration, limits map[string]int, opts ...Option) *Set {
	s := &Set{limiters: make(map[string]*Limiter, len(limits))}
	for action, limit := range limits {
		s.limiters[action] = New(limit, window, opts...)
	}
	if s.limiters[ActionGeneral] == nil {
		s.limiters[ActionGeneral] = New(1000, window, opts...)
	}
	s.general = s.limiters[ActionGeneral]
	return s
}

// Limiter 取指定动作类别的限流器，未配置时回退到 general
func (s *Set) Limiter(action string) *Limiter {
	if l, ok := s.limiters[action]; ok {
		return l
	}
	return s.general
}

// StartJanitors 启动所有限流器的后台清理
func (s *Set) StartJanitors(ctx context.Context) {
	for _, l := range s.limiters {
		l.StartJanitor(ctx)
	}
}

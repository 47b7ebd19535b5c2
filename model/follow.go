package model

import "time"

// FollowEdge 有向关注边（follower -> following），携带互动历史和单边设置
// 取关为软删除（Active=false），记录永不物理删除
type FollowEdge struct {
	FollowerID  string     `json:"follower_id"`
	FollowingID string     `json:"following_id"`
	Kind        FollowKind `json:"kind"`
	Active      bool       `json:"active"`

	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	UnfollowedAt      *time.Time `json:"unfollowed_at,omitempty"`
	LastInteractionAt time.Time  `json:"last_interaction_at"`

	InteractionCount uint64  `json:"interaction_count"`
	EngagementScore  float64 `json:"engagement_score"` // [0,100]

	PrivacyLevel      PrivacyLevel      `json:"privacy_level"`
	Muted             bool              `json:"muted"`
	ShowReshares      bool              `json:"show_reshares"`
	ShowReplies       bool              `json:"show_replies"`
	CloseFriend       bool              `json:"close_friend"`
	NotificationLevel NotificationLevel `json:"notification_level"`

	Source string `json:"source"` // 关注来源（api、recommendation 等）
}

// NewFollowEdge 创建激活状态的关注边
func NewFollowEdge(followerID, followingID string, kind FollowKind, source string, now time.Time) *FollowEdge {
	if source == "" {
		source = "api"
	}
	return &FollowEdge{
		FollowerID:        followerID,
		FollowingID:       followingID,
		Kind:              kind,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
		LastInteractionAt: now,
		PrivacyLevel:      PrivacyPublic,
		ShowReshares:      true,
		ShowReplies:       true,
		NotificationLevel: NotifyAll,
		Source:            source,
	}
}

// Clone 拷贝关注边快照
func (e *FollowEdge) Clone() *FollowEdge {
	if e == nil {
		return nil
	}
	dup := *e
	if e.UnfollowedAt != nil {
		t := *e.UnfollowedAt
		dup.UnfollowedAt = &t
	}
	return &dup
}

// Deactivate 软删除：保留审计历史，仅置为不激活
func (e *FollowEdge) Deactivate(now time.Time) {
	e.Active = false
	e.CloseFriend = false
	e.UnfollowedAt = &now
	e.UpdatedAt = now
}

// Reactivate 重新关注已有的边
func (e *FollowEdge) Reactivate(kind FollowKind, source string, now time.Time) {
	e.Active = true
	e.Kind = kind
	e.UnfollowedAt = nil
	e.UpdatedAt = now
	if source != "" {
		e.Source = source
	}
}

// IsValid 边级一致性校验
func (e *FollowEdge) IsValid(now time.Time) bool {
	if err := ValidateUserPair(e.FollowerID, e.FollowingID); err != nil {
		return false
	}
	if e.EngagementScore < 0 || e.EngagementScore > 100 {
		return false
	}
	if e.CreatedAt.After(now) || e.UpdatedAt.After(now) || e.LastInteractionAt.After(now) {
		return false
	}
	return true
}

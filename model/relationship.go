package model

import "time"

// Relationship 无序对聚合视图：两个方向的关注/拉黑/静音状态 + 统计
// 只在读取时由存储层的有向边和状态标志推导，不单独落库
type Relationship struct {
	User1ID string `json:"user1_id"` // 规范序（字典序较小者）
	User2ID string `json:"user2_id"`

	User1FollowsUser2 bool `json:"user1_follows_user2"`
	User2FollowsUser1 bool `json:"user2_follows_user1"`
	User1BlockedUser2 bool `json:"user1_blocked_user2"`
	User2BlockedUser1 bool `json:"user2_blocked_user1"`
	User1MutedUser2   bool `json:"user1_muted_user2"`
	User2MutedUser1   bool `json:"user2_muted_user1"`

	CloseFriends bool `json:"close_friends"`
	Verified     bool `json:"verified"`

	User1FollowedAt   *time.Time `json:"user1_followed_at,omitempty"`
	User2FollowedAt   *time.Time `json:"user2_followed_at,omitempty"`
	LastInteractionAt time.Time  `json:"last_interaction_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	User1InteractionCount uint64 `json:"user1_interaction_count"`
	User2InteractionCount uint64 `json:"user2_interaction_count"`
	MutualFollowersCount  int    `json:"mutual_followers_count"`

	EngagementRate float64 `json:"engagement_rate"` // >= 0
}

// IsMutual 双向关注
func (r *Relationship) IsMutual() bool {
	return r.User1FollowsUser2 && r.User2FollowsUser1
}

// IsBlocked 任一方向存在拉黑
func (r *Relationship) IsBlocked() bool {
	return r.User1BlockedUser2 || r.User2BlockedUser1
}

// Follows viewer 是否关注对方
func (r *Relationship) Follows(viewerID string) bool {
	if viewerID == r.User1ID {
		return r.User1FollowsUser2
	}
	return r.User2FollowsUser1
}

// FollowedBy viewer 是否被对方关注
func (r *Relationship) FollowedBy(viewerID string) bool {
	if viewerID == r.User1ID {
		return r.User2FollowsUser1
	}
	return r.User1FollowsUser2
}

// Blocks viewer 是否拉黑了对方
func (r *Relationship) Blocks(viewerID string) bool {
	if viewerID == r.User1ID {
		return r.User1BlockedUser2
	}
	return r.User2BlockedUser1
}

// BlockedBy viewer 是否被对方拉黑
func (r *Relationship) BlockedBy(viewerID string) bool {
	if viewerID == r.User1ID {
		return r.User2BlockedUser1
	}
	return r.User1BlockedUser2
}

// Mutes viewer 是否静音了对方
func (r *Relationship) Mutes(viewerID string) bool {
	if viewerID == r.User1ID {
		return r.User1MutedUser2
	}
	return r.User2MutedUser1
}

// TypeFor 从 viewer 视角判定关系状态
// 判定优先级固定：拉黑 > 关注 > 静音，拉黑永远优先上报
func (r *Relationship) TypeFor(viewerID string) RelationshipType {
	if r.Blocks(viewerID) {
		return RelationBlocked
	}
	if r.BlockedBy(viewerID) {
		return RelationBlockedBy
	}

	follows := r.Follows(viewerID)
	followedBy := r.FollowedBy(viewerID)
	switch {
	case follows && followedBy:
		if r.CloseFriends {
			return RelationCloseFriends
		}
		return RelationMutual
	case follows:
		return RelationFollowing
	case followedBy:
		return RelationFollowedBy
	}

	if r.Mutes(viewerID) {
		return RelationMuted
	}
	return RelationNone
}

// Validate 聚合视图不变量校验
func (r *Relationship) Validate(now time.Time) error {
	if r.User1ID == r.User2ID {
		return NewValidationError("relationship cannot reference the same user twice")
	}
	if r.IsBlocked() && (r.User1FollowsUser2 || r.User2FollowsUser1 || r.CloseFriends) {
		return NewConflictError("blocked relationship cannot carry follow state")
	}
	if r.CloseFriends && !r.IsMutual() {
		return NewConflictError("close friends requires mutual follow")
	}
	if r.EngagementRate < 0 {
		return NewValidationError("engagement rate cannot be negative")
	}
	if r.CreatedAt.After(now) || r.UpdatedAt.After(now) || r.LastInteractionAt.After(now) {
		return NewValidationError("timestamps cannot be in the future")
	}
	return nil
}

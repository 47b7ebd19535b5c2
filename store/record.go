package store

import (
	"sync"
	"time"

	"pulse_social/model"
)

// pairState 一对用户的全部可变状态
// 方向下标约定：0 = user1 -> user2，1 = user2 -> user1
type pairState struct {
	edges [2]*model.FollowEdge // 有向关注边，惰性创建

	blocked     [2]bool
	blockedAt   [2]*time.Time
	blockReason [2]string

	muted            [2]bool
	muteUntil        [2]*time.Time // nil = 永久
	muteShowReshares [2]bool
	mutedAt          [2]*time.Time

	closeFriends bool
	verified     bool

	interactionCount  [2]uint64
	engagementRate    float64
	lastInteractionAt time.Time

	createdAt time.Time
	updatedAt time.Time
}

// pairRecord 存储单元：状态 + 该记录独占的互斥锁
type pairRecord struct {
	key   PairKey
	mu    sync.Mutex
	state pairState
}

func newPairRecord(key PairKey, now time.Time) *pairRecord {
	return &pairRecord{
		key: key,
		state: pairState{
			createdAt:         now,
			updatedAt:         now,
			lastInteractionAt: now,
		},
	}
}

// clone 深拷贝状态，用于变更失败时回滚
func (s *pairState) clone() pairState {
	dup := *s
	for i := range s.edges {
		dup.edges[i] = s.edges[i].Clone()
	}
	for i := range s.blockedAt {
		dup.blockedAt[i] = cloneTime(s.blockedAt[i])
		dup.muteUntil[i] = cloneTime(s.muteUntil[i])
		dup.mutedAt[i] = cloneTime(s.mutedAt[i])
	}
	return dup
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	dup := *t
	return &dup
}

// pruneExpiredMutes 惰性清理已过期的静音，返回是否有清理发生
func (s *pairState) pruneExpiredMutes(now time.Time) bool {
	changed := false
	for i := range s.muted {
		if s.muted[i] && s.muteUntil[i] != nil && now.After(*s.muteUntil[i]) {
			s.muted[i] = false
			s.muteUntil[i] = nil
			s.mutedAt[i] = nil
			changed = true
		}
	}
	return changed
}

// followActive 指定方向是否存在激活的关注边
func (s *pairState) followActive(dir int) bool {
	return s.edges[dir] != nil && s.edges[dir].Active
}

// syncCloseFriend 把密友标记同步到两条关注边，避免边上残留过期标记影响强度计算
func (s *pairState) syncCloseFriend(now time.Time) {
	for i := range s.edges {
		edge := s.edges[i]
		if edge == nil {
			continue
		}
		want := s.closeFriends && edge.Active
		if edge.CloseFriend != want {
			edge.CloseFriend = want
			edge.UpdatedAt = now
		}
	}
}

// view 推导无序对聚合视图（读路径唯一的关系来源）
func (s *pairState) view(key PairKey, mutualFollowers int) *model.Relationship {
	rel := &model.Relationship{
		User1ID:               key.User1,
		User2ID:               key.User2,
		User1FollowsUser2:     s.followActive(0),
		User2FollowsUser1:     s.followActive(1),
		User1BlockedUser2:     s.blocked[0],
		User2BlockedUser1:     s.blocked[1],
		User1MutedUser2:       s.muted[0],
		User2MutedUser1:       s.muted[1],
		CloseFriends:          s.closeFriends,
		Verified:              s.verified,
		LastInteractionAt:     s.lastInteractionAt,
		CreatedAt:             s.createdAt,
		UpdatedAt:             s.updatedAt,
		User1InteractionCount: s.interactionCount[0],
		User2InteractionCount: s.interactionCount[1],
		MutualFollowersCount:  mutualFollowers,
		EngagementRate:        s.engagementRate,
	}
	if s.followActive(0) {
		t := s.edges[0].CreatedAt
		rel.User1FollowedAt = &t
	}
	if s.followActive(1) {
		t := s.edges[1].CreatedAt
		rel.User2FollowedAt = &t
	}
	return rel
}

// validate 变更后的不变量复查
func (s *pairState) validate(key PairKey, now time.Time) error {
	rel := s.view(key, 0)
	if err := rel.Validate(now); err != nil {
		return err
	}
	for _, edge := range s.edges {
		if edge != nil && !edge.IsValid(now) {
			return model.NewConflictError("follow edge failed consistency check")
		}
	}
	return nil
}

package store

import (
	"sort"
	"sync"
	"time"

	"pulse_social/model"
	"pulse_social/scoring"
)

// 分片数：把锁竞争限制在单个关系对附近
const numShards = 64

type shard struct {
	mu      sync.RWMutex
	records map[PairKey]*pairRecord
}

// Store 关系存储：独占持有全部关注边和关系状态
// 变更按规范对串行化，不相关的对可以完全并行
type Store struct {
	shards [numShards]*shard

	// 每用户索引（关注列表、粉丝列表、拉黑、静音），独立于记录锁
	idxMu     sync.RWMutex
	following map[string]map[string]struct{}
	followers map[string]map[string]struct{}
	blocked   map[string]map[string]struct{}
	muted     map[string]map[string]struct{}
}

// New 创建空存储
func New() *Store {
	s := &Store{
		following: make(map[string]map[string]struct{}),
		followers: make(map[string]map[string]struct{}),
		blocked:   make(map[string]map[string]struct{}),
		muted:     make(map[string]map[string]struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[PairKey]*pairRecord)}
	}
	return s
}

// MutationResult 单次变更的结果快照
type MutationResult struct {
	Relationship *model.Relationship
	OldType      model.RelationshipType // actor 视角，变更前
	NewType      model.RelationshipType // actor 视角，变更后
	Changed      bool
}

// record 查找记录，create 为真时首次访问即创建默认空记录
func (s *Store) record(key PairKey, create bool) *pairRecord {
	sh := s.shards[key.shardIndex(numShards)]

	sh.mu.RLock()
	rec, ok := sh.records[key]
	sh.mu.RUnlock()
	if ok || !create {
		return rec
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if rec, ok = sh.records[key]; ok {
		return rec
	}
	rec = newPairRecord(key, time.Now())
	sh.records[key] = rec
	return rec
}

// mutate 变更骨架：锁定单条记录，拷贝状态、应用变更、复查不变量
// 校验失败时不提交（回滚到先前的合法状态）
func (s *Store) mutate(actorID, targetID string, fn func(st *pairState, key PairKey, now time.Time) error) (*MutationResult, error) {
	if err := model.ValidateUserPair(actorID, targetID); err != nil {
		return nil, err
	}

	key := NewPairKey(actorID, targetID)
	rec := s.record(key, true)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := time.Now()
	rec.state.pruneExpiredMutes(now)

	before := stateFingerprint(&rec.state)
	oldType := rec.state.view(key, 0).TypeFor(actorID)

	next := rec.state.clone()
	if err := fn(&next, key, now); err != nil {
		return nil, err
	}
	next.updatedAt = now
	if err := next.validate(key, now); err != nil {
		return nil, err
	}

	rec.state = next
	s.reindex(key, &next)

	rel := next.view(key, s.mutualFollowerCount(key.User1, key.User2))
	return &MutationResult{
		Relationship: rel,
		OldType:      oldType,
		NewType:      rel.TypeFor(actorID),
		Changed:      before != stateFingerprint(&next),
	}, nil
}

// stateFingerprint 状态标志指纹，用于判定变更是否实际生效（幂等检测）
func stateFingerprint(st *pairState) [7]bool {
	return [7]bool{
		st.followActive(0), st.followActive(1),
		st.blocked[0], st.blocked[1],
		st.muted[0], st.muted[1],
		st.closeFriends,
	}
}

// SetFollow 建立或解除关注（解除为软删除）
func (s *Store) SetFollow(followerID, followingID string, active bool, kind model.FollowKind, source string) (*MutationResult, error) {
	return s.mutate(followerID, followingID, func(st *pairState, key PairKey, now time.Time) error {
		dir := key.dirIndex(followerID)

		if active {
			// 不变量 4：任一方向存在拉黑时禁止新建关注
			if st.blocked[key.dirIndex(followingID)] {
				return model.NewConflictError("cannot follow a user who has blocked you")
			}
			if st.blocked[dir] {
				return model.NewConflictError("cannot follow a user you have blocked")
			}
			if st.edges[dir] == nil {
				st.edges[dir] = model.NewFollowEdge(followerID, followingID, kind, source, now)
			} else if !st.edges[dir].Active {
				st.edges[dir].Reactivate(kind, source, now)
			}
			return nil
		}

		if st.edges[dir] != nil && st.edges[dir].Active {
			st.edges[dir].Deactivate(now)
		}
		// 单向取关后密友关系不再成立
		if !st.followActive(0) || !st.followActive(1) {
			st.closeFriends = false
		}
		st.syncCloseFriend(now)
		return nil
	})
}

// SetBlock 拉黑/取消拉黑
// 拉黑无条件级联：清除双向关注和密友标记，不管先前状态如何
func (s *Store) SetBlock(blockerID, blockedID string, active bool, reason string) (*MutationResult, error) {
	return s.mutate(blockerID, blockedID, func(st *pairState, key PairKey, now time.Time) error {
		dir := key.dirIndex(blockerID)

		if active {
			st.blocked[dir] = true
			st.blockedAt[dir] = &now
			st.blockReason[dir] = reason
			for i := range st.edges {
				if st.edges[i] != nil && st.edges[i].Active {
					st.edges[i].Deactivate(now)
				}
			}
			st.closeFriends = false
			st.syncCloseFriend(now)
			return nil
		}

		// 取消未拉黑的对象是无操作成功（幂等）
		st.blocked[dir] = false
		st.blockedAt[dir] = nil
		st.blockReason[dir] = ""
		return nil
	})
}

// SetMute 静音/取消静音，支持限时静音，过期惰性清理
func (s *Store) SetMute(muterID, mutedID string, active bool, duration model.MuteDuration, showReshares bool) (*MutationResult, error) {
	return s.mutate(muterID, mutedID, func(st *pairState, key PairKey, now time.Time) error {
		dir := key.dirIndex(muterID)

		if active {
			st.muted[dir] = true
			st.mutedAt[dir] = &now
			st.muteShowReshares[dir] = showReshares
			st.muteUntil[dir] = nil
			if h := duration.Hours(); h > 0 {
				until := now.Add(time.Duration(h) * time.Hour)
				st.muteUntil[dir] = &until
			}
		} else {
			st.muted[dir] = false
			st.mutedAt[dir] = nil
			st.muteUntil[dir] = nil
		}

		// 同步到 muter 自己的关注边设置
		if edge := st.edges[dir]; edge != nil {
			edge.Muted = active
			edge.ShowReshares = !active || showReshares
			edge.UpdatedAt = now
		}
		return nil
	})
}

// SetCloseFriend 标记/取消密友，要求双向关注
func (s *Store) SetCloseFriend(actorID, targetID string, active bool) (*MutationResult, error) {
	return s.mutate(actorID, targetID, func(st *pairState, key PairKey, now time.Time) error {
		if active {
			if !st.followActive(0) || !st.followActive(1) {
				return model.NewConflictError("close friends requires mutual follow")
			}
			st.closeFriends = true
		} else {
			st.closeFriends = false
		}

		st.syncCloseFriend(now)
		return nil
	})
}

// RecordInteraction 记录一次互动：更新计数、时间戳、边互动分、关系对互动率
func (s *Store) RecordInteraction(fromID, toID string, kind model.InteractionKind, weight float64) (*MutationResult, error) {
	if weight <= 0 {
		weight = 1.0
	}
	return s.mutate(fromID, toID, func(st *pairState, key PairKey, now time.Time) error {
		if st.blocked[0] || st.blocked[1] {
			return model.NewConflictError("cannot interact within a blocked relationship")
		}

		dir := key.dirIndex(fromID)
		st.interactionCount[dir]++
		st.engagementRate = scoring.NextEngagementRate(st.engagementRate, kind, weight)
		st.lastInteractionAt = now

		if edge := st.edges[dir]; edge != nil && edge.Active {
			edge.EngagementScore = scoring.NextEngagementScore(edge.EngagementScore, kind, weight, edge.LastInteractionAt, now)
			edge.InteractionCount++
			edge.LastInteractionAt = now
			edge.UpdatedAt = now
		}
		return nil
	})
}

// GetRelationship 读取聚合视图，首次访问创建默认空记录
// 返回的是一致性快照，不会暴露写入中途的状态
func (s *Store) GetRelationship(a, b string) (*model.Relationship, error) {
	rel, _, _, err := s.RelationshipDetail(a, b)
	return rel, err
}

// RelationshipDetail 聚合视图 + 两个方向的关注边快照（分析/评分用）
func (s *Store) RelationshipDetail(a, b string) (*model.Relationship, *model.FollowEdge, *model.FollowEdge, error) {
	if err := model.ValidateUserPair(a, b); err != nil {
		return nil, nil, nil, err
	}

	key := NewPairKey(a, b)
	rec := s.record(key, true)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	// 惰性清理过期静音；有清理时同步每用户索引，避免索引残留过期条目
	if rec.state.pruneExpiredMutes(time.Now()) {
		s.reindex(key, &rec.state)
	}
	rel := rec.state.view(key, s.mutualFollowerCount(key.User1, key.User2))

	forward := rec.state.edges[key.dirIndex(a)].Clone()
	backward := rec.state.edges[key.dirIndex(b)].Clone()
	return rel, forward, backward, nil
}

// IsBlocked 任一方向是否存在拉黑（不创建记录）
func (s *Store) IsBlocked(a, b string) bool {
	rec := s.record(NewPairKey(a, b), false)
	if rec == nil {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state.blocked[0] || rec.state.blocked[1]
}

// ===== 索引维护 =====

// reindex 把一个关系对的状态同步进每用户索引（调用方持有记录锁）
func (s *Store) reindex(key PairKey, st *pairState) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()

	s.setMembership(s.following, key.User1, key.User2, st.followActive(0))
	s.setMembership(s.followers, key.User2, key.User1, st.followActive(0))
	s.setMembership(s.following, key.User2, key.User1, st.followActive(1))
	s.setMembership(s.followers, key.User1, key.User2, st.followActive(1))

	s.setMembership(s.blocked, key.User1, key.User2, st.blocked[0])
	s.setMembership(s.blocked, key.User2, key.User1, st.blocked[1])
	s.setMembership(s.muted, key.User1, key.User2, st.muted[0])
	s.setMembership(s.muted, key.User2, key.User1, st.muted[1])
}

func (s *Store) setMembership(idx map[string]map[string]struct{}, owner, target string, present bool) {
	set := idx[owner]
	if present {
		if set == nil {
			set = make(map[string]struct{})
			idx[owner] = set
		}
		set[target] = struct{}{}
		return
	}
	if set != nil {
		delete(set, target)
		if len(set) == 0 {
			delete(idx, owner)
		}
	}
}

// mutualFollowerCount 两个用户的共同粉丝数
func (s *Store) mutualFollowerCount(a, b string) int {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()

	fa, fb := s.followers[a], s.followers[b]
	if len(fa) > len(fb) {
		fa, fb = fb, fa
	}
	count := 0
	for id := range fa {
		if _, ok := fb[id]; ok {
			count++
		}
	}
	return count
}

// ===== 列表查询 =====

// Followers 粉丝列表（字典序 + 游标分页）
func (s *Store) Followers(userID string, limit int, cursor string) ([]string, string) {
	return s.pageIndex(s.followers, userID, limit, cursor)
}

// Following 关注列表（字典序 + 游标分页）
func (s *Store) Following(userID string, limit int, cursor string) ([]string, string) {
	return s.pageIndex(s.following, userID, limit, cursor)
}

// BlockedUsers 该用户拉黑的列表
func (s *Store) BlockedUsers(userID string, limit int, cursor string) ([]string, string) {
	return s.pageIndex(s.blocked, userID, limit, cursor)
}

// MutedUsers 该用户静音的列表（过滤已过期的限时静音）
func (s *Store) MutedUsers(userID string, limit int, cursor string) ([]string, string) {
	candidates, next := s.pageIndex(s.muted, userID, limit, cursor)

	result := make([]string, 0, len(candidates))
	for _, target := range candidates {
		rel, err := s.GetRelationship(userID, target)
		if err == nil && rel.Mutes(userID) {
			result = append(result, target)
		}
	}
	return result, next
}

func (s *Store) pageIndex(idx map[string]map[string]struct{}, owner string, limit int, cursor string) ([]string, string) {
	s.idxMu.RLock()
	set := idx[owner]
	ids := make([]string, 0, len(set))
	for id := range set {
		if cursor == "" || id > cursor {
			ids = append(ids, id)
		}
	}
	s.idxMu.RUnlock()

	sort.Strings(ids)
	next := ""
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
		next = ids[len(ids)-1]
	}
	return ids, next
}

// FollowerCount 粉丝数
func (s *Store) FollowerCount(userID string) int {
	return s.indexSize(s.followers, userID)
}

// FollowingCount 关注数
func (s *Store) FollowingCount(userID string) int {
	return s.indexSize(s.following, userID)
}

func (s *Store) indexSize(idx map[string]map[string]struct{}, owner string) int {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()
	return len(idx[owner])
}

// MutualFollowIDs 该用户的双向关注集合（关注 ∩ 粉丝）
func (s *Store) MutualFollowIDs(userID string) []string {
	s.idxMu.RLock()
	defer s.idxMu.RUnlock()

	out := make([]string, 0)
	for id := range s.following[userID] {
		if _, ok := s.followers[userID][id]; ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

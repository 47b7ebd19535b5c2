package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pulse_social/model"
	"pulse_social/scoring"
	"pulse_social/store"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 关系事件广播的 Redis channel
const eventChannel = "relationship:events"

// 列表分页参数边界
const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// EventNotifier 关系事件推送接口（WebSocket Hub 实现）
type EventNotifier interface {
	NotifyRelationshipEvent(ev *model.RelationshipEvent)
}

// FollowService 关系服务：编排存储变更、评分、事件和异步副作用
// 内存存储是权威数据；落库、缓存失效、事件推送全部在热路径之外
type FollowService struct {
	store   *store.Store
	db      *gorm.DB      // 可为 nil：关闭审计落库
	rdb     *redis.Client // 可为 nil：关闭缓存失效通知
	metrics *Metrics

	notifier       EventNotifier
	maxBulkTargets int
}

// NewFollowService 创建关系服务
func NewFollowService(st *store.Store, db *gorm.DB, rdb *redis.Client, metrics *Metrics, maxBulkTargets int) *FollowService {
	if maxBulkTargets <= 0 {
		maxBulkTargets = 100
	}
	return &FollowService{
		store:          st,
		db:             db,
		rdb:            rdb,
		metrics:        metrics,
		maxBulkTargets: maxBulkTargets,
	}
}

// SetNotifier 注入事件推送器（用于 WebSocket 实时通知）
func (s *FollowService) SetNotifier(n EventNotifier) {
	s.notifier = n
}

// Store 暴露底层存储（测试和分析用）
func (s *FollowService) Store() *store.Store {
	return s.store
}

// RelationshipView 对外返回的关系视图：聚合记录 + viewer 视角状态 + 强度
type RelationshipView struct {
	Relationship *model.Relationship    `json:"relationship"`
	Type         model.RelationshipType `json:"type"`
	Strength     float64                `json:"strength"`
}

// ===== 关注 =====

// FollowUser 关注用户
func (s *FollowService) FollowUser(followerID, followingID, kindStr, source string) (rel *model.Relationship, err error) {
	defer s.metrics.Track("follow_user", time.Now(), &err)

	kind, kerr := model.ParseFollowKind(kindStr)
	if kerr != nil {
		return nil, model.NewValidationError(kerr.Error())
	}

	res, err := s.store.SetFollow(followerID, followingID, true, kind, source)
	if err != nil {
		return nil, err
	}
	s.afterMutation(followerID, followingID, model.ActionFollow, res)
	return res.Relationship, nil
}

// UnfollowUser 取关（软删除，幂等）
func (s *FollowService) UnfollowUser(followerID, followingID string) (rel *model.Relationship, err error) {
	defer s.metrics.Track("unfollow_user", time.Now(), &err)

	res, err := s.store.SetFollow(followerID, followingID, false, model.FollowStandard, "")
	if err != nil {
		return nil, err
	}
	s.afterMutation(followerID, followingID, model.ActionUnfollow, res)
	return res.Relationship, nil
}

// ===== 拉黑 =====

// BlockUser 拉黑用户，可选附带垃圾举报
// 举报是 fire-and-forget：举报失败绝不影响拉黑本身
func (s *FollowService) BlockUser(blockerID, blockedID, reason string, reportSpam bool) (rel *model.Relationship, err error) {
	defer s.metrics.Track("block_user", time.Now(), &err)

	res, err := s.store.SetBlock(blockerID, blockedID, true, reason)
	if err != nil {
		return nil, err
	}
	s.afterMutation(blockerID, blockedID, model.ActionBlock, res)

	if reportSpam {
		go s.submitSpamReport(model.NewSpamReport(blockerID, blockedID, reason))
	}
	return res.Relationship, nil
}

// UnblockUser 取消拉黑（未拉黑时为无操作成功）
func (s *FollowService) UnblockUser(blockerID, blockedID string) (rel *model.Relationship, err error) {
	defer s.metrics.Track("unblock_user", time.Now(), &err)

	res, err := s.store.SetBlock(blockerID, blockedID, false, "")
	if err != nil {
		return nil, err
	}
	s.afterMutation(blockerID, blockedID, model.ActionUnblock, res)
	return res.Relationship, nil
}

// ===== 静音 =====

// MuteUser 静音用户，支持限时静音
func (s *FollowService) MuteUser(muterID, mutedID, durationStr string, includeReshares bool) (rel *model.Relationship, err error) {
	defer s.metrics.Track("mute_user", time.Now(), &err)

	duration, derr := model.ParseMuteDuration(durationStr)
	if derr != nil {
		return nil, model.NewValidationError(derr.Error())
	}

	// include_reshares 表示转发也一并静音，对应边上 ShowReshares 置假
	res, err := s.store.SetMute(muterID, mutedID, true, duration, !includeReshares)
	if err != nil {
		return nil, err
	}
	s.afterMutation(muterID, mutedID, model.ActionMute, res)
	return res.Relationship, nil
}

// UnmuteUser 取消静音（幂等）
func (s *FollowService) UnmuteUser(muterID, mutedID string) (rel *model.Relationship, err error) {
	defer s.metrics.Track("unmute_user", time.Now(), &err)

	res, err := s.store.SetMute(muterID, mutedID, false, model.MutePermanent, true)
	if err != nil {
		return nil, err
	}
	s.afterMutation(muterID, mutedID, model.ActionUnmute, res)
	return res.Relationship, nil
}

// ===== 密友 =====

// SetCloseFriend 标记/取消密友（标记要求双向关注）
func (s *FollowService) SetCloseFriend(actorID, targetID string, active bool) (rel *model.Relationship, err error) {
	defer s.metrics.Track("set_close_friend", time.Now(), &err)

	res, err := s.store.SetCloseFriend(actorID, targetID, active)
	if err != nil {
		return nil, err
	}
	s.afterMutation(actorID, targetID, model.ActionCloseFriend, res)
	return res.Relationship, nil
}

// ===== 互动 =====

// RecordInteraction 记录一次互动
func (s *FollowService) RecordInteraction(fromID, toID, kindStr string, weight float64) (rel *model.Relationship, err error) {
	defer s.metrics.Track("record_interaction", time.Now(), &err)

	kind, kerr := model.ParseInteractionKind(kindStr)
	if kerr != nil {
		return nil, model.NewValidationError(kerr.Error())
	}

	res, err := s.store.RecordInteraction(fromID, toID, kind, weight)
	if err != nil {
		return nil, err
	}
	s.invalidateCaches(fromID, toID)
	return res.Relationship, nil
}

// ===== 查询 =====

// GetRelationship viewer 视角的关系视图，强度每次按需重算
func (s *FollowService) GetRelationship(viewerID, otherID string) (view *RelationshipView, err error) {
	defer s.metrics.Track("get_relationship", time.Now(), &err)

	rel, forward, backward, err := s.store.RelationshipDetail(viewerID, otherID)
	if err != nil {
		return nil, err
	}
	return &RelationshipView{
		Relationship: rel,
		Type:         rel.TypeFor(viewerID),
		Strength:     scoring.PairStrength(rel, forward, backward, time.Now()),
	}, nil
}

// UserPage 分页的用户 ID 列表
type UserPage struct {
	UserIDs    []string `json:"user_ids"`
	Count      int      `json:"count"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// Followers 粉丝列表
func (s *FollowService) Followers(userID string, limit int, cursor string) (page *UserPage, err error) {
	defer s.metrics.Track("get_followers", time.Now(), &err)
	return s.page(userID, limit, cursor, s.store.Followers)
}

// Following 关注列表
func (s *FollowService) Following(userID string, limit int, cursor string) (page *UserPage, err error) {
	defer s.metrics.Track("get_following", time.Now(), &err)
	return s.page(userID, limit, cursor, s.store.Following)
}

// BlockedUsers 拉黑列表
func (s *FollowService) BlockedUsers(userID string, limit int, cursor string) (page *UserPage, err error) {
	defer s.metrics.Track("get_blocked_users", time.Now(), &err)
	return s.page(userID, limit, cursor, s.store.BlockedUsers)
}

// MutedUsers 静音列表
func (s *FollowService) MutedUsers(userID string, limit int, cursor string) (page *UserPage, err error) {
	defer s.metrics.Track("get_muted_users", time.Now(), &err)
	return s.page(userID, limit, cursor, s.store.MutedUsers)
}

func (s *FollowService) page(userID string, limit int, cursor string, list func(string, int, string) ([]string, string)) (*UserPage, error) {
	if err := model.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = defaultPageLimit
	}
	if limit < 1 || limit > maxPageLimit {
		return nil, model.NewValidationError("limit must be between 1 and 200")
	}

	ids, next := list(userID, limit, cursor)
	return &UserPage{UserIDs: ids, Count: len(ids), NextCursor: next}, nil
}

// ===== 批量操作 =====

// BulkOutcome 批量操作中单个目标的结果
type BulkOutcome struct {
	Target    string `json:"target"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
}

// BulkFollow 批量关注：逐目标独立处理，单个失败不影响整批
// 每个目标独立加锁，不会有锁横跨整个批次
func (s *FollowService) BulkFollow(followerID string, targetIDs []string) (outcomes []BulkOutcome, err error) {
	defer s.metrics.Track("bulk_follow", time.Now(), &err)
	return s.bulk(followerID, targetIDs, func(target string) error {
		_, ferr := s.FollowUser(followerID, target, "", "bulk")
		return ferr
	})
}

// BulkUnfollow 批量取关
func (s *FollowService) BulkUnfollow(followerID string, targetIDs []string) (outcomes []BulkOutcome, err error) {
	defer s.metrics.Track("bulk_unfollow", time.Now(), &err)
	return s.bulk(followerID, targetIDs, func(target string) error {
		_, uerr := s.UnfollowUser(followerID, target)
		return uerr
	})
}

func (s *FollowService) bulk(actorID string, targetIDs []string, op func(target string) error) ([]BulkOutcome, error) {
	if err := model.ValidateUserID(actorID); err != nil {
		return nil, err
	}
	if len(targetIDs) == 0 {
		return nil, model.NewValidationError("user_ids cannot be empty")
	}
	if len(targetIDs) > s.maxBulkTargets {
		return nil, model.NewBulkSizeError("bulk operation exceeds maximum target count")
	}

	outcomes := make([]BulkOutcome, 0, len(targetIDs))
	for _, target := range targetIDs {
		if err := op(target); err != nil {
			outcomes = append(outcomes, BulkOutcome{
				Target:    target,
				ErrorCode: model.AsAppError(err).Code,
			})
			continue
		}
		outcomes = append(outcomes, BulkOutcome{Target: target, Success: true})
	}
	return outcomes, nil
}

// ===== 分析 =====

// SocialMetrics 用户的社交指标（全部按需从存储快照推导）
type SocialMetrics struct {
	UserID              string  `json:"user_id"`
	FollowersCount      int     `json:"followers_count"`
	FollowingCount      int     `json:"following_count"`
	MutualCount         int     `json:"mutual_count"`
	AvgEngagementScore  float64 `json:"average_engagement_score"`
	AvgStrength         float64 `json:"average_relationship_strength"`
	TotalInteractions   uint64  `json:"total_interactions"`
	ActiveRelationships int     `json:"active_relationships"`
}

// GetSocialMetrics 聚合用户的社交指标
func (s *FollowService) GetSocialMetrics(userID string) (m *SocialMetrics, err error) {
	defer s.metrics.Track("get_social_metrics", time.Now(), &err)

	if err := model.ValidateUserID(userID); err != nil {
		return nil, err
	}

	metrics := &SocialMetrics{
		UserID:         userID,
		FollowersCount: s.store.FollowerCount(userID),
		FollowingCount: s.store.FollowingCount(userID),
		MutualCount:    len(s.store.MutualFollowIDs(userID)),
	}

	following, _ := s.store.Following(userID, 0, "")
	now := time.Now()
	var scoreSum, strengthSum float64
	for _, target := range following {
		rel, forward, backward, derr := s.store.RelationshipDetail(userID, target)
		if derr != nil || forward == nil || !forward.Active {
			continue
		}
		metrics.ActiveRelationships++
		metrics.TotalInteractions += forward.InteractionCount
		scoreSum += forward.EngagementScore
		strengthSum += scoring.PairStrength(rel, forward, backward, now)
	}
	if metrics.ActiveRelationships > 0 {
		metrics.AvgEngagementScore = scoreSum / float64(metrics.ActiveRelationships)
		metrics.AvgStrength = strengthSum / float64(metrics.ActiveRelationships)
	}
	return metrics, nil
}

// ===== 异步副作用 =====

// afterMutation 变更后的副作用调度：事件、审计流水、缓存失效
// 全部异步执行，不阻塞调用方响应
func (s *FollowService) afterMutation(actorID, targetID, action string, res *store.MutationResult) {
	if !res.Changed {
		return
	}

	ev := model.NewRelationshipEvent(actorID, targetID, action, res.OldType, res.NewType)

	if s.notifier != nil {
		go s.notifier.NotifyRelationshipEvent(ev)
	}
	go s.appendJournal(ev)
	s.invalidateCaches(actorID, targetID)
	go s.publishEvent(ev)
}

// submitSpamReport 提交垃圾举报，失败只记日志
func (s *FollowService) submitSpamReport(report *model.SpamReport) {
	if s.db == nil {
		log.Printf("[SPAM] report skipped (persistence disabled): %s -> %s", report.ReporterID, report.ReportedID)
		return
	}
	if err := s.db.Create(report).Error; err != nil {
		log.Printf("[ERROR] Failed to submit spam report %s -> %s: %v", report.ReporterID, report.ReportedID, err)
	}
}

// appendJournal 审计流水异步落库
func (s *FollowService) appendJournal(ev *model.RelationshipEvent) {
	if s.db == nil {
		return
	}
	if err := s.db.Create(model.JournalFromEvent(ev)).Error; err != nil {
		log.Printf("[ERROR] Failed to append relationship journal %s: %v", ev.EventID, err)
	}
}

// invalidateCaches 通知依赖方缓存失效，失败只记日志
func (s *FollowService) invalidateCaches(a, b string) {
	if s.rdb == nil {
		return
	}
	key := store.NewPairKey(a, b)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.rdb.Del(ctx,
			"rel:"+key.String(),
			"social_metrics:"+a,
			"social_metrics:"+b,
		).Err(); err != nil {
			log.Printf("[WARN] Cache invalidation failed for %s: %v", key, err)
		}
	}()
}

// publishEvent 把关系事件广播到 Redis channel（跨实例分发）
func (s *FollowService) publishEvent(ev *model.RelationshipEvent) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rdb.Publish(ctx, eventChannel, payload).Err(); err != nil {
		log.Printf("[WARN] Event publish failed for %s: %v", ev.EventID, err)
	}
}

package model

import "fmt"

// FollowKind 关注类型（封闭枚举，未知值在入口处拒绝）
type FollowKind string

const (
	FollowStandard    FollowKind = "standard"
	FollowCloseFriend FollowKind = "close_friend"
	FollowMutual      FollowKind = "mutual"
	FollowPending     FollowKind = "pending"
	FollowRequested   FollowKind = "requested"
)

// ParseFollowKind 解析关注类型，空值回退为 standard
func ParseFollowKind(s string) (FollowKind, error) {
	if s == "" {
		return FollowStandard, nil
	}
	switch k := FollowKind(s); k {
	case FollowStandard, FollowCloseFriend, FollowMutual, FollowPending, FollowRequested:
		return k, nil
	}
	return "", fmt.Errorf("unknown follow kind: %q", s)
}

// NotificationLevel 通知级别
type NotificationLevel string

const (
	NotifyAll       NotificationLevel = "all"
	NotifyImportant NotificationLevel = "important"
	NotifyMentions  NotificationLevel = "mentions"
	NotifyOff       NotificationLevel = "off"
)

// ParseNotificationLevel 解析通知级别，空值回退为 all
func ParseNotificationLevel(s string) (NotificationLevel, error) {
	if s == "" {
		return NotifyAll, nil
	}
	switch l := NotificationLevel(s); l {
	case NotifyAll, NotifyImportant, NotifyMentions, NotifyOff:
		return l, nil
	}
	return "", fmt.Errorf("unknown notification level: %q", s)
}

// PrivacyLevel 关系可见性
type PrivacyLevel string

const (
	PrivacyPublic     PrivacyLevel = "public"
	PrivacyPrivate    PrivacyLevel = "private"
	PrivacyRestricted PrivacyLevel = "restricted"
)

// InteractionKind 互动类型，每种类型有固定权重
type InteractionKind string

const (
	InteractionLike          InteractionKind = "like"
	InteractionReshare       InteractionKind = "reshare"
	InteractionReply         InteractionKind = "reply"
	InteractionMention       InteractionKind = "mention"
	InteractionDirectMessage InteractionKind = "direct_message"
)

var interactionWeights = map[InteractionKind]float64{
	InteractionLike:          1.0,
	InteractionReshare:       2.0,
	InteractionReply:         3.0,
	InteractionMention:       2.5,
	InteractionDirectMessage: 4.0,
}

// ParseInteractionKind 解析互动类型
func ParseInteractionKind(s string) (InteractionKind, error) {
	k := InteractionKind(s)
	if _, ok := interactionWeights[k]; !ok {
		return "", fmt.Errorf("unknown interaction kind: %q", s)
	}
	return k, nil
}

// Weight 互动类型权重
func (k InteractionKind) Weight() float64 {
	return interactionWeights[k]
}

// RelationshipType 对外暴露的关系状态（按 拉黑 > 关注 > 静音 的优先级判定）
type RelationshipType string

const (
	RelationNone         RelationshipType = "none"
	RelationFollowing    RelationshipType = "following"
	RelationFollowedBy   RelationshipType = "followed_by"
	RelationMutual       RelationshipType = "mutual"
	RelationCloseFriends RelationshipType = "close_friends"
	RelationBlocked      RelationshipType = "blocked"
	RelationBlockedBy    RelationshipType = "blocked_by"
	RelationMuted        RelationshipType = "muted"
)

// MuteDuration 静音时长选项
type MuteDuration string

const (
	MutePermanent MuteDuration = "permanent"
	Mute24Hours   MuteDuration = "24h"
	Mute7Days     MuteDuration = "7d"
	Mute30Days    MuteDuration = "30d"
)

// ParseMuteDuration 解析静音时长，空值回退为 permanent
func ParseMuteDuration(s string) (MuteDuration, error) {
	if s == "" {
		return MutePermanent, nil
	}
	switch d := MuteDuration(s); d {
	case MutePermanent, Mute24Hours, Mute7Days, Mute30Days:
		return d, nil
	}
	return "", fmt.Errorf("unknown mute duration: %q", s)
}

// Hours 静音时长对应的小时数（permanent 返回 0）
func (d MuteDuration) Hours() int {
	switch d {
	case Mute24Hours:
		return 24
	case Mute7Days:
		return 7 * 24
	case Mute30Days:
		return 30 * 24
	default:
		return 0
	}
}

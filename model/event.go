package model

import (
	"time"

	"github.com/google/uuid"
)

// 关系变更动作
const (
	ActionFollow      = "follow"
	ActionUnfollow    = "unfollow"
	ActionBlock       = "block"
	ActionUnblock     = "unblock"
	ActionMute        = "mute"
	ActionUnmute      = "unmute"
	ActionCloseFriend = "close_friend"
	ActionInteraction = "interaction"
)

// RelationshipEvent 关系变更事件（WebSocket 推送 + Redis 广播）
type RelationshipEvent struct {
	EventID   uuid.UUID        `json:"event_id"`
	ActorID   string           `json:"actor_id"`  // 发起动作的用户
	TargetID  string           `json:"target_id"` // 动作指向的用户
	Action    string           `json:"action"`
	OldType   RelationshipType `json:"old_type"` // actor 视角
	NewType   RelationshipType `json:"new_type"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewRelationshipEvent 创建关系变更事件
func NewRelationshipEvent(actorID, targetID, action string, oldType, newType RelationshipType) *RelationshipEvent {
	return &RelationshipEvent{
		EventID:   uuid.New(),
		ActorID:   actorID,
		TargetID:  targetID,
		Action:    action,
		OldType:   oldType,
		NewType:   newType,
		Timestamp: time.Now(),
	}
}

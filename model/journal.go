package model

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipJournal 关系变更审计流水（异步落库，内存状态为权威数据）
type RelationshipJournal struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ActorID   string    `json:"actor_id" gorm:"type:varchar(64);not null;index"`
	TargetID  string    `json:"target_id" gorm:"type:varchar(64);not null;index"`
	Action    string    `json:"action" gorm:"type:varchar(20);not null"`
	OldType   string    `json:"old_type" gorm:"type:varchar(20)"`
	NewType   string    `json:"new_type" gorm:"type:varchar(20)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (RelationshipJournal) TableName() string {
	return "relationship_journal"
}

// JournalFromEvent 由关系事件生成审计行
func JournalFromEvent(ev *RelationshipEvent) *RelationshipJournal {
	return &RelationshipJournal{
		ID:       ev.EventID,
		ActorID:  ev.ActorID,
		TargetID: ev.TargetID,
		Action:   ev.Action,
		OldType:  string(ev.OldType),
		NewType:  string(ev.NewType),
	}
}

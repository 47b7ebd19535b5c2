package model

import (
	"time"

	"github.com/google/uuid"
)

// SpamReport 垃圾信息举报记录（拉黑时可选附带，写入失败不影响拉黑本身）
type SpamReport struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ReporterID string    `json:"reporter_id" gorm:"type:varchar(64);not null;index"`
	ReportedID string    `json:"reported_id" gorm:"type:varchar(64);not null;index"`
	Reason     string    `json:"reason" gorm:"type:varchar(255)"`
	Source     string    `json:"source" gorm:"type:varchar(32);default:'block_action'"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (SpamReport) TableName() string {
	return "spam_reports"
}

// NewSpamReport 创建举报记录
func NewSpamReport(reporterID, reportedID, reason string) *SpamReport {
	return &SpamReport{
		ID:         uuid.New(),
		ReporterID: reporterID,
		ReportedID: reportedID,
		Reason:     reason,
		Source:     "block_action",
	}
}

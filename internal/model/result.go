package model

import "encoding/json"

// TestResult 已提交会话的判分留档，只追加：本服务不修改也不删除历史结果。
// swagger:model TestResult
type TestResult struct {
	UUIDBase
	TestID           string          `gorm:"index;type:varchar(36)" json:"testId"`
	UserID           uint            `gorm:"index;type:bigint unsigned" json:"userId"`
	ScorePercent     int             `gorm:"not null" json:"scorePercent"`
	CorrectCount     int             `gorm:"not null" json:"correctCount"`
	WrongCount       int             `gorm:"not null" json:"wrongCount"`
	UnattemptedCount int             `gorm:"not null" json:"unattemptedCount"`
	TimeTakenMinutes int             `gorm:"default:0" json:"timeTakenMinutes"`
	SectionAccuracy  json.RawMessage `gorm:"type:json" json:"sectionAccuracy"` // JSON: map[topic]percent
	TopicWeaknesses  json.RawMessage `gorm:"type:json" json:"topicWeaknesses"` // JSON: []string
	Answers          json.RawMessage `gorm:"type:json" json:"answers"`         // 账本快照，供复盘
	SubmitReason     string          `gorm:"size:20;default:'manual'" json:"submitReason"`
}

func (TestResult) TableName() string {
	return "test_results"
}

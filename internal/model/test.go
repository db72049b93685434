package model

import (
	"encoding/json"
	"time"
)

// Test 试卷定义，教师创建，学生只读。DurationSeconds 为 0 表示不限时。
// swagger:model Test
type Test struct {
	UUIDBase
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	DurationSeconds int        `gorm:"default:0" json:"durationSeconds"`
	Adaptive        bool       `gorm:"default:false" json:"adaptive"`
	IsPublished     bool       `gorm:"default:false" json:"isPublished"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	CreatorID       uint       `gorm:"index;type:bigint unsigned" json:"creatorId"`
}

func (Test) TableName() string {
	return "tests"
}

// TestQuestion 试卷内的题目。客观题的标准答案二选一：CorrectOption 按选项
// 下标，CorrectText 按精确字符串；主观题两者皆空。Remedial 标记自适应模式
// 的补救题池条目，不进入初始题序。
type TestQuestion struct {
	UUIDBase
	TestID        string          `gorm:"index;type:varchar(36)" json:"testId"`
	Kind          string          `gorm:"size:50;not null" json:"kind"` // single_choice, true_false, subjective
	Prompt        string          `gorm:"type:text;not null" json:"prompt"`
	Options       json.RawMessage `gorm:"type:json" json:"options,omitempty"` // JSON: []string
	CorrectOption *int            `json:"correctOption,omitempty"`
	CorrectText   string          `gorm:"type:text" json:"correctText,omitempty"`
	Topic         string          `gorm:"size:100;index" json:"topic,omitempty"`
	Remedial      bool            `gorm:"default:false" json:"remedial"`
	Order         int             `gorm:"default:0" json:"order"`
}

func (TestQuestion) TableName() string {
	return "test_questions"
}

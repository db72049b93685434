package guidance

import (
	"fmt"
	"sort"
	"strings"

	"exam_prep_backend/internal/exam"
)

// Policy 建议引擎的全部阈值。与自适应策略同理，阈值是配置而不是分支里的
// 魔法数字，便于独立测试。
type Policy struct {
	BandPoor          int     `json:"bandPoor"`          // 低于此分数给基础建议
	BandFair          int     `json:"bandFair"`          // 低于此分数给巩固建议
	BandGood          int     `json:"bandGood"`          // 低于此分数给冲刺建议
	FocusTopics       int     `json:"focusTopics"`       // 薄弱主题建议最多列出几个
	TrendWindow       int     `json:"trendWindow"`       // 近期均分取最近几次
	TrendDelta        float64 `json:"trendDelta"`        // 均分变化超过此值判定升/降
	WeakSubjectCutoff float64 `json:"weakSubjectCutoff"` // 平均正确率低于此值才报告弱科
}

func DefaultPolicy() Policy {
	return Policy{
		BandPoor:          40,
		BandFair:          60,
		BandGood:          80,
		FocusTopics:       3,
		TrendWindow:       5,
		TrendDelta:        5,
		WeakSubjectCutoff: 60,
	}
}

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendSteady    = "steady"
)

// TrendReport 多次结果的走势概览
type TrendReport struct {
	Attempts        int     `json:"attempts"`
	Direction       string  `json:"direction"`
	RecentAverage   float64 `json:"recentAverage"`
	OverallAverage  float64 `json:"overallAverage"`
	WeakestTopic    string  `json:"weakestTopic,omitempty"`
	WeakestAccuracy float64 `json:"weakestAccuracy,omitempty"`
}

// Tips 单次结果的学习建议：分数档位各对应一条固定话术，存在薄弱主题时
// 追加一条聚焦建议（最多取前 FocusTopics 个）。
func Tips(r *exam.TestResult, p Policy) []string {
	var tips []string

	switch {
	case r.ScorePercent < p.BandPoor:
		tips = append(tips, "本次正确率偏低，建议回到教材把基础概念再过一遍，先求懂再求快。")
	case r.ScorePercent < p.BandFair:
		tips = append(tips, "基础已经有了，重点做错题复盘，把同类题型练到稳定正确。")
	case r.ScorePercent < p.BandGood:
		tips = append(tips, "表现不错，接下来用限时训练压缩答题时间，向高分段冲刺。")
	default:
		tips = append(tips, "成绩优秀，保持节奏，尝试更高难度的试卷检验掌握程度。")
	}

	if len(r.TopicWeaknesses) > 0 {
		focus := r.TopicWeaknesses
		if len(focus) > p.FocusTopics {
			focus = focus[:p.FocusTopics]
		}
		tips = append(tips, fmt.Sprintf("优先补强这些主题：%s。", strings.Join(focus, "、")))
	}

	return tips
}

// Trend 对历史结果（按时间先后排列）给出走势：最近 TrendWindow 次的均分
// 与全程均分相比，升降超过 TrendDelta 判定 improving / declining，否则
// steady。弱科取全程平均正确率最低的主题，仅当低于 WeakSubjectCutoff 才
// 报告。
func Trend(history []exam.TestResult, p Policy) TrendReport {
	report := TrendReport{Attempts: len(history), Direction: TrendSteady}
	if len(history) == 0 {
		return report
	}

	total := 0
	for i := range history {
		total += history[i].ScorePercent
	}
	report.OverallAverage = float64(total) / float64(len(history))

	recent := history
	if len(recent) > p.TrendWindow {
		recent = recent[len(recent)-p.TrendWindow:]
	}
	recentTotal := 0
	for i := range recent {
		recentTotal += recent[i].ScorePercent
	}
	report.RecentAverage = float64(recentTotal) / float64(len(recent))

	switch diff := report.RecentAverage - report.OverallAverage; {
	case diff >= p.TrendDelta:
		report.Direction = TrendImproving
	case diff <= -p.TrendDelta:
		report.Direction = TrendDeclining
	}

	topic, acc, ok := weakestTopic(history)
	if ok && acc < p.WeakSubjectCutoff {
		report.WeakestTopic = topic
		report.WeakestAccuracy = acc
	}

	return report
}

// weakestTopic 全程平均正确率最低的主题；并列时取字典序靠前者保证确定性
func weakestTopic(history []exam.TestResult) (string, float64, bool) {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for i := range history {
		for topic, pct := range history[i].SectionAccuracy {
			sums[topic] += pct
			counts[topic]++
		}
	}
	if len(sums) == 0 {
		return "", 0, false
	}

	topics := make([]string, 0, len(sums))
	for topic := range sums {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	best := ""
	bestAvg := 0.0
	for _, topic := range topics {
		avg := float64(sums[topic]) / float64(counts[topic])
		if best == "" || avg < bestAvg {
			best = topic
			bestAvg = avg
		}
	}
	return best, bestAvg, true
}

package exam

import "math"

// TestResult 一次已提交会话的判分结果，创建后不可变，只追加存储。
type TestResult struct {
	TestID           string            `json:"testId"`
	ScorePercent     int               `json:"scorePercent"`
	CorrectCount     int               `json:"correctCount"`
	WrongCount       int               `json:"wrongCount"`
	UnattemptedCount int               `json:"unattemptedCount"`
	TimeTakenMinutes int               `json:"timeTakenMinutes"`
	SectionAccuracy  map[string]int    `json:"sectionAccuracy"`
	TopicWeaknesses  []string          `json:"topicWeaknesses"`
	Answers          map[string]Answer `json:"answers"`
}

// Score 纯函数判分：同一 (Test, Ledger) 输入永远得到相同结果，内部不读时钟，
// 耗时由调用方显式传入。对任何结构良好的输入都不会失败；账本中引用了试卷外
// 题目ID的条目会被忽略，而不是让整次判分出错。
func Score(t *Test, ledger *Ledger, timeTakenMinutes int) *TestResult {
	if timeTakenMinutes < 0 {
		timeTakenMinutes = 0
	}
	if t.DurationSeconds > 0 {
		if max := t.DurationSeconds / 60; timeTakenMinutes > max {
			timeTakenMinutes = max
		}
	}

	result := &TestResult{
		TestID:           t.ID,
		TimeTakenMinutes: timeTakenMinutes,
		SectionAccuracy:  make(map[string]int),
		TopicWeaknesses:  []string{},
		Answers:          ledger.Snapshot(),
	}

	type topicTally struct {
		correct int
		total   int
	}
	topics := make(map[string]*topicTally)
	weakSeen := make(map[string]bool)

	for i := range t.Questions {
		q := &t.Questions[i]
		if !q.Scoreable() {
			// 主观题不进入三类计数，留给线下批改流程
			continue
		}

		if q.Topic != "" {
			if topics[q.Topic] == nil {
				topics[q.Topic] = &topicTally{}
			}
			topics[q.Topic].total++
		}

		ans, answered := ledger.Answer(q.ID)
		switch {
		case !answered:
			result.UnattemptedCount++
		case q.Grade(ans):
			result.CorrectCount++
			if q.Topic != "" {
				topics[q.Topic].correct++
			}
		default:
			result.WrongCount++
			// 薄弱点只统计答错的题目，未作答不算薄弱；按首次出现顺序去重
			if q.Topic != "" && !weakSeen[q.Topic] {
				weakSeen[q.Topic] = true
				result.TopicWeaknesses = append(result.TopicWeaknesses, q.Topic)
			}
		}
	}

	scoreable := result.CorrectCount + result.WrongCount + result.UnattemptedCount
	if scoreable > 0 {
		result.ScorePercent = roundPercent(result.CorrectCount, scoreable)
	}

	for topic, tally := range topics {
		result.SectionAccuracy[topic] = roundPercent(tally.correct, tally.total)
	}

	return result
}

// roundPercent 四舍五入到最近整数
func roundPercent(part, whole int) int {
	return int(math.Round(float64(part) / float64(whole) * 100))
}

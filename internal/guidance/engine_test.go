package guidance

import (
	"strings"
	"testing"

	"exam_prep_backend/internal/exam"
)

func result(score int, sections map[string]int, weaknesses ...string) exam.TestResult {
	return exam.TestResult{
		TestID:          "t",
		ScorePercent:    score,
		SectionAccuracy: sections,
		TopicWeaknesses: weaknesses,
	}
}

func TestTips_ScoreBands(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name  string
		score int
		want  string
	}{
		{name: "poor band", score: 25, want: "基础概念"},
		{name: "fair band", score: 55, want: "错题复盘"},
		{name: "good band", score: 72, want: "限时训练"},
		{name: "top band", score: 91, want: "更高难度"},
		{name: "boundary 40 falls in fair", score: 40, want: "错题复盘"},
		{name: "boundary 80 falls in top", score: 80, want: "更高难度"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := result(tc.score, nil)
			tips := Tips(&r, p)
			if len(tips) != 1 {
				t.Fatalf("got %d tips, want 1", len(tips))
			}
			if !strings.Contains(tips[0], tc.want) {
				t.Errorf("tip %q does not mention %q", tips[0], tc.want)
			}
		})
	}
}

func TestTips_FocusTopics(t *testing.T) {
	p := DefaultPolicy()
	r := result(50, nil, "代数", "几何", "数论", "概率")

	tips := Tips(&r, p)
	if len(tips) != 2 {
		t.Fatalf("got %d tips, want 2 (band + focus)", len(tips))
	}

	focus := tips[1]
	for _, topic := range []string{"代数", "几何", "数论"} {
		if !strings.Contains(focus, topic) {
			t.Errorf("focus tip %q missing topic %q", focus, topic)
		}
	}
	if strings.Contains(focus, "概率") {
		t.Errorf("focus tip %q lists more than the first three topics", focus)
	}
}

func TestTrend_Directions(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name   string
		scores []int
		want   string
	}{
		{name: "empty history steady", scores: nil, want: TrendSteady},
		{name: "single result steady", scores: []int{70}, want: TrendSteady},
		// 全程均分 50，最近5次均分 70：+20 >= 5
		{name: "rising", scores: []int{10, 10, 10, 10, 10, 70, 70, 70, 70, 70}, want: TrendImproving},
		// 全程均分 50，最近5次均分 30
		{name: "falling", scores: []int{70, 70, 70, 70, 70, 30, 30, 30, 30, 30}, want: TrendDeclining},
		{name: "flat", scores: []int{60, 60, 60, 60, 60, 60}, want: TrendSteady},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var history []exam.TestResult
			for _, s := range tc.scores {
				history = append(history, result(s, nil))
			}
			report := Trend(history, p)
			if report.Direction != tc.want {
				t.Errorf("direction = %s, want %s", report.Direction, tc.want)
			}
			if report.Attempts != len(tc.scores) {
				t.Errorf("attempts = %d, want %d", report.Attempts, len(tc.scores))
			}
		})
	}
}

func TestTrend_WeakestTopic(t *testing.T) {
	p := DefaultPolicy()

	history := []exam.TestResult{
		result(60, map[string]int{"代数": 80, "几何": 40}),
		result(65, map[string]int{"代数": 70, "几何": 50}),
	}

	report := Trend(history, p)
	if report.WeakestTopic != "几何" {
		t.Errorf("weakest topic = %q, want 几何", report.WeakestTopic)
	}
	if report.WeakestAccuracy != 45 {
		t.Errorf("weakest accuracy = %v, want 45", report.WeakestAccuracy)
	}
}

func TestTrend_WeakestTopicAboveCutoffOmitted(t *testing.T) {
	p := DefaultPolicy()

	// 最弱主题平均 75%，仍在及格线之上，不报告弱科
	history := []exam.TestResult{
		result(80, map[string]int{"代数": 90, "几何": 75}),
	}

	report := Trend(history, p)
	if report.WeakestTopic != "" {
		t.Errorf("weakest topic = %q, want empty (above cutoff)", report.WeakestTopic)
	}
}

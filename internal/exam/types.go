package exam

import "fmt"

type QuestionKind string

const (
	KindSingleChoice QuestionKind = "single_choice"
	KindTrueFalse    QuestionKind = "true_false"
	KindSubjective   QuestionKind = "subjective"
)

// Question 试题定义。客观题（single_choice / true_false）必须带唯一的标准答案：
// 竞赛题按选项下标（CorrectOption），课程题按精确字符串（CorrectText）。
// 主观题没有标准答案，不参与自动判分。
type Question struct {
	ID            string       `json:"id"`
	Kind          QuestionKind `json:"kind"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectOption *int         `json:"correctOption,omitempty"`
	CorrectText   string       `json:"correctText,omitempty"`
	Topic         string       `json:"topic,omitempty"`
}

// Scoreable 是否参与自动判分
func (q *Question) Scoreable() bool {
	return q.Kind != KindSubjective
}

// Grade 精确比对：下标键按选项下标相等，字符串键按大小写敏感相等
func (q *Question) Grade(a Answer) bool {
	if !q.Scoreable() {
		return false
	}
	if q.CorrectOption != nil {
		return a.Option == *q.CorrectOption
	}
	return a.Text != "" && a.Text == q.CorrectText
}

// Answer 考生作答。客观选择题存选项下标，其余存字符串。
// 未作答的题目在账本中不存在任何条目，因此不需要空值表示。
type Answer struct {
	Option int    `json:"option"`
	Text   string `json:"text,omitempty"`
}

func OptionAnswer(i int) Answer {
	return Answer{Option: i}
}

func TextAnswer(s string) Answer {
	return Answer{Option: -1, Text: s}
}

// Test 一次作答所依据的试卷定义，加载后不可变。
// DurationSeconds 为 0 表示不限时。Remedial 是自适应模式下的补救题池。
type Test struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationSeconds int        `json:"durationSeconds"`
	Adaptive        bool       `json:"adaptive"`
	Questions       []Question `json:"questions"`
	Remedial        []Question `json:"remedial,omitempty"`
}

// ScoreableCount 可判分题目数
func (t *Test) ScoreableCount() int {
	n := 0
	for i := range t.Questions {
		if t.Questions[i].Scoreable() {
			n++
		}
	}
	return n
}

// Validate 加载期做一次形状校验，会话中不再校验。
// 违反约束时返回包装了 ErrMalformedTest 的错误。
func (t *Test) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing test id", ErrMalformedTest)
	}
	if t.DurationSeconds < 0 {
		return fmt.Errorf("%w: negative duration", ErrMalformedTest)
	}
	if len(t.Questions) == 0 {
		return fmt.Errorf("%w: test %s has no questions", ErrMalformedTest, t.ID)
	}
	seen := make(map[string]bool, len(t.Questions)+len(t.Remedial))
	all := make([]Question, 0, len(t.Questions)+len(t.Remedial))
	all = append(all, t.Questions...)
	all = append(all, t.Remedial...)
	for i := range all {
		q := &all[i]
		if q.ID == "" {
			return fmt.Errorf("%w: question %d has no id", ErrMalformedTest, i)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %s", ErrMalformedTest, q.ID)
		}
		seen[q.ID] = true

		switch q.Kind {
		case KindSingleChoice, KindTrueFalse:
			// 恰好一个标准答案引用
			hasOption := q.CorrectOption != nil
			hasText := q.CorrectText != ""
			if hasOption == hasText {
				return fmt.Errorf("%w: question %s needs exactly one answer key", ErrMalformedTest, q.ID)
			}
			if hasOption && (*q.CorrectOption < 0 || *q.CorrectOption >= len(q.Options)) {
				return fmt.Errorf("%w: question %s answer index out of option range", ErrMalformedTest, q.ID)
			}
		case KindSubjective:
			if q.CorrectOption != nil || q.CorrectText != "" {
				return fmt.Errorf("%w: subjective question %s must not carry an answer key", ErrMalformedTest, q.ID)
			}
		default:
			return fmt.Errorf("%w: question %s has unknown kind %q", ErrMalformedTest, q.ID, q.Kind)
		}
	}
	return nil
}

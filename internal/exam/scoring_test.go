package exam

import (
	"errors"
	"reflect"
	"testing"
)

func intPtr(i int) *int { return &i }

// 五道单选题，标准答案下标 [1,0,2,1,3]
func fiveQuestionTest() *Test {
	return &Test{
		ID:              "t-mcq-5",
		DurationSeconds: 600,
		Questions: []Question{
			{ID: "q1", Kind: KindSingleChoice, Prompt: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectOption: intPtr(1), Topic: "Math"},
			{ID: "q2", Kind: KindSingleChoice, Prompt: "Q2", Options: []string{"a", "b", "c", "d"}, CorrectOption: intPtr(0), Topic: "Math"},
			{ID: "q3", Kind: KindSingleChoice, Prompt: "Q3", Options: []string{"a", "b", "c", "d"}, CorrectOption: intPtr(2), Topic: "Science"},
			{ID: "q4", Kind: KindSingleChoice, Prompt: "Q4", Options: []string{"a", "b", "c", "d"}, CorrectOption: intPtr(1), Topic: "Science"},
			{ID: "q5", Kind: KindSingleChoice, Prompt: "Q5", Options: []string{"a", "b", "c", "d"}, CorrectOption: intPtr(3), Topic: "Math"},
		},
	}
}

func fiveQuestionLedger() *Ledger {
	l := NewLedger()
	l.Set("q1", OptionAnswer(1))
	l.Set("q2", OptionAnswer(1))
	l.Set("q3", OptionAnswer(2))
	l.Set("q5", OptionAnswer(3))
	// q4 未作答
	return l
}

func TestScore_Counts(t *testing.T) {
	r := Score(fiveQuestionTest(), fiveQuestionLedger(), 8)

	if r.CorrectCount != 3 {
		t.Errorf("CorrectCount = %d, want 3", r.CorrectCount)
	}
	if r.WrongCount != 1 {
		t.Errorf("WrongCount = %d, want 1", r.WrongCount)
	}
	if r.UnattemptedCount != 1 {
		t.Errorf("UnattemptedCount = %d, want 1", r.UnattemptedCount)
	}
	if r.ScorePercent != 60 {
		t.Errorf("ScorePercent = %d, want 60", r.ScorePercent)
	}
}

func TestScore_CountInvariant(t *testing.T) {
	test := fiveQuestionTest()
	ledgers := []*Ledger{
		NewLedger(),
		fiveQuestionLedger(),
		func() *Ledger {
			l := NewLedger()
			for _, q := range test.Questions {
				l.Set(q.ID, OptionAnswer(0))
			}
			return l
		}(),
	}

	for i, l := range ledgers {
		r := Score(test, l, 0)
		sum := r.CorrectCount + r.WrongCount + r.UnattemptedCount
		if sum != test.ScoreableCount() {
			t.Errorf("ledger %d: correct+wrong+unattempted = %d, want %d", i, sum, test.ScoreableCount())
		}
	}
}

func TestScore_SectionAccuracyAndWeaknesses(t *testing.T) {
	r := Score(fiveQuestionTest(), fiveQuestionLedger(), 8)

	// Math: q1 对、q2 错、q5 对 -> 2/3 = 67；Science: q3 对、q4 未答 -> 1/2 = 50
	want := map[string]int{"Math": 67, "Science": 50}
	if !reflect.DeepEqual(r.SectionAccuracy, want) {
		t.Errorf("SectionAccuracy = %v, want %v", r.SectionAccuracy, want)
	}

	// 唯一答错的是 q2（Math）；q4 未作答不算薄弱
	if !reflect.DeepEqual(r.TopicWeaknesses, []string{"Math"}) {
		t.Errorf("TopicWeaknesses = %v, want [Math]", r.TopicWeaknesses)
	}
}

func TestScore_Idempotent(t *testing.T) {
	test := fiveQuestionTest()
	ledger := fiveQuestionLedger()

	first := Score(test, ledger, 8)
	second := Score(test, ledger, 8)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two scoring runs differ:\n%+v\n%+v", first, second)
	}
}

func TestScore_ZeroScoreableQuestions(t *testing.T) {
	test := &Test{
		ID: "t-subjective",
		Questions: []Question{
			{ID: "e1", Kind: KindSubjective, Prompt: "essay"},
			{ID: "e2", Kind: KindSubjective, Prompt: "essay"},
		},
	}
	l := NewLedger()
	l.Set("e1", TextAnswer("my answer"))

	r := Score(test, l, 5)
	if r.ScorePercent != 0 {
		t.Errorf("ScorePercent = %d, want 0 (zero scoreable by convention)", r.ScorePercent)
	}
	if r.CorrectCount != 0 || r.WrongCount != 0 || r.UnattemptedCount != 0 {
		t.Errorf("subjective questions leaked into counts: %+v", r)
	}
	if len(r.SectionAccuracy) != 0 {
		t.Errorf("SectionAccuracy = %v, want empty", r.SectionAccuracy)
	}
}

func TestScore_UnknownLedgerEntryIgnored(t *testing.T) {
	l := fiveQuestionLedger()
	l.Set("ghost-question", OptionAnswer(2))

	r := Score(fiveQuestionTest(), l, 8)
	if r.CorrectCount != 3 || r.WrongCount != 1 || r.UnattemptedCount != 1 {
		t.Errorf("unknown ledger entry corrupted counts: %+v", r)
	}
}

func TestScore_StringKeyedQuestions(t *testing.T) {
	test := &Test{
		ID: "t-tf",
		Questions: []Question{
			{ID: "q1", Kind: KindTrueFalse, Prompt: "Q1", CorrectText: "True"},
			{ID: "q2", Kind: KindTrueFalse, Prompt: "Q2", CorrectText: "False"},
			{ID: "q3", Kind: KindTrueFalse, Prompt: "Q3", CorrectText: "True"},
		},
	}
	l := NewLedger()
	l.Set("q1", TextAnswer("True"))
	l.Set("q2", TextAnswer("true")) // 大小写敏感，判错
	l.Set("q3", TextAnswer("False"))

	r := Score(test, l, 0)
	if r.CorrectCount != 1 {
		t.Errorf("CorrectCount = %d, want 1 (string match is case-sensitive)", r.CorrectCount)
	}
	if r.WrongCount != 2 {
		t.Errorf("WrongCount = %d, want 2", r.WrongCount)
	}
}

func TestScore_TimeTakenClamped(t *testing.T) {
	tests := []struct {
		name      string
		timeTaken int
		want      int
	}{
		{name: "negative clamps to zero", timeTaken: -3, want: 0},
		{name: "over duration caps at duration", timeTaken: 99, want: 10},
		{name: "in range passes through", timeTaken: 7, want: 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Score(fiveQuestionTest(), fiveQuestionLedger(), tc.timeTaken)
			if r.TimeTakenMinutes != tc.want {
				t.Errorf("TimeTakenMinutes = %d, want %d", r.TimeTakenMinutes, tc.want)
			}
		})
	}
}

func TestScore_WeaknessFirstSeenOrder(t *testing.T) {
	test := &Test{
		ID: "t-order",
		Questions: []Question{
			{ID: "q1", Kind: KindSingleChoice, Options: []string{"a", "b"}, CorrectOption: intPtr(0), Topic: "Algebra"},
			{ID: "q2", Kind: KindSingleChoice, Options: []string{"a", "b"}, CorrectOption: intPtr(0), Topic: "Geometry"},
			{ID: "q3", Kind: KindSingleChoice, Options: []string{"a", "b"}, CorrectOption: intPtr(0), Topic: "Algebra"},
		},
	}
	l := NewLedger()
	l.Set("q1", OptionAnswer(1))
	l.Set("q2", OptionAnswer(1))
	l.Set("q3", OptionAnswer(1))

	r := Score(test, l, 0)
	if !reflect.DeepEqual(r.TopicWeaknesses, []string{"Algebra", "Geometry"}) {
		t.Errorf("TopicWeaknesses = %v, want first-seen order without duplicates", r.TopicWeaknesses)
	}
}

func TestValidate_Malformed(t *testing.T) {
	tests := []struct {
		name string
		test Test
	}{
		{name: "no questions", test: Test{ID: "t"}},
		{name: "scoreable without key", test: Test{ID: "t", Questions: []Question{
			{ID: "q1", Kind: KindSingleChoice, Options: []string{"a", "b"}},
		}}},
		{name: "two answer keys", test: Test{ID: "t", Questions: []Question{
			{ID: "q1", Kind: KindSingleChoice, Options: []string{"a", "b"}, CorrectOption: intPtr(0), CorrectText: "a"},
		}}},
		{name: "answer index out of range", test: Test{ID: "t", Questions: []Question{
			{ID: "q1", Kind: KindSingleChoice, Options: []string{"a", "b"}, CorrectOption: intPtr(5)},
		}}},
		{name: "subjective with key", test: Test{ID: "t", Questions: []Question{
			{ID: "q1", Kind: KindSubjective, CorrectText: "x"},
		}}},
		{name: "duplicate ids", test: Test{ID: "t", Questions: []Question{
			{ID: "q1", Kind: KindTrueFalse, CorrectText: "True"},
			{ID: "q1", Kind: KindTrueFalse, CorrectText: "False"},
		}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.test.Validate()
			if !errors.Is(err, ErrMalformedTest) {
				t.Fatalf("expected ErrMalformedTest, got %v", err)
			}
		})
	}
}

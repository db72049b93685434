package exam

import (
	"errors"
	"sync"
	"testing"
)

func startedSession(t *testing.T, test *Test) *Session {
	t.Helper()
	s, err := NewSession(test, DefaultAdaptivePolicy())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestSession_AutoSubmitOnExpiry(t *testing.T) {
	// 限时 600 秒，投递 620 次 Tick：第 600 次自动提交，其后均为空操作
	s := startedSession(t, fiveQuestionTest())

	var results []*TestResult
	for i := 0; i < 620; i++ {
		if r := s.Tick(); r != nil {
			results = append(results, r)
			if s.Remaining() != 0 {
				t.Errorf("remaining = %d at auto-submit, want 0", s.Remaining())
			}
		}
	}

	if len(results) != 1 {
		t.Fatalf("auto-submit produced %d results, want exactly 1", len(results))
	}
	if s.State() != StateSubmitted {
		t.Errorf("state = %s, want submitted", s.State())
	}
	if s.Reason() != ReasonTimeout {
		t.Errorf("reason = %s, want timeout", s.Reason())
	}
	if results[0].TimeTakenMinutes != 10 {
		t.Errorf("TimeTakenMinutes = %d, want 10", results[0].TimeTakenMinutes)
	}
}

func TestSession_NoDoubleSubmission(t *testing.T) {
	// 时钟归零与手动交卷竞争终结同一会话：先到者胜出，判分恰好一次
	test := fiveQuestionTest()
	test.DurationSeconds = 1
	s := startedSession(t, test)

	var mu sync.Mutex
	var results []*TestResult

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if r := s.Tick(); r != nil {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		if r, err := s.Submit(); err == nil {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}
	}()
	wg.Wait()

	if len(results) != 1 {
		t.Fatalf("produced %d results, want exactly 1", len(results))
	}
	if s.Result() == nil {
		t.Fatal("Result() = nil after finalization")
	}
}

func TestSession_SubmitTwice(t *testing.T) {
	s := startedSession(t, fiveQuestionTest())

	first, err := s.Submit()
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	second, err := s.Submit()
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("second submit err = %v, want ErrInvalidState", err)
	}
	if second != nil {
		t.Error("second submit returned a result; scoring must run exactly once")
	}
	if s.Result() != first {
		t.Error("Result() does not return the original result")
	}
}

func TestSession_ManualSubmitStopsClock(t *testing.T) {
	s := startedSession(t, fiveQuestionTest())

	if _, err := s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	before := s.Remaining()
	for i := 0; i < 50; i++ {
		if r := s.Tick(); r != nil {
			t.Fatal("tick after manual submit produced a result")
		}
	}
	if s.Remaining() != before {
		t.Errorf("remaining mutated after submit: %d -> %d", before, s.Remaining())
	}
}

func TestSession_MutationAfterSubmit(t *testing.T) {
	s := startedSession(t, fiveQuestionTest())
	if _, err := s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := s.SetAnswer("q1", OptionAnswer(1)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetAnswer err = %v, want ErrInvalidState", err)
	}
	if err := s.ClearAnswer("q1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ClearAnswer err = %v, want ErrInvalidState", err)
	}
	if _, err := s.ToggleFlag("q1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ToggleFlag err = %v, want ErrInvalidState", err)
	}
	if err := s.Next(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Next err = %v, want ErrInvalidState", err)
	}
	if err := s.GoTo(0); !errors.Is(err, ErrInvalidState) {
		t.Errorf("GoTo err = %v, want ErrInvalidState", err)
	}
}

func TestSession_FlagAnswerIndependence(t *testing.T) {
	s := startedSession(t, fiveQuestionTest())

	// 标记再取消标记，不影响作答状态
	if _, err := s.ToggleFlag("q1"); err != nil {
		t.Fatalf("flag: %v", err)
	}
	if _, err := s.ToggleFlag("q1"); err != nil {
		t.Fatalf("unflag: %v", err)
	}
	if s.IsAnswered("q1") {
		t.Error("flag toggling made q1 answered")
	}

	// 作答、改答，不影响标记状态
	if _, err := s.ToggleFlag("q2"); err != nil {
		t.Fatalf("flag q2: %v", err)
	}
	if err := s.SetAnswer("q2", OptionAnswer(0)); err != nil {
		t.Fatalf("answer q2: %v", err)
	}
	if err := s.SetAnswer("q2", OptionAnswer(3)); err != nil {
		t.Fatalf("re-answer q2: %v", err)
	}
	if !s.Flagged("q2") {
		t.Error("answering cleared the flag on q2")
	}
	if a, _ := s.AnswerOf("q2"); a.Option != 3 {
		t.Errorf("q2 answer = %d, want 3 (last write wins)", a.Option)
	}
}

func TestSession_ClearAnswer(t *testing.T) {
	s := startedSession(t, fiveQuestionTest())

	if err := s.SetAnswer("q3", OptionAnswer(2)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := s.ClearAnswer("q3"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.IsAnswered("q3") {
		t.Error("q3 still answered after clear")
	}
	if s.AnsweredCount() != 0 {
		t.Errorf("AnsweredCount = %d, want 0", s.AnsweredCount())
	}
}

func TestSession_CursorClamping(t *testing.T) {
	s := startedSession(t, fiveQuestionTest())

	if err := s.Previous(); err != nil {
		t.Fatalf("previous at start: %v", err)
	}
	if s.Cursor() != 0 {
		t.Errorf("cursor = %d after previous at first question, want 0", s.Cursor())
	}

	for i := 0; i < 10; i++ {
		if err := s.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if s.Cursor() != 4 {
		t.Errorf("cursor = %d after next past end, want 4 (clamped)", s.Cursor())
	}
}

func TestSession_GoTo(t *testing.T) {
	s := startedSession(t, fiveQuestionTest())

	if err := s.GoTo(3); err != nil {
		t.Fatalf("goTo valid index: %v", err)
	}
	if s.Cursor() != 3 {
		t.Errorf("cursor = %d, want 3", s.Cursor())
	}

	for _, bad := range []int{-1, 5, 100} {
		if err := s.GoTo(bad); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("goTo(%d) err = %v, want ErrIndexOutOfRange", bad, err)
		}
		if s.Cursor() != 3 {
			t.Errorf("cursor moved to %d on failed goTo(%d)", s.Cursor(), bad)
		}
	}
}

func TestSession_UntimedClockInert(t *testing.T) {
	test := fiveQuestionTest()
	test.DurationSeconds = 0
	s := startedSession(t, test)

	for i := 0; i < 1000; i++ {
		if r := s.Tick(); r != nil {
			t.Fatal("untimed session auto-submitted")
		}
	}
	if s.State() != StateInProgress {
		t.Errorf("state = %s, want in_progress", s.State())
	}
}

func TestSession_NotStartedGuards(t *testing.T) {
	s, err := NewSession(fiveQuestionTest(), DefaultAdaptivePolicy())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if err := s.SetAnswer("q1", OptionAnswer(0)); !errors.Is(err, ErrNotStarted) {
		t.Errorf("SetAnswer before start err = %v, want ErrNotStarted", err)
	}
	if _, err := s.Submit(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Submit before start err = %v, want ErrInvalidState", err)
	}
}

func TestSession_MalformedTestRejected(t *testing.T) {
	bad := &Test{ID: "bad", Questions: []Question{
		{ID: "q1", Kind: KindSingleChoice, Options: []string{"a", "b"}},
	}}
	if _, err := NewSession(bad, DefaultAdaptivePolicy()); !errors.Is(err, ErrMalformedTest) {
		t.Errorf("NewSession err = %v, want ErrMalformedTest", err)
	}
}

func adaptiveTest() *Test {
	mk := func(id, topic string) Question {
		return Question{ID: id, Kind: KindSingleChoice, Prompt: id, Options: []string{"a", "b"}, CorrectOption: intPtr(0), Topic: topic}
	}
	return &Test{
		ID:       "t-adaptive",
		Adaptive: true,
		Questions: []Question{
			mk("q1", "Algebra"), mk("q2", "Algebra"), mk("q3", "Geometry"),
			mk("q4", "Geometry"), mk("q5", "Algebra"), mk("q6", "Geometry"),
		},
		Remedial: []Question{
			mk("r1", "Algebra"), mk("r2", "Geometry"),
		},
	}
}

func TestSession_AdvanceStrongSkipsAhead(t *testing.T) {
	s := startedSession(t, adaptiveTest())

	// 答对当前题，正确率 1.0 >= 0.8 判强
	if err := s.SetAnswer("q1", OptionAnswer(0)); err != nil {
		t.Fatalf("answer: %v", err)
	}

	directive, err := s.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if directive != DirectiveSkipAhead {
		t.Errorf("directive = %s, want skip_ahead", directive)
	}
	if s.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2 (two steps forward, not one)", s.Cursor())
	}
}

func TestSession_AdvanceWeakInsertsRemedial(t *testing.T) {
	s := startedSession(t, adaptiveTest())

	// 答错当前题，正确率 0 < 0.4 判弱
	if err := s.SetAnswer("q1", OptionAnswer(1)); err != nil {
		t.Fatalf("answer: %v", err)
	}

	directive, err := s.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if directive != DirectiveInsertRemedial {
		t.Errorf("directive = %s, want insert_remedial", directive)
	}

	// 补救题插在当前位置之后，原有题序不被重排
	if s.Len() != 7 {
		t.Errorf("sequence length = %d, want 7 after insertion", s.Len())
	}
	cur := s.Current()
	if cur.ID != "r1" {
		t.Errorf("current question = %s, want remedial r1 (same topic)", cur.ID)
	}
	q, err := s.QuestionAt(0)
	if err != nil || q.ID != "q1" {
		t.Errorf("question 0 = %s, want q1 (completed positions unchanged)", q.ID)
	}
	q, err = s.QuestionAt(2)
	if err != nil || q.ID != "q2" {
		t.Errorf("question 2 = %s, want q2 (original sequence shifted, not renumbered)", q.ID)
	}
}

func TestSession_AdvanceModerateContinues(t *testing.T) {
	s := startedSession(t, adaptiveTest())

	// 一对一错，正确率 0.5：介于弱与强之间，顺序前进
	if err := s.SetAnswer("q1", OptionAnswer(0)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := s.SetAnswer("q2", OptionAnswer(1)); err != nil {
		t.Fatalf("answer: %v", err)
	}

	directive, err := s.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if directive != DirectiveContinue {
		t.Errorf("directive = %s, want continue", directive)
	}
	if s.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", s.Cursor())
	}
}

func TestSession_AdvanceExhaustionSubmits(t *testing.T) {
	s := startedSession(t, adaptiveTest())

	// 全部答对并推进到序列末尾，耗尽时自动终结
	for i := 0; s.State() == StateInProgress && i < 20; i++ {
		cur := s.Current()
		if err := s.SetAnswer(cur.ID, OptionAnswer(0)); err != nil {
			t.Fatalf("answer %s: %v", cur.ID, err)
		}
		if _, err := s.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if s.State() != StateSubmitted {
		t.Fatalf("state = %s, want submitted after exhausting the sequence", s.State())
	}
	if s.Reason() != ReasonExhausted {
		t.Errorf("reason = %s, want exhausted", s.Reason())
	}
	if s.Result() == nil {
		t.Fatal("no result after exhaustion")
	}
}

func TestSession_RetakesAreIndependent(t *testing.T) {
	test := fiveQuestionTest()
	first := startedSession(t, test)
	second := startedSession(t, test)

	if err := first.SetAnswer("q1", OptionAnswer(1)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if second.IsAnswered("q1") {
		t.Error("answer leaked between independent sessions")
	}
}

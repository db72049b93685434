package exam

import (
	"sync"
	"time"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateSubmitted  State = "submitted"
)

// SubmitReason 会话终结的方式。超时是正常的终结转换，不是错误。
type SubmitReason string

const (
	ReasonManual    SubmitReason = "manual"
	ReasonTimeout   SubmitReason = "timeout"
	ReasonExhausted SubmitReason = "exhausted"
)

// Session 一次作答的全部可变状态：倒计时、作答账本、导航游标。
// 状态机 NotStarted -> InProgress -> Submitted，Submitted 为终态，判分恰好
// 执行一次。提交通过 state 字段的检查置位完成互斥：时钟归零触发的自动提交
// 与考生手动提交竞争时，先到者胜出，后到者空操作。
type Session struct {
	mu sync.Mutex

	test      *Test
	questions []Question // 原始题序，补救题追加在尾部，已完成的题号不会被重排
	order     []int      // 展示顺序，值为 questions 的下标
	remedial  []Question // 尚未插入的补救题池
	cursor    int
	clock     *Clock
	ledger    *Ledger
	policy    AdaptivePolicy

	state     State
	startedAt time.Time
	result    *TestResult
	reason    SubmitReason
}

// NewSession 校验试卷并建立一个未开始的会话。同一试卷的两次会话（重考）
// 是完全独立的实例，账本与结果互不共享。
func NewSession(t *Test, policy AdaptivePolicy) (*Session, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		test:      t,
		questions: make([]Question, len(t.Questions)),
		order:     make([]int, len(t.Questions)),
		clock:     NewClock(t.DurationSeconds),
		ledger:    NewLedger(),
		policy:    policy,
		state:     StateNotStarted,
	}
	copy(s.questions, t.Questions)
	for i := range s.order {
		s.order[i] = i
	}
	if t.Adaptive {
		s.remedial = make([]Question, len(t.Remedial))
		copy(s.remedial, t.Remedial)
	}
	return s, nil
}

func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateNotStarted {
		return ErrInvalidState
	}
	s.state = StateInProgress
	s.startedAt = time.Now()
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *Session) Test() *Test {
	return s.test
}

// Result 提交后的判分结果；未提交时为 nil
func (s *Session) Result() *TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) Reason() SubmitReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Remaining()
}

func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Len 当前展示序列的长度（自适应模式下随补救题插入而增长）
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Current 当前展示的题目
func (s *Session) Current() Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions[s.order[s.cursor]]
}

// QuestionAt 展示序列第 i 题
func (s *Session) QuestionAt(i int) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.order) {
		return Question{}, ErrIndexOutOfRange
	}
	return s.questions[s.order[i]], nil
}

func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.AnsweredCount()
}

func (s *Session) IsAnswered(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.IsAnswered(questionID)
}

func (s *Session) AnswerOf(questionID string) (Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Answer(questionID)
}

func (s *Session) Flagged(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Flagged(questionID)
}

func (s *Session) FlaggedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.FlaggedIDs()
}

// requireInProgress 持锁调用
func (s *Session) requireInProgress() error {
	switch s.state {
	case StateInProgress:
		return nil
	case StateNotStarted:
		return ErrNotStarted
	default:
		return ErrInvalidState
	}
}

// SetAnswer 覆盖写入作答，后写胜出
func (s *Session) SetAnswer(questionID string, a Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	s.ledger.Set(questionID, a)
	return nil
}

// ClearAnswer 清除作答，题目回到未作答
func (s *Session) ClearAnswer(questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	s.ledger.Unset(questionID)
	return nil
}

// ToggleFlag 翻转待复查标记；标记与作答互不影响
func (s *Session) ToggleFlag(questionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return false, err
	}
	return s.ledger.ToggleFlag(questionID), nil
}

// Next 越过末题时原地不动，不报错
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if s.cursor < len(s.order)-1 {
		s.cursor++
	}
	return nil
}

// Previous 越过首题时原地不动，不报错
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if s.cursor > 0 {
		s.cursor--
	}
	return nil
}

// GoTo 下标越界时游标保持不变并返回 ErrIndexOutOfRange。
// 题目导航面板只会传合法下标，但契约仍然做防御。
func (s *Session) GoTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.order) {
		return ErrIndexOutOfRange
	}
	s.cursor = i
	return nil
}

// Advance 自适应前进：依据已判分作答的表现信号决定下一步。
// 强 -> 向前跳 SkipStep 步；弱 -> 在当前位置之后插入一道补救题（不重排已完成
// 题号）；中等 -> 顺序前进一步。序列耗尽时会话自动终结，判分恰好一次。
// 非自适应试卷退化为顺序前进。
func (s *Session) Advance() (Directive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return "", err
	}

	directive := DirectiveContinue
	if s.test.Adaptive {
		correct, graded := s.tallyGraded()
		directive = s.policy.Directive(s.policy.Classify(correct, graded))
	}

	step := 1
	switch directive {
	case DirectiveSkipAhead:
		step = s.policy.SkipStep
		if step < 1 {
			step = 1
		}
	case DirectiveInsertRemedial:
		if q, ok := s.takeRemedial(); ok {
			s.questions = append(s.questions, q)
			idx := len(s.questions) - 1
			pos := s.cursor + 1
			s.order = append(s.order, 0)
			copy(s.order[pos+1:], s.order[pos:])
			s.order[pos] = idx
		}
		// 补救题池为空时退化为顺序前进
	}

	next := s.cursor + step
	if next >= len(s.order) {
		s.finalizeLocked(ReasonExhausted)
		return directive, nil
	}
	s.cursor = next
	return directive, nil
}

// tallyGraded 持锁调用：统计已作答可判分题目的正确数
func (s *Session) tallyGraded() (correct, graded int) {
	for i := range s.questions {
		q := &s.questions[i]
		if !q.Scoreable() {
			continue
		}
		ans, ok := s.ledger.Answer(q.ID)
		if !ok {
			continue
		}
		graded++
		if q.Grade(ans) {
			correct++
		}
	}
	return correct, graded
}

// takeRemedial 持锁调用：优先取与当前题同主题的补救题，否则按序取
func (s *Session) takeRemedial() (Question, bool) {
	if len(s.remedial) == 0 {
		return Question{}, false
	}
	topic := s.questions[s.order[s.cursor]].Topic
	pick := 0
	if topic != "" {
		for i := range s.remedial {
			if s.remedial[i].Topic == topic {
				pick = i
				break
			}
		}
	}
	q := s.remedial[pick]
	s.remedial = append(s.remedial[:pick], s.remedial[pick+1:]...)
	return q, true
}

// Tick 由宿主约每秒调用一次。时钟走到零的那一次 Tick 自动提交并返回判分
// 结果；其余情况返回 nil。会话已终结后的 Tick 是空操作，不会重复判分。
func (s *Session) Tick() *TestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return nil
	}
	s.clock.Tick()
	if s.clock.Expired() {
		s.finalizeLocked(ReasonTimeout)
		return s.result
	}
	return nil
}

// Submit 考生主动交卷。已终结的会话返回 ErrInvalidState，调用方可通过
// Result 拿到先前的判分结果。
func (s *Session) Submit() (*TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return nil, ErrInvalidState
	}
	s.finalizeLocked(ReasonManual)
	return s.result, nil
}

// finalizeLocked 持锁调用，唯一的终结路径：置终态并判分恰好一次。
// 终结后时钟不再走动，账本冻结为只读。
func (s *Session) finalizeLocked(reason SubmitReason) {
	s.state = StateSubmitted
	s.reason = reason

	var timeTaken int
	if s.clock.Timed() {
		// durationMinutes - floor(remaining/60)，不为负，封顶于总限时
		timeTaken = s.test.DurationSeconds/60 - s.clock.Remaining()/60
	} else {
		timeTaken = int(time.Since(s.startedAt).Minutes())
	}

	// 自适应模式下按实际呈现过的题目集判分（含插入的补救题）
	effective := &Test{
		ID:              s.test.ID,
		Title:           s.test.Title,
		DurationSeconds: s.test.DurationSeconds,
		Adaptive:        s.test.Adaptive,
		Questions:       s.questions,
	}
	s.result = Score(effective, s.ledger, timeTaken)
}

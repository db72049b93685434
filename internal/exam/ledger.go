package exam

// Ledger 当前会话的作答账本：题目ID到作答的映射，外加独立的标记集合。
// 未作答的题目在映射中不存在条目，"未作答"与"答了空值"因此可区分。
// 标记与作答完全独立，互不影响，也不影响判分。
type Ledger struct {
	answers map[string]Answer
	flags   map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{
		answers: make(map[string]Answer),
		flags:   make(map[string]bool),
	}
}

// Set 覆盖写入，后写胜出，不保留历史
func (l *Ledger) Set(questionID string, a Answer) {
	l.answers[questionID] = a
}

// Unset 清除作答，题目回到未作答状态
func (l *Ledger) Unset(questionID string) {
	delete(l.answers, questionID)
}

func (l *Ledger) Answer(questionID string) (Answer, bool) {
	a, ok := l.answers[questionID]
	return a, ok
}

func (l *Ledger) IsAnswered(questionID string) bool {
	_, ok := l.answers[questionID]
	return ok
}

func (l *Ledger) AnsweredCount() int {
	return len(l.answers)
}

// ToggleFlag 翻转标记状态，返回翻转后的值
func (l *Ledger) ToggleFlag(questionID string) bool {
	if l.flags[questionID] {
		delete(l.flags, questionID)
		return false
	}
	l.flags[questionID] = true
	return true
}

func (l *Ledger) Flagged(questionID string) bool {
	return l.flags[questionID]
}

func (l *Ledger) FlaggedIDs() []string {
	ids := make([]string, 0, len(l.flags))
	for id := range l.flags {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot 账本快照，判分结果中留档供复盘
func (l *Ledger) Snapshot() map[string]Answer {
	out := make(map[string]Answer, len(l.answers))
	for id, a := range l.answers {
		out[id] = a
	}
	return out
}

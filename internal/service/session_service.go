package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/exam"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// activeSession 驻留内存的答题会话。引擎状态只存在于进程内，
// Redis 快照仅供前端断线恢复展示，不做跨实例接管。
type activeSession struct {
	ID     string
	UserID uint
	TestID string
	Engine *exam.Session
}

type SessionService struct {
	TestService *TestService
	ResultRepo  *repository.ResultRepository
	Redis       *redis.Client
	Policies    *config.PolicyStore

	mu       sync.Mutex
	sessions map[string]*activeSession
}

func NewSessionService(testService *TestService, resultRepo *repository.ResultRepository, rdb *redis.Client, policies *config.PolicyStore) *SessionService {
	return &SessionService{
		TestService: testService,
		ResultRepo:  resultRepo,
		Redis:       rdb,
		Policies:    policies,
		sessions:    make(map[string]*activeSession),
	}
}

// RunTicker 每秒驱动所有在途会话的时钟。时钟归零的会话自动交卷落库。
// 由宿主在启动时起一个 goroutine 调用，ctx 取消后停止。
func (s *SessionService) RunTicker(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tickAll()
		}
	}
}

func (s *SessionService) tickAll() {
	s.mu.Lock()
	active := make([]*activeSession, 0, len(s.sessions))
	for _, as := range s.sessions {
		active = append(active, as)
	}
	s.mu.Unlock()

	for _, as := range active {
		if result := as.Engine.Tick(); result != nil {
			s.finish(as, result)
		}
	}
}

// Start 为学生建立一个新会话并立刻开始计时。
// 同一学生对同一试卷同时只允许一个在途会话；重考须先交卷或放弃。
func (s *SessionService) Start(userID uint, testID string) (*SessionView, error) {
	test, err := s.TestService.TestRepo.FindByID(testID)
	if err != nil {
		return nil, util.ErrTestNotFound
	}
	if !test.IsPublished {
		return nil, util.ErrTestNotPublished
	}

	engineTest, err := s.TestService.BuildEngineTest(testID)
	if err != nil {
		return nil, err
	}

	adaptive := s.Policies.Load().Adaptive
	policy := exam.AdaptivePolicy{
		StrongRatio: adaptive.StrongRatio,
		WeakRatio:   adaptive.WeakRatio,
		SkipStep:    adaptive.SkipStep,
	}

	engine, err := exam.NewSession(engineTest, policy)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, as := range s.sessions {
		if as.UserID == userID && as.TestID == testID {
			s.mu.Unlock()
			return nil, util.ErrSessionExists
		}
	}
	as := &activeSession{
		ID:     model.GenerateUUID(),
		UserID: userID,
		TestID: testID,
		Engine: engine,
	}
	s.sessions[as.ID] = as
	s.mu.Unlock()

	if err := engine.Start(); err != nil {
		s.remove(as.ID)
		return nil, err
	}

	monitoring.ActiveSessions.Inc()
	s.snapshot(as)
	logger.Log.Info("Session started",
		zap.String("session_id", as.ID),
		zap.Uint("user_id", userID),
		zap.String("test_id", testID))

	return s.view(as), nil
}

// find 校验归属：会话只对建立它的学生可见
func (s *SessionService) find(sessionID string, userID uint) (*activeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	as, ok := s.sessions[sessionID]
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	if as.UserID != userID {
		return nil, util.ErrSessionNotOwned
	}
	return as, nil
}

func (s *SessionService) Get(sessionID string, userID uint) (*SessionView, error) {
	as, err := s.find(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return s.view(as), nil
}

type AnswerInput struct {
	QuestionID string  `json:"questionId" binding:"required"`
	Option     *int    `json:"option"`
	Text       *string `json:"text"`
}

func (s *SessionService) Answer(sessionID string, userID uint, in *AnswerInput) (*SessionView, error) {
	as, err := s.find(sessionID, userID)
	if err != nil {
		return nil, err
	}

	var answer exam.Answer
	switch {
	case in.Option != nil:
		answer = exam.OptionAnswer(*in.Option)
	case in.Text != nil:
		answer = exam.TextAnswer(*in.Text)
	default:
		return nil, fmt.Errorf("option 和 text 必须二选一")
	}

	if err := as.Engine.SetAnswer(in.QuestionID, answer); err != nil {
		return nil, err
	}
	s.snapshot(as)
	return s.view(as), nil
}

func (s *SessionService) ClearAnswer(sessionID string, userID uint, questionID string) (*SessionView, error) {
	as, err := s.find(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := as.Engine.ClearAnswer(questionID); err != nil {
		return nil, err
	}
	s.snapshot(as)
	return s.view(as), nil
}

func (s *SessionService) ToggleFlag(sessionID string, userID uint, questionID string) (bool, error) {
	as, err := s.find(sessionID, userID)
	if err != nil {
		return false, err
	}
	flagged, err := as.Engine.ToggleFlag(questionID)
	if err != nil {
		return false, err
	}
	s.snapshot(as)
	return flagged, nil
}

// Navigate 统一的导航入口：next / previous / goto
func (s *SessionService) Navigate(sessionID string, userID uint, direction string, index int) (*SessionView, error) {
	as, err := s.find(sessionID, userID)
	if err != nil {
		return nil, err
	}

	switch direction {
	case "next":
		err = as.Engine.Next()
	case "previous":
		err = as.Engine.Previous()
	case "goto":
		err = as.Engine.GoTo(index)
	default:
		return nil, fmt.Errorf("未知导航方向 %q", direction)
	}
	if err != nil {
		return nil, err
	}
	s.snapshot(as)
	return s.view(as), nil
}

// AdvanceResult 自适应前进的响应。序列耗尽时会话已自动交卷，
// Result 携带判分结果。
type AdvanceResult struct {
	Directive string       `json:"directive"`
	Session   *SessionView `json:"session"`
	Result    *ResultView  `json:"result,omitempty"`
}

func (s *SessionService) Advance(sessionID string, userID uint) (*AdvanceResult, error) {
	as, err := s.find(sessionID, userID)
	if err != nil {
		return nil, err
	}

	directive, err := as.Engine.Advance()
	if err != nil {
		return nil, err
	}

	out := &AdvanceResult{Directive: string(directive)}
	if result := as.Engine.Result(); result != nil {
		// 序列耗尽触发了自动交卷
		record := s.finish(as, result)
		out.Result = resultView(record, result)
		return out, nil
	}

	s.snapshot(as)
	out.Session = s.view(as)
	return out, nil
}

// Submit 考生主动交卷。重复提交不报错，返回首次判分的结果。
func (s *SessionService) Submit(sessionID string, userID uint) (*ResultView, error) {
	as, err := s.find(sessionID, userID)
	if err != nil {
		return nil, err
	}

	result, err := as.Engine.Submit()
	if err != nil {
		if errors.Is(err, exam.ErrInvalidState) {
			if prior := as.Engine.Result(); prior != nil {
				return resultView(nil, prior), nil
			}
		}
		return nil, err
	}

	record := s.finish(as, result)
	return resultView(record, result), nil
}

// Abandon 放弃会话：不判分、不落库，直接销毁
func (s *SessionService) Abandon(sessionID string, userID uint) error {
	if _, err := s.find(sessionID, userID); err != nil {
		return err
	}
	s.remove(sessionID)
	monitoring.ActiveSessions.Dec()
	logger.Log.Info("Session abandoned", zap.String("session_id", sessionID))
	return nil
}

// finish 终结后的统一善后：结果落库、移出内存、清掉快照。
// 幂等：并发的 Tick 与 Submit 都可能走到这里，落库只发生一次。
func (s *SessionService) finish(as *activeSession, result *exam.TestResult) *model.TestResult {
	s.mu.Lock()
	if _, ok := s.sessions[as.ID]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.sessions, as.ID)
	s.mu.Unlock()

	monitoring.ActiveSessions.Dec()
	monitoring.SubmissionCounter.WithLabelValues(string(as.Engine.Reason())).Inc()

	record := resultRecord(as, result)
	if err := s.ResultRepo.Create(record); err != nil {
		logger.Log.Error("Failed to persist test result",
			zap.String("session_id", as.ID),
			zap.Error(err))
	}

	s.deleteSnapshot(as.ID)
	logger.Log.Info("Session finished",
		zap.String("session_id", as.ID),
		zap.String("reason", string(as.Engine.Reason())),
		zap.Int("score", result.ScorePercent))
	return record
}

func (s *SessionService) remove(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	s.deleteSnapshot(sessionID)
}

func resultRecord(as *activeSession, result *exam.TestResult) *model.TestResult {
	sectionJSON, _ := json.Marshal(result.SectionAccuracy)
	weaknessJSON, _ := json.Marshal(result.TopicWeaknesses)
	answersJSON, _ := json.Marshal(result.Answers)

	return &model.TestResult{
		TestID:           as.TestID,
		UserID:           as.UserID,
		ScorePercent:     result.ScorePercent,
		CorrectCount:     result.CorrectCount,
		WrongCount:       result.WrongCount,
		UnattemptedCount: result.UnattemptedCount,
		TimeTakenMinutes: result.TimeTakenMinutes,
		SectionAccuracy:  sectionJSON,
		TopicWeaknesses:  weaknessJSON,
		Answers:          answersJSON,
		SubmitReason:     string(as.Engine.Reason()),
	}
}

// ---- 快照 ----

// SessionSnapshot 存入 Redis 的会话进度，供前端断线后恢复界面。
// 不含标准答案。
type SessionSnapshot struct {
	SessionID string                 `json:"sessionId"`
	UserID    uint                   `json:"userId"`
	TestID    string                 `json:"testId"`
	State     string                 `json:"state"`
	Cursor    int                    `json:"cursor"`
	Total     int                    `json:"total"`
	Remaining int                    `json:"remaining"`
	Answers   map[string]exam.Answer `json:"answers"`
	Flagged   []string               `json:"flagged"`
	SavedAt   time.Time              `json:"savedAt"`
}

func snapshotKey(sessionID string) string {
	return "exam:session:" + sessionID
}

// snapshot 尽力而为：Redis 故障只记日志，不影响作答主流程
func (s *SessionService) snapshot(as *activeSession) {
	snap := SessionSnapshot{
		SessionID: as.ID,
		UserID:    as.UserID,
		TestID:    as.TestID,
		State:     string(as.Engine.State()),
		Cursor:    as.Engine.Cursor(),
		Total:     as.Engine.Len(),
		Remaining: as.Engine.Remaining(),
		Answers:   make(map[string]exam.Answer),
		Flagged:   as.Engine.FlaggedIDs(),
		SavedAt:   time.Now(),
	}
	for i := 0; i < as.Engine.Len(); i++ {
		q, err := as.Engine.QuestionAt(i)
		if err != nil {
			continue
		}
		if ans, ok := as.Engine.AnswerOf(q.ID); ok {
			snap.Answers[q.ID] = ans
		}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	ttl := time.Duration(s.Policies.Load().Session.SnapshotTTLMinutes) * time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Redis.Set(ctx, snapshotKey(as.ID), data, ttl).Err(); err != nil {
		logger.Log.Warn("Failed to save session snapshot",
			zap.String("session_id", as.ID),
			zap.Error(err))
	}
}

func (s *SessionService) deleteSnapshot(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Redis.Del(ctx, snapshotKey(sessionID)).Err(); err != nil {
		logger.Log.Warn("Failed to delete session snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

// Snapshot 读取 Redis 中的进度快照
func (s *SessionService) Snapshot(ctx context.Context, sessionID string, userID uint) (*SessionSnapshot, error) {
	data, err := s.Redis.Get(ctx, snapshotKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.UserID != userID {
		return nil, util.ErrSessionNotOwned
	}
	return &snap, nil
}

// ---- 视图 ----

// QuestionView 面向考生的题目视图，永远不带标准答案
type QuestionView struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Prompt   string       `json:"prompt"`
	Options  []string     `json:"options,omitempty"`
	Topic    string       `json:"topic,omitempty"`
	Answered bool         `json:"answered"`
	Flagged  bool         `json:"flagged"`
	Answer   *exam.Answer `json:"answer,omitempty"`
}

type SessionView struct {
	ID            string       `json:"id"`
	TestID        string       `json:"testId"`
	Title         string       `json:"title"`
	State         string       `json:"state"`
	Adaptive      bool         `json:"adaptive"`
	Timed         bool         `json:"timed"`
	Remaining     int          `json:"remaining"`
	Cursor        int          `json:"cursor"`
	Total         int          `json:"total"`
	AnsweredCount int          `json:"answeredCount"`
	FlaggedIDs    []string     `json:"flaggedIds"`
	Question      QuestionView `json:"question"`
}

func (s *SessionService) view(as *activeSession) *SessionView {
	engine := as.Engine
	test := engine.Test()
	current := engine.Current()

	view := &SessionView{
		ID:            as.ID,
		TestID:        as.TestID,
		Title:         test.Title,
		State:         string(engine.State()),
		Adaptive:      test.Adaptive,
		Timed:         test.DurationSeconds > 0,
		Remaining:     engine.Remaining(),
		Cursor:        engine.Cursor(),
		Total:         engine.Len(),
		AnsweredCount: engine.AnsweredCount(),
		FlaggedIDs:    engine.FlaggedIDs(),
		Question:      questionView(engine, current),
	}
	return view
}

func questionView(engine *exam.Session, q exam.Question) QuestionView {
	qv := QuestionView{
		ID:       q.ID,
		Kind:     string(q.Kind),
		Prompt:   q.Prompt,
		Options:  q.Options,
		Topic:    q.Topic,
		Answered: engine.IsAnswered(q.ID),
		Flagged:  engine.Flagged(q.ID),
	}
	if ans, ok := engine.AnswerOf(q.ID); ok {
		qv.Answer = &ans
	}
	return qv
}

// ResultView 交卷响应。Record 为 nil 时表示重复提交，只回传引擎结果。
type ResultView struct {
	ResultID         string         `json:"resultId,omitempty"`
	TestID           string         `json:"testId"`
	ScorePercent     int            `json:"scorePercent"`
	CorrectCount     int            `json:"correctCount"`
	WrongCount       int            `json:"wrongCount"`
	UnattemptedCount int            `json:"unattemptedCount"`
	TimeTakenMinutes int            `json:"timeTakenMinutes"`
	SectionAccuracy  map[string]int `json:"sectionAccuracy"`
	TopicWeaknesses  []string       `json:"topicWeaknesses"`
}

func resultView(record *model.TestResult, result *exam.TestResult) *ResultView {
	view := &ResultView{
		TestID:           result.TestID,
		ScorePercent:     result.ScorePercent,
		CorrectCount:     result.CorrectCount,
		WrongCount:       result.WrongCount,
		UnattemptedCount: result.UnattemptedCount,
		TimeTakenMinutes: result.TimeTakenMinutes,
		SectionAccuracy:  result.SectionAccuracy,
		TopicWeaknesses:  result.TopicWeaknesses,
	}
	if record != nil {
		view.ResultID = record.ID
	}
	return view
}

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"exam_prep_backend/internal/exam"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type TestService struct {
	TestRepo   *repository.TestRepository
	ResultRepo *repository.ResultRepository
}

func NewTestService(testRepo *repository.TestRepository, resultRepo *repository.ResultRepository) *TestService {
	return &TestService{
		TestRepo:   testRepo,
		ResultRepo: resultRepo,
	}
}

type TestInput struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	DurationSeconds int    `json:"durationSeconds" binding:"min=0"`
	Adaptive        bool   `json:"adaptive"`
}

type QuestionInput struct {
	Kind          string   `json:"kind" binding:"required,oneof=single_choice true_false subjective"`
	Prompt        string   `json:"prompt" binding:"required"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correctOption"`
	CorrectText   string   `json:"correctText"`
	Topic         string   `json:"topic"`
	Remedial      bool     `json:"remedial"`
	Order         int      `json:"order"`
}

func (s *TestService) Create(creatorID uint, in *TestInput) (*model.Test, error) {
	test := &model.Test{
		Title:           in.Title,
		Description:     in.Description,
		DurationSeconds: in.DurationSeconds,
		Adaptive:        in.Adaptive,
		CreatorID:       creatorID,
	}
	if err := s.TestRepo.Create(test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *TestService) Get(id string) (*model.Test, []model.TestQuestion, error) {
	test, err := s.TestRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrTestNotFound
		}
		return nil, nil, err
	}
	questions, err := s.TestRepo.ListQuestions(id)
	if err != nil {
		return nil, nil, err
	}
	return test, questions, nil
}

func (s *TestService) Update(id string, in *TestInput) (*model.Test, error) {
	test, err := s.TestRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}

	test.Title = in.Title
	test.Description = in.Description
	test.DurationSeconds = in.DurationSeconds
	test.Adaptive = in.Adaptive
	if err := s.TestRepo.Update(test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *TestService) Delete(id string) error {
	if _, err := s.TestRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTestNotFound
		}
		return err
	}
	return s.TestRepo.Delete(id)
}

func (s *TestService) List(page, limit int, publishedOnly bool) ([]repository.TestListRow, int64, error) {
	return s.TestRepo.List(page, limit, publishedOnly)
}

// Publish 发布前先做一次完整校验，坏卷不允许对学生可见
func (s *TestService) Publish(id string) (*model.Test, error) {
	test, err := s.TestRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}

	if _, err := s.BuildEngineTest(id); err != nil {
		return nil, err
	}

	now := time.Now()
	test.IsPublished = true
	test.PublishedAt = &now
	if err := s.TestRepo.Update(test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *TestService) Unpublish(id string) (*model.Test, error) {
	test, err := s.TestRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}

	test.IsPublished = false
	test.PublishedAt = nil
	if err := s.TestRepo.Update(test); err != nil {
		return nil, err
	}
	return test, nil
}

func (s *TestService) AddQuestion(testID string, in *QuestionInput) (*model.TestQuestion, error) {
	if _, err := s.TestRepo.FindByID(testID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}

	question, err := questionFromInput(testID, in)
	if err != nil {
		return nil, err
	}
	if err := s.TestRepo.CreateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *TestService) UpdateQuestion(testID, questionID string, in *QuestionInput) (*model.TestQuestion, error) {
	question, err := questionFromInput(testID, in)
	if err != nil {
		return nil, err
	}
	question.ID = questionID
	if err := s.TestRepo.UpdateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *TestService) DeleteQuestion(questionID string) error {
	return s.TestRepo.DeleteQuestion(questionID)
}

func questionFromInput(testID string, in *QuestionInput) (*model.TestQuestion, error) {
	var optionsJSON json.RawMessage
	if len(in.Options) > 0 {
		b, err := json.Marshal(in.Options)
		if err != nil {
			return nil, err
		}
		optionsJSON = b
	}

	return &model.TestQuestion{
		TestID:        testID,
		Kind:          in.Kind,
		Prompt:        in.Prompt,
		Options:       optionsJSON,
		CorrectOption: in.CorrectOption,
		CorrectText:   in.CorrectText,
		Topic:         in.Topic,
		Remedial:      in.Remedial,
		Order:         in.Order,
	}, nil
}

// ImportQuestionsXLSX 从上传的 xlsx 批量导入题目。
// 工作表格式见 util 中的列布局常量，第一行为表头，解析从第二行开始。
func (s *TestService) ImportQuestionsXLSX(testID string, r io.Reader) (int, error) {
	if _, err := s.TestRepo.FindByID(testID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, util.ErrTestNotFound
		}
		return 0, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("无法打开xlsx文件: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(util.ImportSheetName)
	if err != nil {
		return 0, fmt.Errorf("缺少工作表 %q: %w", util.ImportSheetName, err)
	}

	imported := 0
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) == 0 || strings.TrimSpace(cell(row, util.ImportColPrompt)) == "" {
			continue
		}

		in, err := parseImportRow(row)
		if err != nil {
			return imported, fmt.Errorf("第%d行: %w", i+1, err)
		}
		in.Order = imported + 1

		question, err := questionFromInput(testID, in)
		if err != nil {
			return imported, err
		}
		if err := s.TestRepo.CreateQuestion(question); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseImportRow(row []string) (*QuestionInput, error) {
	kind := strings.TrimSpace(cell(row, util.ImportColKind))
	switch exam.QuestionKind(kind) {
	case exam.KindSingleChoice, exam.KindTrueFalse, exam.KindSubjective:
	default:
		return nil, fmt.Errorf("未知题型 %q", kind)
	}

	in := &QuestionInput{
		Kind:     kind,
		Prompt:   strings.TrimSpace(cell(row, util.ImportColPrompt)),
		Topic:    strings.TrimSpace(cell(row, util.ImportColTopic)),
		Remedial: strings.EqualFold(strings.TrimSpace(cell(row, util.ImportColRemedial)), util.ImportRemedialFlag),
	}

	if raw := strings.TrimSpace(cell(row, util.ImportColOptions)); raw != "" {
		for _, o := range strings.Split(raw, util.ImportOptionSep) {
			in.Options = append(in.Options, strings.TrimSpace(o))
		}
	}

	answer := strings.TrimSpace(cell(row, util.ImportColAnswer))
	if exam.QuestionKind(kind) != exam.KindSubjective && answer != "" {
		if idx, err := strconv.Atoi(answer); err == nil {
			in.CorrectOption = &idx
		} else {
			in.CorrectText = answer
		}
	}
	return in, nil
}

// BuildEngineTest 把持久化的试卷行装配成会话引擎用的不可变试卷，
// 并做一次完整性校验。补救题进入 Remedial 池，不进入初始题序。
func (s *TestService) BuildEngineTest(testID string) (*exam.Test, error) {
	test, err := s.TestRepo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTestNotFound
		}
		return nil, err
	}

	rows, err := s.TestRepo.ListQuestions(testID)
	if err != nil {
		return nil, err
	}

	engineTest := &exam.Test{
		ID:              test.ID,
		Title:           test.Title,
		DurationSeconds: test.DurationSeconds,
		Adaptive:        test.Adaptive,
	}

	for i := range rows {
		q, err := engineQuestion(&rows[i])
		if err != nil {
			return nil, err
		}
		if rows[i].Remedial {
			engineTest.Remedial = append(engineTest.Remedial, q)
		} else {
			engineTest.Questions = append(engineTest.Questions, q)
		}
	}

	if err := engineTest.Validate(); err != nil {
		return nil, err
	}
	return engineTest, nil
}

func engineQuestion(row *model.TestQuestion) (exam.Question, error) {
	q := exam.Question{
		ID:            row.ID,
		Kind:          exam.QuestionKind(row.Kind),
		Prompt:        row.Prompt,
		CorrectOption: row.CorrectOption,
		CorrectText:   row.CorrectText,
		Topic:         row.Topic,
	}
	if len(row.Options) > 0 {
		if err := json.Unmarshal(row.Options, &q.Options); err != nil {
			return exam.Question{}, fmt.Errorf("题目 %s 的选项不是合法JSON: %w", row.ID, err)
		}
	}
	return q, nil
}

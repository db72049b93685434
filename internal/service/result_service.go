package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"exam_prep_backend/internal/exam"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"

	"gorm.io/gorm"
)

type ResultService struct {
	ResultRepo *repository.ResultRepository
	TestRepo   *repository.TestRepository
	Storage    *StorageService
}

func NewResultService(resultRepo *repository.ResultRepository, testRepo *repository.TestRepository, storage *StorageService) *ResultService {
	return &ResultService{
		ResultRepo: resultRepo,
		TestRepo:   testRepo,
		Storage:    storage,
	}
}

// History 学生的全部历史成绩，按提交时间先后排列
func (s *ResultService) History(userID uint) ([]model.TestResult, error) {
	return s.ResultRepo.ListByUser(userID)
}

// Detail 单次成绩详情。学生只能看自己的，教师和管理员不受限。
func (s *ResultService) Detail(resultID string, claims *util.Claims) (*model.TestResult, error) {
	result, err := s.ResultRepo.FindByID(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}

	if claims.Role == model.Student && result.UserID != claims.UserID {
		return nil, util.ErrPermissionDenied
	}
	return result, nil
}

// ListByTest 教师查看某试卷的全部提交
func (s *ResultService) ListByTest(testID string, page, limit int) ([]model.TestResult, int64, error) {
	return s.ResultRepo.ListByTest(testID, page, limit)
}

// ExportCSV 把某试卷的全部成绩导出为 CSV 并上传到存储，返回下载地址
func (s *ResultService) ExportCSV(ctx context.Context, testID string) (string, error) {
	test, err := s.TestRepo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrTestNotFound
		}
		return "", err
	}

	results, _, err := s.ResultRepo.ListByTest(testID, 0, 0)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"result_id", "user_id", "score_percent", "correct", "wrong", "unattempted", "time_taken_minutes", "submit_reason", "topic_weaknesses", "submitted_at"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range results {
		r := &results[i]
		var weaknesses []string
		if len(r.TopicWeaknesses) > 0 {
			// 尽力而为：个别行的JSON损坏时导出其余列，薄弱主题留空
			_ = json.Unmarshal(r.TopicWeaknesses, &weaknesses)
		}
		row := []string{
			r.ID,
			strconv.FormatUint(uint64(r.UserID), 10),
			strconv.Itoa(r.ScorePercent),
			strconv.Itoa(r.CorrectCount),
			strconv.Itoa(r.WrongCount),
			strconv.Itoa(r.UnattemptedCount),
			strconv.Itoa(r.TimeTakenMinutes),
			r.SubmitReason,
			strings.Join(weaknesses, ";"),
			r.CreatedAt.Format(util.TimeFormat),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("results/%s_%s.csv", test.ID, time.Now().Format("20060102150405"))
	return s.Storage.Upload(ctx, filename, &buf, int64(buf.Len()), "text/csv")
}

// EngineResult 把落库的 JSON 字段还原成判分引擎的结果结构，
// 供建议引擎复用
func EngineResult(r *model.TestResult) (*exam.TestResult, error) {
	out := &exam.TestResult{
		TestID:           r.TestID,
		ScorePercent:     r.ScorePercent,
		CorrectCount:     r.CorrectCount,
		WrongCount:       r.WrongCount,
		UnattemptedCount: r.UnattemptedCount,
		TimeTakenMinutes: r.TimeTakenMinutes,
	}
	if len(r.SectionAccuracy) > 0 {
		if err := json.Unmarshal(r.SectionAccuracy, &out.SectionAccuracy); err != nil {
			return nil, err
		}
	}
	if len(r.TopicWeaknesses) > 0 {
		if err := json.Unmarshal(r.TopicWeaknesses, &out.TopicWeaknesses); err != nil {
			return nil, err
		}
	}
	if len(r.Answers) > 0 {
		if err := json.Unmarshal(r.Answers, &out.Answers); err != nil {
			return nil, err
		}
	}
	return out, nil
}

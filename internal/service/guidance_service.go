package service

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/exam"
	"exam_prep_backend/internal/guidance"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
)

type GuidanceService struct {
	ResultRepo *repository.ResultRepository
	Policies   *config.PolicyStore
}

func NewGuidanceService(resultRepo *repository.ResultRepository, policies *config.PolicyStore) *GuidanceService {
	return &GuidanceService{
		ResultRepo: resultRepo,
		Policies:   policies,
	}
}

func (s *GuidanceService) policy() guidance.Policy {
	g := s.Policies.Load().Guidance
	return guidance.Policy{
		BandPoor:          g.BandPoor,
		BandFair:          g.BandFair,
		BandGood:          g.BandGood,
		FocusTopics:       g.FocusTopics,
		TrendWindow:       g.TrendWindow,
		TrendDelta:        g.TrendDelta,
		WeakSubjectCutoff: g.WeakSubjectCutoff,
	}
}

// TipsForResult 针对某次成绩生成学习建议。学生只能取自己的成绩。
func (s *GuidanceService) TipsForResult(resultID string, claims *util.Claims) ([]string, error) {
	record, err := s.ResultRepo.FindByID(resultID)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}
	if record.UserID != claims.UserID && claims.Role == model.Student {
		return nil, util.ErrPermissionDenied
	}

	result, err := EngineResult(record)
	if err != nil {
		return nil, err
	}
	return guidance.Tips(result, s.policy()), nil
}

// TrendForUser 汇总学生的全部历史成绩做走势分析
func (s *GuidanceService) TrendForUser(userID uint) (*guidance.TrendReport, error) {
	records, err := s.ResultRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	history := make([]exam.TestResult, 0, len(records))
	for i := range records {
		result, err := EngineResult(&records[i])
		if err != nil {
			return nil, err
		}
		history = append(history, *result)
	}

	report := guidance.Trend(history, s.policy())
	return &report, nil
}

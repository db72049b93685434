package repository

import (
	"exam_prep_backend/internal/model"

	"gorm.io/gorm"
)

// ResultRepository 只追加的结果存档：只有 Create 和各类查询，没有更新和
// 删除。判分结果一旦落库就不再变动。
type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) Create(result *model.TestResult) error {
	return r.DB.Create(result).Error
}

func (r *ResultRepository) FindByID(id string) (*model.TestResult, error) {
	var result model.TestResult
	err := r.DB.First(&result, "id = ?", id).Error
	return &result, err
}

// ListByUser 按提交时间先后排列，供建议引擎做走势分析
func (r *ResultRepository) ListByUser(userID uint) ([]model.TestResult, error) {
	var results []model.TestResult
	err := r.DB.Where("user_id = ?", userID).Order("created_at asc").Find(&results).Error
	return results, err
}

func (r *ResultRepository) ListByTest(testID string, page, limit int) ([]model.TestResult, int64, error) {
	var total int64
	if err := r.DB.Model(&model.TestResult{}).Where("test_id = ?", testID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []model.TestResult
	query := r.DB.Where("test_id = ?", testID).Order("created_at desc")
	if limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Find(&results).Error
	return results, total, err
}

func (r *ResultRepository) CountByUserAndTest(userID uint, testID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestResult{}).
		Where("user_id = ? AND test_id = ?", userID, testID).
		Count(&count).Error
	return count, err
}

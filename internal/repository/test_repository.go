package repository

import (
	"exam_prep_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Create(test).Error
}

func (r *TestRepository) FindByID(id string) (*model.Test, error) {
	var test model.Test
	err := r.DB.First(&test, "id = ?", id).Error
	return &test, err
}

func (r *TestRepository) Update(test *model.Test) error {
	return r.DB.Save(test).Error
}

func (r *TestRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("test_id = ?", id).Delete(&model.TestQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Test{}, "id = ?", id).Error
	})
}

type TestListRow struct {
	model.Test
	QuestionCount int `json:"questionCount"`
	ResultCount   int `json:"resultCount"`
}

func (r *TestRepository) List(page, limit int, publishedOnly bool) ([]TestListRow, int64, error) {
	var total int64
	countQuery := r.DB.Model(&model.Test{}).Where("deleted_at IS NULL")
	if publishedOnly {
		countQuery = countQuery.Where("is_published = ?", true)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tests []TestListRow
	query := r.DB.Table("tests t").
		Select("t.*, " +
			"(SELECT COUNT(*) FROM test_questions q WHERE q.test_id = t.id AND q.deleted_at IS NULL AND q.remedial = false) as question_count, " +
			"(SELECT COUNT(*) FROM test_results res WHERE res.test_id = t.id AND res.deleted_at IS NULL) as result_count").
		Where("t.deleted_at IS NULL")
	if publishedOnly {
		query = query.Where("t.is_published = ?", true)
	}

	if limit > 0 {
		offset := (page - 1) * limit
		query = query.Offset(offset).Limit(limit)
	}

	err := query.Order("t.created_at desc").Scan(&tests).Error
	return tests, total, err
}

func (r *TestRepository) CreateQuestion(question *model.TestQuestion) error {
	return r.DB.Create(question).Error
}

func (r *TestRepository) UpdateQuestion(question *model.TestQuestion) error {
	return r.DB.Save(question).Error
}

func (r *TestRepository) DeleteQuestion(id string) error {
	return r.DB.Delete(&model.TestQuestion{}, "id = ?", id).Error
}

func (r *TestRepository) ListQuestions(testID string) ([]model.TestQuestion, error) {
	var qs []model.TestQuestion
	err := r.DB.Where("test_id = ?", testID).Order("`order` asc, created_at asc").Find(&qs).Error
	return qs, err
}

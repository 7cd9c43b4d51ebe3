package repository

import (
	"context"

	"github.com/lshigami/learnhub/internal/model"
	"gorm.io/gorm"
)

// TestWithQuestionCount is a listing row.
type TestWithQuestionCount struct {
	model.Test
	QuestionCount int
}

type TestRepository interface {
	Create(ctx context.Context, test *model.Test) error
	FindByID(ctx context.Context, id uint) (*model.Test, error)
	FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error)
	FindPublishedWithQuestionCount(ctx context.Context, courseID *uint) ([]TestWithQuestionCount, error)
	UpdateStatus(ctx context.Context, id uint, status model.TestStatus) error
	UpdateTotalPoints(ctx context.Context, id uint, totalPoints int) error
	WithTx(tx *gorm.DB) TestRepository
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) WithTx(tx *gorm.DB) TestRepository {
	return &testRepository{db: tx}
}

func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	// Questions and their options are created through the associations.
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) FindByID(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_test ASC, questions.id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.order_in_question ASC, question_options.id ASC")
		}).
		First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindPublishedWithQuestionCount(ctx context.Context, courseID *uint) ([]TestWithQuestionCount, error) {
	var results []TestWithQuestionCount
	query := r.db.WithContext(ctx).Model(&model.Test{}).
		Select("tests.*, (SELECT COUNT(*) FROM questions WHERE questions.test_id = tests.id) as question_count").
		Where("tests.status = ?", model.TestStatusPublished)
	if courseID != nil {
		query = query.Where("tests.course_id = ?", *courseID)
	}
	err := query.Order("tests.created_at DESC, tests.id DESC").Scan(&results).Error
	return results, err
}

func (r *testRepository) UpdateStatus(ctx context.Context, id uint, status model.TestStatus) error {
	return r.db.WithContext(ctx).Model(&model.Test{}).Where("id = ?", id).Update("status", status).Error
}

func (r *testRepository) UpdateTotalPoints(ctx context.Context, id uint, totalPoints int) error {
	return r.db.WithContext(ctx).Model(&model.Test{}).Where("id = ?", id).Update("total_points", totalPoints).Error
}

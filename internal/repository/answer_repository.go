package repository

import (
	"context"

	"github.com/lshigami/learnhub/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	CreateBatch(ctx context.Context, answers []model.Answer) error
	FindByAttemptID(ctx context.Context, attemptID uint) ([]model.Answer, error)
	WithTx(tx *gorm.DB) AnswerRepository
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) WithTx(tx *gorm.DB) AnswerRepository {
	return &answerRepository{db: tx}
}

func (r *answerRepository) CreateBatch(ctx context.Context, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&answers).Error
}

func (r *answerRepository) FindByAttemptID(ctx context.Context, attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.WithContext(ctx).Where("test_attempt_id = ?", attemptID).Order("id ASC").Find(&answers).Error
	return answers, err
}

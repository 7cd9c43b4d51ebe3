package repository

import (
	"context"
	"time"

	"github.com/lshigami/learnhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TestAttemptRepository interface {
	// CreateNumbered assigns the next attempt number for the (test, student)
	// pair and inserts the attempt in one transaction. It reports false when a
	// unique index rejected the row (number taken, or another attempt already
	// open); callers re-read and retry.
	CreateNumbered(ctx context.Context, attempt *model.TestAttempt) (bool, error)
	FindByID(ctx context.Context, id uint) (*model.TestAttempt, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*model.TestAttempt, error)
	FindOpen(ctx context.Context, testID, studentID uint) (*model.TestAttempt, error)
	FindAllByTestAndStudent(ctx context.Context, testID, studentID uint) ([]model.TestAttempt, error)
	CountNonAbandoned(ctx context.Context, testID, studentID uint) (int64, error)
	CountByTestID(ctx context.Context, testID uint) (int64, error)
	// Complete stores the grading result only if the attempt is still in
	// progress. It reports whether this call performed the transition.
	Complete(ctx context.Context, attempt *model.TestAttempt) (bool, error)
	Transition(ctx context.Context, id uint, from, to model.AttemptStatus, endTime time.Time) (bool, error)
	MarkCertificateIssued(ctx context.Context, id uint, certificateID string) error
	WithTx(tx *gorm.DB) TestAttemptRepository
}

type testAttemptRepository struct {
	db *gorm.DB
}

func NewTestAttemptRepository(db *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: db}
}

func (r *testAttemptRepository) WithTx(tx *gorm.DB) TestAttemptRepository {
	return &testAttemptRepository{db: tx}
}

func (r *testAttemptRepository) CreateNumbered(ctx context.Context, attempt *model.TestAttempt) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		if err := tx.Model(&model.TestAttempt{}).
			Where("test_id = ? AND student_id = ?", attempt.TestID, attempt.StudentID).
			Select("COALESCE(MAX(attempt_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}
		attempt.AttemptNumber = maxNumber + 1

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(attempt)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	if !created {
		attempt.ID = 0
	}
	return created, nil
}

func (r *testAttemptRepository) FindByID(ctx context.Context, id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindByIDWithDetails(ctx context.Context, id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.WithContext(ctx).
		Preload("Test").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.id ASC")
		}).
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindOpen(ctx context.Context, testID, studentID uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND student_id = ? AND status = ?", testID, studentID, model.AttemptInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *testAttemptRepository) FindAllByTestAndStudent(ctx context.Context, testID, studentID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND student_id = ?", testID, studentID).
		Order("attempt_number DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *testAttemptRepository) CountNonAbandoned(ctx context.Context, testID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("test_id = ? AND student_id = ? AND status <> ?", testID, studentID, model.AttemptAbandoned).
		Count(&count).Error
	return count, err
}

func (r *testAttemptRepository) CountByTestID(ctx context.Context, testID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TestAttempt{}).Where("test_id = ?", testID).Count(&count).Error
	return count, err
}

func (r *testAttemptRepository) Complete(ctx context.Context, attempt *model.TestAttempt) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("id = ? AND status = ?", attempt.ID, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":                model.AttemptCompleted,
			"end_time":              attempt.EndTime,
			"score":                 attempt.Score,
			"total_possible_points": attempt.TotalPossiblePoints,
			"percentage_score":      attempt.PercentageScore,
			"passed":                attempt.Passed,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *testAttemptRepository) Transition(ctx context.Context, id uint, from, to model.AttemptStatus, endTime time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "end_time": endTime})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *testAttemptRepository) MarkCertificateIssued(ctx context.Context, id uint, certificateID string) error {
	return r.db.WithContext(ctx).Model(&model.TestAttempt{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"certificate_issued": true, "certificate_id": certificateID}).Error
}

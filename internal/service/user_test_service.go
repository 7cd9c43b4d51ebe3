package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type UserTestService interface {
	ListTests(ctx context.Context, courseID *uint) ([]dto.TestSummaryDTO, error)
	GetTestDetails(ctx context.Context, testID uint) (*dto.TestResponseDTO, error)
}

type userTestService struct {
	testRepo repository.TestRepository
}

func NewUserTestService(testRepo repository.TestRepository) UserTestService {
	return &userTestService{testRepo: testRepo}
}

func (s *userTestService) ListTests(ctx context.Context, courseID *uint) ([]dto.TestSummaryDTO, error) {
	testsWithCount, err := s.testRepo.FindPublishedWithQuestionCount(ctx, courseID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get published tests with question count from repository")
		return nil, apperror.Internal("error fetching tests", err)
	}

	dtos := make([]dto.TestSummaryDTO, 0, len(testsWithCount))
	for _, twc := range testsWithCount {
		var summary dto.TestSummaryDTO
		if err := copier.Copy(&summary, &twc.Test); err != nil {
			log.Error().Err(err).Uint("testID", twc.Test.ID).Msg("Error copying test to summary DTO")
			continue
		}
		summary.QuestionCount = twc.QuestionCount
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

// GetTestDetails returns a published test without answer keys.
func (s *userTestService) GetTestDetails(ctx context.Context, testID uint) (*dto.TestResponseDTO, error) {
	test, err := loadPublishedTest(ctx, s.testRepo, testID)
	if err != nil {
		return nil, err
	}

	var resp dto.TestResponseDTO
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Msg("Failed to copy Test model to TestResponseDTO")
		return nil, apperror.Internal("error preparing test details response", err)
	}
	return &resp, nil
}

// loadPublishedTest fetches a test with its questions. Drafts and archived
// tests are reported as missing.
func loadPublishedTest(ctx context.Context, testRepo repository.TestRepository, testID uint) (*model.Test, error) {
	test, err := testRepo.FindByIDWithQuestions(ctx, testID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && test.Status != model.TestStatusPublished) {
		return nil, apperror.NotFound("test_not_found", fmt.Sprintf("test %d not found", testID))
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to get test from repository")
		return nil, apperror.Internal("error fetching test", err)
	}
	return test, nil
}

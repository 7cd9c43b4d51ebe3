package service

import (
	"context"

	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/repository"
)

// PracticeService grades answers without recording an attempt.
type PracticeService interface {
	CheckAnswers(ctx context.Context, testID uint, answers []dto.SubmittedAnswerDTO) (*dto.PracticeResultDTO, error)
}

type practiceService struct {
	testRepo repository.TestRepository
}

func NewPracticeService(testRepo repository.TestRepository) PracticeService {
	return &practiceService{testRepo: testRepo}
}

func (s *practiceService) CheckAnswers(ctx context.Context, testID uint, answers []dto.SubmittedAnswerDTO) (*dto.PracticeResultDTO, error) {
	if err := checkDistinctQuestions(answers); err != nil {
		return nil, err
	}
	test, err := loadPublishedTest(ctx, s.testRepo, testID)
	if err != nil {
		return nil, err
	}

	result := &dto.PracticeResultDTO{
		TestID:   test.ID,
		MaxScore: test.SumQuestionPoints(),
		Results:  make([]dto.PracticeAnswerResultDTO, 0, len(answers)),
	}
	for _, a := range answers {
		var correct bool
		var points int
		if q, ok := test.QuestionByID(a.QuestionID); ok {
			correct, points = GradeAnswer(q, a.SelectedOptionIDs)
		}
		result.Score += points
		result.Results = append(result.Results, dto.PracticeAnswerResultDTO{
			QuestionID:   a.QuestionID,
			IsCorrect:    correct,
			PointsEarned: points,
		})
	}
	result.PercentageScore = PercentageScore(result.Score, result.MaxScore)
	result.Passed = IsPassing(result.PercentageScore, test.PassingScore)
	return result, nil
}

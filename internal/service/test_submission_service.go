package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TestSubmissionService grades and closes attempts.
type TestSubmissionService interface {
	SubmitTest(ctx context.Context, testID, studentID uint, req dto.TestAttemptSubmitDTO) (*dto.SubmitResultDTO, error)
}

type testSubmissionService struct {
	testRepo     repository.TestRepository
	attemptRepo  repository.TestAttemptRepository
	answerRepo   repository.AnswerRepository
	certificates CertificateService
	db           *gorm.DB // Used for transactions within service methods
	grace        time.Duration
	now          func() time.Time
}

func NewTestSubmissionService(
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	answerRepo repository.AnswerRepository,
	certificates CertificateService,
	db *gorm.DB,
	cfg *config.Config,
) TestSubmissionService {
	return &testSubmissionService{
		testRepo:     testRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		certificates: certificates,
		db:           db,
		grace:        attemptGrace(cfg),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

var errAttemptClosed = apperror.Conflict("attempt_already_submitted", "attempt has already been submitted")

func (s *testSubmissionService) SubmitTest(ctx context.Context, testID, studentID uint, req dto.TestAttemptSubmitDTO) (*dto.SubmitResultDTO, error) {
	if err := checkDistinctQuestions(req.Answers); err != nil {
		return nil, err
	}

	attempt, err := s.attemptRepo.FindByID(ctx, req.AttemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && attempt.TestID != testID) {
		return nil, apperror.NotFound("attempt_not_found", fmt.Sprintf("attempt %d not found for test %d", req.AttemptID, testID))
	}
	if err != nil {
		log.Error().Err(err).Uint("attemptID", req.AttemptID).Msg("SubmitTest: failed to fetch attempt")
		return nil, apperror.Internal("error fetching attempt", err)
	}
	if attempt.StudentID != studentID {
		return nil, apperror.Forbidden("not_attempt_owner", "attempt belongs to another student")
	}
	switch attempt.Status {
	case model.AttemptInProgress:
	case model.AttemptTimedOut:
		return nil, apperror.Conflict("attempt_timed_out", "attempt ran out of time")
	default:
		return nil, errAttemptClosed
	}

	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("test_not_found", fmt.Sprintf("test %d not found", testID))
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("SubmitTest: failed to fetch test")
		return nil, apperror.Internal("error fetching test", err)
	}

	now := s.now()
	if attempt.IsOverdue(test.Duration(), s.grace, now) {
		if _, err := s.attemptRepo.Transition(ctx, attempt.ID, model.AttemptInProgress, model.AttemptTimedOut, now); err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("SubmitTest: failed to persist timed_out status")
		}
		log.Info().Uint("attemptID", attempt.ID).Msg("Late submission rejected")
		return nil, apperror.Conflict("attempt_timed_out", "attempt ran out of time")
	}

	answers, score := gradeSubmission(test, attempt.ID, req.Answers)
	possible := attempt.TotalPossiblePoints
	if possible <= 0 {
		possible = test.SumQuestionPoints()
	}
	attempt.Score = score
	attempt.TotalPossiblePoints = possible
	attempt.PercentageScore = PercentageScore(score, possible)
	attempt.Passed = IsPassing(attempt.PercentageScore, test.PassingScore)
	attempt.EndTime = &now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completed, err := s.attemptRepo.WithTx(tx).Complete(ctx, attempt)
		if err != nil {
			return err
		}
		if !completed {
			return errAttemptClosed
		}
		return s.answerRepo.WithTx(tx).CreateBatch(ctx, answers)
	})
	if errors.Is(err, errAttemptClosed) {
		return nil, errAttemptClosed
	}
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("SubmitTest: transaction failed")
		return nil, apperror.Internal("error saving submission", err)
	}
	attempt.Status = model.AttemptCompleted
	log.Info().Uint("attemptID", attempt.ID).Int("score", score).Int("percentage", attempt.PercentageScore).
		Bool("passed", attempt.Passed).Msg("Attempt graded")

	result := &dto.SubmitResultDTO{
		AttemptID:       attempt.ID,
		AttemptNumber:   attempt.AttemptNumber,
		Score:           attempt.Score,
		MaxScore:        attempt.TotalPossiblePoints,
		PercentageScore: attempt.PercentageScore,
		Passed:          attempt.Passed,
	}

	// Certificate issuance never fails the submission.
	cert, _, certErr := s.certificates.IssueIfEligible(ctx, attempt, test)
	if certErr != nil {
		log.Error().Err(certErr).Uint("attemptID", attempt.ID).Msg("SubmitTest: certificate issuance failed")
		return result, nil
	}
	if cert != nil && cert.Status == model.CertificateActive {
		result.CertificateIssued = true
		certID := cert.CertificateID
		result.CertificateID = &certID
		if err := s.attemptRepo.MarkCertificateIssued(ctx, attempt.ID, certID); err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("SubmitTest: failed to record certificate on attempt")
		}
	}
	return result, nil
}

// gradeSubmission grades answers in question order. Answers to questions that
// are not part of the test are kept and graded as incorrect.
func gradeSubmission(test *model.Test, attemptID uint, submitted []dto.SubmittedAnswerDTO) ([]model.Answer, int) {
	byQuestion := make(map[uint]dto.SubmittedAnswerDTO, len(submitted))
	for _, a := range submitted {
		byQuestion[a.QuestionID] = a
	}

	answers := make([]model.Answer, 0, len(submitted))
	score := 0
	add := func(sub dto.SubmittedAnswerDTO, correct bool, points int) {
		answer := model.Answer{
			TestAttemptID: attemptID,
			QuestionID:    sub.QuestionID,
			TextAnswer:    sub.TextAnswer,
			IsCorrect:     correct,
			PointsEarned:  points,
		}
		if err := answer.SetSelected(sub.SelectedOptionIDs); err != nil {
			log.Warn().Err(err).Uint("questionID", sub.QuestionID).Msg("Could not encode selected options")
		}
		answers = append(answers, answer)
		score += points
	}

	for _, q := range test.Questions {
		sub, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		correct, points := GradeAnswer(q, sub.SelectedOptionIDs)
		add(sub, correct, points)
		delete(byQuestion, q.ID)
	}
	for _, sub := range submitted {
		if _, unknown := byQuestion[sub.QuestionID]; unknown {
			log.Warn().Uint("questionID", sub.QuestionID).Uint("testID", test.ID).Msg("Answer for a question outside the test graded as incorrect")
			add(sub, false, 0)
		}
	}
	return answers, score
}

func checkDistinctQuestions(answers []dto.SubmittedAnswerDTO) error {
	seen := make(map[uint]bool, len(answers))
	for _, a := range answers {
		if a.QuestionID == 0 {
			return apperror.Validation("invalid_answer", "every answer needs a question_id")
		}
		if seen[a.QuestionID] {
			return apperror.Validation("duplicate_answer", fmt.Sprintf("question %d answered more than once", a.QuestionID))
		}
		seen[a.QuestionID] = true
	}
	return nil
}

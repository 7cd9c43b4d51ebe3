package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const maxStartRetries = 5

// AttemptService drives the attempt lifecycle except grading.
type AttemptService interface {
	// StartAttempt resumes the open attempt of the pair if it is still within
	// its deadline. Otherwise it creates the next numbered attempt.
	StartAttempt(ctx context.Context, testID, studentID uint) (*dto.StartAttemptResponseDTO, error)
	ListAttempts(ctx context.Context, testID, studentID uint) ([]dto.TestAttemptSummaryDTO, error)
	GetAttemptDetails(ctx context.Context, attemptID uint, caller model.Identity) (*dto.TestAttemptDetailDTO, error)
	AbandonAttempt(ctx context.Context, attemptID uint) (*dto.TestAttemptSummaryDTO, error)
}

type attemptService struct {
	testRepo    repository.TestRepository
	attemptRepo repository.TestAttemptRepository
	students    StudentDirectory
	grace       time.Duration
	now         func() time.Time
}

func NewAttemptService(
	testRepo repository.TestRepository,
	attemptRepo repository.TestAttemptRepository,
	students StudentDirectory,
	cfg *config.Config,
) AttemptService {
	return &attemptService{
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
		students:    students,
		grace:       attemptGrace(cfg),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *attemptService) StartAttempt(ctx context.Context, testID, studentID uint) (*dto.StartAttemptResponseDTO, error) {
	test, err := s.testRepo.FindByID(ctx, testID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && test.Status != model.TestStatusPublished) {
		return nil, apperror.NotFound("test_not_found", fmt.Sprintf("test %d not found", testID))
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("StartAttempt: failed to fetch test")
		return nil, apperror.Internal("error fetching test", err)
	}

	now := s.now()
	if test.DueDate != nil && now.After(*test.DueDate) {
		return nil, apperror.Validation("test_closed", "the due date of this test has passed")
	}

	enrolled, err := s.students.IsEnrolled(ctx, studentID, test.CourseID)
	if err != nil {
		log.Error().Err(err).Uint("studentID", studentID).Uint("courseID", test.CourseID).Msg("StartAttempt: enrollment lookup failed")
		return nil, apperror.Internal("error checking enrollment", err)
	}
	if !enrolled {
		return nil, apperror.Forbidden("not_enrolled", "student is not enrolled in the course of this test")
	}

	for try := 1; try <= maxStartRetries; try++ {
		open, err := s.attemptRepo.FindOpen(ctx, testID, studentID)
		switch {
		case err == nil:
			if !open.IsOverdue(test.Duration(), s.grace, now) {
				log.Info().Uint("attemptID", open.ID).Uint("studentID", studentID).Msg("Resuming in-progress attempt")
				return startResponse(open, test, true), nil
			}
			if _, err := s.attemptRepo.Transition(ctx, open.ID, model.AttemptInProgress, model.AttemptTimedOut, now); err != nil {
				return nil, apperror.Internal("error timing out attempt", err)
			}
			log.Info().Uint("attemptID", open.ID).Msg("Overdue attempt moved to timed_out")
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperror.Internal("error fetching open attempt", err)
		}

		if test.MaxAttempts > 0 {
			used, err := s.attemptRepo.CountNonAbandoned(ctx, testID, studentID)
			if err != nil {
				return nil, apperror.Internal("error counting attempts", err)
			}
			if used >= int64(test.MaxAttempts) {
				return nil, apperror.Capacity("max_attempts_exceeded",
					fmt.Sprintf("maximum of %d attempts reached", test.MaxAttempts))
			}
		}

		attempt := &model.TestAttempt{
			TestID:              testID,
			StudentID:           studentID,
			CourseID:            test.CourseID,
			StartTime:           now,
			TotalPossiblePoints: test.TotalPoints,
			Status:              model.AttemptInProgress,
		}
		created, err := s.attemptRepo.CreateNumbered(ctx, attempt)
		if err != nil {
			log.Error().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("StartAttempt: insert failed")
			return nil, apperror.Internal("error creating attempt", err)
		}
		if created {
			log.Info().Uint("attemptID", attempt.ID).Int("attemptNumber", attempt.AttemptNumber).
				Uint("testID", testID).Uint("studentID", studentID).Msg("Attempt started")
			return startResponse(attempt, test, false), nil
		}
		log.Debug().Int("try", try).Uint("testID", testID).Uint("studentID", studentID).Msg("StartAttempt: lost insert race, retrying")
	}
	return nil, apperror.Conflict("attempt_conflict", "could not start the attempt, please retry")
}

func (s *attemptService) ListAttempts(ctx context.Context, testID, studentID uint) ([]dto.TestAttemptSummaryDTO, error) {
	test, err := s.testRepo.FindByID(ctx, testID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("test_not_found", fmt.Sprintf("test %d not found", testID))
	}
	if err != nil {
		return nil, apperror.Internal("error fetching test", err)
	}

	attempts, err := s.attemptRepo.FindAllByTestAndStudent(ctx, testID, studentID)
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("ListAttempts: failed to find attempts")
		return nil, apperror.Internal("error fetching attempts", err)
	}

	now := s.now()
	dtos := make([]dto.TestAttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		s.expireIfOverdue(ctx, &attempts[i], test, now)
		summary, err := toAttemptSummary(&attempts[i])
		if err != nil {
			log.Error().Err(err).Uint("attemptID", attempts[i].ID).Msg("ListAttempts: error copying attempt to summary DTO")
			continue
		}
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

func (s *attemptService) GetAttemptDetails(ctx context.Context, attemptID uint, caller model.Identity) (*dto.TestAttemptDetailDTO, error) {
	attempt, err := s.attemptRepo.FindByIDWithDetails(ctx, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("attempt_not_found", fmt.Sprintf("attempt %d not found", attemptID))
	}
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("GetAttemptDetails: failed to find attempt")
		return nil, apperror.Internal("error fetching attempt", err)
	}
	if !caller.CanAccess(attempt.StudentID) {
		return nil, apperror.Forbidden("not_attempt_owner", "attempt belongs to another student")
	}

	s.expireIfOverdue(ctx, attempt, &attempt.Test, s.now())

	summary, err := toAttemptSummary(attempt)
	if err != nil {
		return nil, apperror.Internal("error preparing response data", err)
	}
	resp := dto.TestAttemptDetailDTO{
		TestAttemptSummaryDTO: summary,
		TestTitle:             attempt.Test.Title,
		Answers:               make([]dto.AnswerResponseDTO, 0, len(attempt.Answers)),
	}
	for _, a := range attempt.Answers {
		resp.Answers = append(resp.Answers, toAnswerResponse(a))
	}
	return &resp, nil
}

func (s *attemptService) AbandonAttempt(ctx context.Context, attemptID uint) (*dto.TestAttemptSummaryDTO, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("attempt_not_found", fmt.Sprintf("attempt %d not found", attemptID))
	}
	if err != nil {
		return nil, apperror.Internal("error fetching attempt", err)
	}

	now := s.now()
	ok, err := s.attemptRepo.Transition(ctx, attemptID, model.AttemptInProgress, model.AttemptAbandoned, now)
	if err != nil {
		return nil, apperror.Internal("error abandoning attempt", err)
	}
	if !ok {
		return nil, apperror.Conflict("attempt_not_in_progress",
			fmt.Sprintf("attempt %d is %s and cannot be abandoned", attemptID, attempt.Status))
	}
	log.Info().Uint("attemptID", attemptID).Uint("studentID", attempt.StudentID).Msg("Attempt abandoned")

	attempt.Status = model.AttemptAbandoned
	attempt.EndTime = &now
	summary, err := toAttemptSummary(attempt)
	if err != nil {
		return nil, apperror.Internal("error preparing response data", err)
	}
	return &summary, nil
}

// expireIfOverdue applies the lazy timed_out transition. The write is
// best-effort; the returned view reflects the transition either way.
func (s *attemptService) expireIfOverdue(ctx context.Context, attempt *model.TestAttempt, test *model.Test, now time.Time) {
	if !attempt.IsOverdue(test.Duration(), s.grace, now) {
		return
	}
	if _, err := s.attemptRepo.Transition(ctx, attempt.ID, model.AttemptInProgress, model.AttemptTimedOut, now); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("Failed to persist timed_out status")
	}
	attempt.Status = model.AttemptTimedOut
	attempt.EndTime = &now
}

func startResponse(attempt *model.TestAttempt, test *model.Test, resumed bool) *dto.StartAttemptResponseDTO {
	return &dto.StartAttemptResponseDTO{
		AttemptID:       attempt.ID,
		AttemptNumber:   attempt.AttemptNumber,
		DurationMinutes: test.DurationMinutes,
		StartTime:       attempt.StartTime,
		Deadline:        attempt.Deadline(test.Duration()),
		Resumed:         resumed,
	}
}

func toAttemptSummary(attempt *model.TestAttempt) (dto.TestAttemptSummaryDTO, error) {
	var summary dto.TestAttemptSummaryDTO
	if err := copier.Copy(&summary, attempt); err != nil {
		return summary, err
	}
	summary.Status = string(attempt.Status)
	return summary, nil
}

func toAnswerResponse(a model.Answer) dto.AnswerResponseDTO {
	selected := a.Selected()
	if selected == nil {
		selected = []uint{}
	}
	return dto.AnswerResponseDTO{
		ID:                a.ID,
		QuestionID:        a.QuestionID,
		SelectedOptionIDs: selected,
		TextAnswer:        a.TextAnswer,
		IsCorrect:         a.IsCorrect,
		PointsEarned:      a.PointsEarned,
	}
}

func attemptGrace(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.Assessment.AttemptGraceSeconds < 0 {
		return 0
	}
	return time.Duration(cfg.Assessment.AttemptGraceSeconds) * time.Second
}

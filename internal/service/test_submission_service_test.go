package service

import (
	"context"
	"testing"
	"time"

	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerSheet answers every question of the harness test, correctly where
// correct[i] is true.
func (h *harness) answerSheet(correct ...bool) []dto.SubmittedAnswerDTO {
	answers := make([]dto.SubmittedAnswerDTO, 0, len(correct))
	for i, ok := range correct {
		option := testutil.WrongOption(h.test, i)
		if ok {
			option = testutil.CorrectOption(h.test, i)
		}
		answers = append(answers, dto.SubmittedAnswerDTO{
			QuestionID:        h.test.Questions[i].ID,
			SelectedOptionIDs: []uint{option},
		})
	}
	return answers
}

func (h *harness) startAndSubmit(t *testing.T, studentID uint, answers []dto.SubmittedAnswerDTO) *dto.SubmitResultDTO {
	t.Helper()
	ctx := context.Background()
	started, err := h.attempts.StartAttempt(ctx, h.test.ID, studentID)
	require.NoError(t, err)
	result, err := h.submissions.SubmitTest(ctx, h.test.ID, studentID, dto.TestAttemptSubmitDTO{
		AttemptID: started.AttemptID,
		Answers:   answers,
	})
	require.NoError(t, err)
	return result
}

func TestSubmitPassThenFailKeepsCertificate(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{PassingScore: 70, IsCertificateTest: true, QuestionPoints: []int{5, 5}})
	ctx := context.Background()

	first := h.startAndSubmit(t, h.student.ID, h.answerSheet(true, true))
	assert.Equal(t, 1, first.AttemptNumber)
	assert.Equal(t, 10, first.Score)
	assert.Equal(t, 10, first.MaxScore)
	assert.Equal(t, 100, first.PercentageScore)
	assert.True(t, first.Passed)
	assert.True(t, first.CertificateIssued)
	require.NotNil(t, first.CertificateID)

	cert, err := h.certRepo.FindByStudentAndTest(ctx, h.student.ID, h.test.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.CertificateID, cert.CertificateID)
	assert.Equal(t, 100, cert.Score)
	assert.Equal(t, 70, cert.PassingScore)
	assert.Equal(t, model.CertificateActive, cert.Status)

	stored, err := h.attemptRepo.FindByID(ctx, first.AttemptID)
	require.NoError(t, err)
	assert.True(t, stored.CertificateIssued)
	require.NotNil(t, stored.CertificateID)
	assert.Equal(t, cert.CertificateID, *stored.CertificateID)

	h.advance(24 * time.Hour)
	second := h.startAndSubmit(t, h.student.ID, h.answerSheet(true, false))
	assert.Equal(t, 2, second.AttemptNumber)
	assert.Equal(t, 5, second.Score)
	assert.Equal(t, 50, second.PercentageScore)
	assert.False(t, second.Passed)
	assert.False(t, second.CertificateIssued)
	assert.Nil(t, second.CertificateID)

	after, err := h.certRepo.FindByStudentAndTest(ctx, h.student.ID, h.test.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.CertificateID, after.CertificateID)
	assert.Equal(t, 100, after.Score)
	assert.Equal(t, cert.TestAttemptID, after.TestAttemptID)
	assert.True(t, cert.IssueDate.Equal(after.IssueDate))

	count, err := h.certRepo.CountByStudentAndTest(ctx, h.student.ID, h.test.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSubmitRejectsSecondSubmission(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	ctx := context.Background()

	result := h.startAndSubmit(t, h.student.ID, h.answerSheet(true, true))

	_, err := h.submissions.SubmitTest(ctx, h.test.ID, h.student.ID, dto.TestAttemptSubmitDTO{
		AttemptID: result.AttemptID,
		Answers:   h.answerSheet(false, false),
	})
	assert.True(t, apperror.Is(err, apperror.KindConflict, "attempt_already_submitted"), "got %v", err)

	stored, err := h.attemptRepo.FindByID(ctx, result.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Score)

	var answers int64
	require.NoError(t, h.db.Model(&model.Answer{}).Where("test_attempt_id = ?", result.AttemptID).Count(&answers).Error)
	assert.Equal(t, int64(2), answers)
}

func TestSubmitChecksOwnershipAndTest(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	ctx := context.Background()

	started, err := h.attempts.StartAttempt(ctx, h.test.ID, h.student.ID)
	require.NoError(t, err)

	intruder := h.enrolledStudent(t, "Mallory")
	_, err = h.submissions.SubmitTest(ctx, h.test.ID, intruder.ID, dto.TestAttemptSubmitDTO{AttemptID: started.AttemptID})
	assert.True(t, apperror.Is(err, apperror.KindForbidden, "not_attempt_owner"), "got %v", err)

	other := testutil.SeedTest(t, h.db, h.course.ID, testutil.TestOptions{})
	_, err = h.submissions.SubmitTest(ctx, other.ID, h.student.ID, dto.TestAttemptSubmitDTO{AttemptID: started.AttemptID})
	assert.True(t, apperror.Is(err, apperror.KindNotFound, "attempt_not_found"), "got %v", err)

	stored, err := h.attemptRepo.FindByID(ctx, started.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptInProgress, stored.Status)
}

func TestSubmitAfterDeadline(t *testing.T) {
	ctx := context.Background()

	t.Run("within grace", func(t *testing.T) {
		h := newHarness(t, testutil.TestOptions{DurationMinutes: 10})
		started, err := h.attempts.StartAttempt(ctx, h.test.ID, h.student.ID)
		require.NoError(t, err)

		h.advance(10*time.Minute + 20*time.Second)
		result, err := h.submissions.SubmitTest(ctx, h.test.ID, h.student.ID, dto.TestAttemptSubmitDTO{
			AttemptID: started.AttemptID,
			Answers:   h.answerSheet(true, true),
		})
		require.NoError(t, err)
		assert.True(t, result.Passed)
	})

	t.Run("past grace", func(t *testing.T) {
		h := newHarness(t, testutil.TestOptions{DurationMinutes: 10})
		started, err := h.attempts.StartAttempt(ctx, h.test.ID, h.student.ID)
		require.NoError(t, err)

		h.advance(10*time.Minute + 31*time.Second)
		_, err = h.submissions.SubmitTest(ctx, h.test.ID, h.student.ID, dto.TestAttemptSubmitDTO{
			AttemptID: started.AttemptID,
			Answers:   h.answerSheet(true, true),
		})
		assert.True(t, apperror.Is(err, apperror.KindConflict, "attempt_timed_out"), "got %v", err)

		stored, err := h.attemptRepo.FindByID(ctx, started.AttemptID)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptTimedOut, stored.Status)
		assert.Zero(t, stored.Score)

		_, err = h.submissions.SubmitTest(ctx, h.test.ID, h.student.ID, dto.TestAttemptSubmitDTO{AttemptID: started.AttemptID})
		assert.True(t, apperror.Is(err, apperror.KindConflict, "attempt_timed_out"), "got %v", err)
	})
}

func TestSubmitValidatesAnswers(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	ctx := context.Background()
	started, err := h.attempts.StartAttempt(ctx, h.test.ID, h.student.ID)
	require.NoError(t, err)

	q := h.test.Questions[0].ID
	_, err = h.submissions.SubmitTest(ctx, h.test.ID, h.student.ID, dto.TestAttemptSubmitDTO{
		AttemptID: started.AttemptID,
		Answers: []dto.SubmittedAnswerDTO{
			{QuestionID: q, SelectedOptionIDs: []uint{testutil.CorrectOption(h.test, 0)}},
			{QuestionID: q, SelectedOptionIDs: []uint{testutil.WrongOption(h.test, 0)}},
		},
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation, "duplicate_answer"), "got %v", err)

	stored, err := h.attemptRepo.FindByID(ctx, started.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptInProgress, stored.Status)
}

func TestSubmitGradesForeignQuestionsAsIncorrect(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{QuestionPoints: []int{4, 6}})
	ctx := context.Background()
	other := testutil.SeedTest(t, h.db, h.course.ID, testutil.TestOptions{})

	answers := h.answerSheet(false, true)
	answers = append(answers, dto.SubmittedAnswerDTO{
		QuestionID:        other.Questions[0].ID,
		SelectedOptionIDs: []uint{testutil.CorrectOption(other, 0)},
	})
	result := h.startAndSubmit(t, h.student.ID, answers)
	assert.Equal(t, 6, result.Score)
	assert.Equal(t, 10, result.MaxScore)
	assert.Equal(t, 60, result.PercentageScore)
	assert.False(t, result.Passed)

	details, err := h.attempts.GetAttemptDetails(ctx, result.AttemptID, model.Identity{ID: h.student.ID, Role: model.RoleStudent})
	require.NoError(t, err)
	require.Len(t, details.Answers, 3)
	assert.Equal(t, other.Questions[0].ID, details.Answers[2].QuestionID)
	assert.False(t, details.Answers[2].IsCorrect)
	assert.Zero(t, details.Answers[2].PointsEarned)
}

func TestSubmitWithoutCertificateFlagIssuesNothing(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{IsCertificateTest: false})
	ctx := context.Background()

	result := h.startAndSubmit(t, h.student.ID, h.answerSheet(true, true))
	assert.True(t, result.Passed)
	assert.False(t, result.CertificateIssued)

	count, err := h.certRepo.CountByStudentAndTest(ctx, h.student.ID, h.test.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

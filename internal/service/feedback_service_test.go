package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (g *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func (h *harness) feedback(gen textGenerator) *feedbackService {
	return &feedbackService{generator: gen, attemptRepo: h.attemptRepo, testRepo: h.testRepo}
}

func TestFeedbackWithoutAPIKeyIsUnavailable(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	svc, err := NewFeedbackService(&config.Config{}, h.attemptRepo, h.testRepo)
	require.NoError(t, err)

	_, err = svc.AttemptFeedback(context.Background(), 1, model.Identity{ID: h.student.ID, Role: model.RoleStudent})
	assert.True(t, apperror.Is(err, apperror.KindUnavailable, "feedback_unavailable"), "got %v", err)
}

func TestFeedbackPromptListsMissedQuestions(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	ctx := context.Background()
	gen := &fakeGenerator{reply: "Review question 2."}
	owner := model.Identity{ID: h.student.ID, Role: model.RoleStudent}

	result := h.startAndSubmit(t, h.student.ID, h.answerSheet(true, false))
	resp, err := h.feedback(gen).AttemptFeedback(ctx, result.AttemptID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Review question 2.", resp.Feedback)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Question 1: Question 2")
	assert.Contains(t, gen.prompts[0], "Student chose: wrong")
	assert.Contains(t, gen.prompts[0], "Correct answer: right")
	assert.NotContains(t, gen.prompts[0], "Question 2: ")
}

func TestFeedbackSkipsGeneratorWhenAllCorrect(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	gen := &fakeGenerator{err: errors.New("must not be called")}

	result := h.startAndSubmit(t, h.student.ID, h.answerSheet(true, true))
	resp, err := h.feedback(gen).AttemptFeedback(context.Background(), result.AttemptID,
		model.Identity{ID: h.student.ID, Role: model.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, allCorrectFeedback, resp.Feedback)
	assert.Empty(t, gen.prompts)
}

func TestFeedbackRejections(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	ctx := context.Background()
	gen := &fakeGenerator{reply: "ok"}
	svc := h.feedback(gen)
	owner := model.Identity{ID: h.student.ID, Role: model.RoleStudent}

	started, err := h.attempts.StartAttempt(ctx, h.test.ID, h.student.ID)
	require.NoError(t, err)
	_, err = svc.AttemptFeedback(ctx, started.AttemptID, owner)
	assert.True(t, apperror.Is(err, apperror.KindConflict, "attempt_not_completed"), "got %v", err)

	_, err = svc.AttemptFeedback(ctx, started.AttemptID, model.Identity{ID: h.student.ID + 1, Role: model.RoleStudent})
	assert.True(t, apperror.Is(err, apperror.KindForbidden, "not_attempt_owner"), "got %v", err)

	_, err = svc.AttemptFeedback(ctx, started.AttemptID+100, owner)
	assert.True(t, apperror.Is(err, apperror.KindNotFound, "attempt_not_found"), "got %v", err)

	_, err = h.submissions.SubmitTest(ctx, h.test.ID, h.student.ID, dto.TestAttemptSubmitDTO{
		AttemptID: started.AttemptID,
		Answers:   h.answerSheet(false, false),
	})
	require.NoError(t, err)
	gen.err = errors.New("quota exceeded")
	_, err = svc.AttemptFeedback(ctx, started.AttemptID, owner)
	assert.True(t, apperror.Is(err, apperror.KindUnavailable, "feedback_unavailable"), "got %v", err)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/repository"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

const allCorrectFeedback = "Every answer in this attempt was correct. Nothing to review."

// FeedbackService produces study advice for a completed attempt.
type FeedbackService interface {
	AttemptFeedback(ctx context.Context, attemptID uint, caller model.Identity) (*dto.AttemptFeedbackDTO, error)
}

// textGenerator is the slice of the LLM client the service needs.
type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type geminiGenerator struct {
	model *genai.GenerativeModel
}

func (g *geminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", errors.New("gemini returned no text content")
	}
	return strings.TrimSpace(text.String()), nil
}

type feedbackService struct {
	generator   textGenerator
	attemptRepo repository.TestAttemptRepository
	testRepo    repository.TestRepository
}

// NewFeedbackService builds the Gemini client. Without an API key the service
// still starts and answers every request with feedback_unavailable.
func NewFeedbackService(cfg *config.Config, attemptRepo repository.TestAttemptRepository, testRepo repository.TestRepository) (FeedbackService, error) {
	svc := &feedbackService{attemptRepo: attemptRepo, testRepo: testRepo}
	if cfg.Gemini.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Attempt feedback will be unavailable.")
		return svc, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	svc.generator = &geminiGenerator{model: client.GenerativeModel(cfg.Gemini.Model)}
	return svc, nil
}

func (s *feedbackService) AttemptFeedback(ctx context.Context, attemptID uint, caller model.Identity) (*dto.AttemptFeedbackDTO, error) {
	if s.generator == nil {
		return nil, apperror.Unavailable("feedback_unavailable", "study feedback is not configured")
	}

	attempt, err := s.attemptRepo.FindByIDWithDetails(ctx, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("attempt_not_found", fmt.Sprintf("attempt %d not found", attemptID))
	}
	if err != nil {
		return nil, apperror.Internal("error fetching attempt", err)
	}
	if attempt.StudentID != caller.ID {
		return nil, apperror.Forbidden("not_attempt_owner", "attempt belongs to another student")
	}
	if attempt.Status != model.AttemptCompleted {
		return nil, apperror.Conflict("attempt_not_completed", "feedback is only available for completed attempts")
	}

	test, err := s.testRepo.FindByIDWithQuestions(ctx, attempt.TestID)
	if err != nil {
		return nil, apperror.Internal("error fetching test", err)
	}

	prompt, missed := buildFeedbackPrompt(test, attempt.Answers)
	if missed == 0 {
		return &dto.AttemptFeedbackDTO{AttemptID: attempt.ID, Feedback: allCorrectFeedback}, nil
	}

	feedback, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Gemini feedback generation failed")
		return nil, apperror.Wrap(err, apperror.KindUnavailable, "feedback_unavailable", "study feedback could not be generated")
	}
	return &dto.AttemptFeedbackDTO{AttemptID: attempt.ID, Feedback: feedback}, nil
}

// buildFeedbackPrompt lists every incorrectly answered question with the
// chosen and the correct options. It returns the number of such questions.
func buildFeedbackPrompt(test *model.Test, answers []model.Answer) (string, int) {
	var b strings.Builder
	b.WriteString("You are a patient tutor reviewing a student's quiz.\n")
	b.WriteString(fmt.Sprintf("Quiz: %s\n", test.Title))
	if test.Description != "" {
		b.WriteString(fmt.Sprintf("About the quiz: %s\n", test.Description))
	}
	b.WriteString("The student got the following questions wrong.\n\n")

	missed := 0
	for _, a := range answers {
		if a.IsCorrect {
			continue
		}
		q, ok := test.QuestionByID(a.QuestionID)
		if !ok {
			continue
		}
		missed++
		b.WriteString(fmt.Sprintf("Question %d: %s\n", missed, q.Text))
		b.WriteString(fmt.Sprintf("Student chose: %s\n", optionTexts(q, a.Selected())))
		b.WriteString(fmt.Sprintf("Correct answer: %s\n\n", optionTexts(q, q.CorrectOptionIDs())))
	}

	b.WriteString("For each question, explain briefly why the correct answer is right and what concept to review. ")
	b.WriteString("Finish with two or three concrete study suggestions. Keep the whole answer under 300 words.\n")
	return b.String(), missed
}

func optionTexts(q model.Question, ids []uint) string {
	if len(ids) == 0 {
		return "(no answer)"
	}
	wanted := distinct(ids)
	var texts []string
	for _, o := range q.Options {
		if wanted[o.ID] {
			texts = append(texts, o.Text)
		}
	}
	if len(texts) == 0 {
		return "(unrecognised option)"
	}
	return strings.Join(texts, "; ")
}

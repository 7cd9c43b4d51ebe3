package service

import (
	"context"
	"testing"

	"github.com/lshigami/learnhub/internal/apperror"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choice(text string, correct bool) dto.OptionCreateDTO {
	return dto.OptionCreateDTO{Text: text, IsCorrect: correct}
}

func TestCreateTestComputesTotalsAndOrders(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	ctx := context.Background()

	resp, err := h.admin.CreateTest(ctx, dto.TestCreateDTO{
		CourseID:          h.course.ID,
		Title:             "Concurrency",
		PassingScore:      60,
		TotalPoints:       99,
		IsCertificateTest: true,
		Questions: []dto.QuestionCreateDTO{
			{Text: "Channels block?", Type: "true_false", Points: 2, Options: []dto.OptionCreateDTO{choice("yes", true), choice("no", false)}},
			{Text: "Pick the sync types", Type: "multiple_choice", Points: 3, Options: []dto.OptionCreateDTO{
				choice("Mutex", true), choice("WaitGroup", true), choice("Reader", false),
			}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, 5, resp.TotalPoints)
	require.Len(t, resp.Questions, 2)
	assert.Equal(t, 1, resp.Questions[0].OrderInTest)
	assert.Equal(t, 2, resp.Questions[1].OrderInTest)
	require.Len(t, resp.Questions[1].Options, 3)
	assert.True(t, resp.Questions[1].Options[0].IsCorrect)
}

func TestCreateTestValidation(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	ctx := context.Background()

	base := func(q dto.QuestionCreateDTO) dto.TestCreateDTO {
		return dto.TestCreateDTO{CourseID: h.course.ID, Title: "T", PassingScore: 70, Questions: []dto.QuestionCreateDTO{q}}
	}
	tests := []struct {
		name   string
		req    dto.TestCreateDTO
		kind   apperror.Kind
		reason string
	}{
		{
			name:   "unknown course",
			req:    dto.TestCreateDTO{CourseID: h.course.ID + 100, Title: "T"},
			kind:   apperror.KindNotFound,
			reason: "course_not_found",
		},
		{
			name:   "passing score out of range",
			req:    dto.TestCreateDTO{CourseID: h.course.ID, Title: "T", PassingScore: 120},
			kind:   apperror.KindValidation,
			reason: "invalid_passing_score",
		},
		{
			name:   "no questions",
			req:    dto.TestCreateDTO{CourseID: h.course.ID, Title: "T", PassingScore: 70},
			kind:   apperror.KindValidation,
			reason: "no_questions",
		},
		{
			name: "no correct option",
			req: base(dto.QuestionCreateDTO{Text: "Q", Type: "multiple_choice", Points: 1,
				Options: []dto.OptionCreateDTO{choice("a", false), choice("b", false)}}),
			kind:   apperror.KindValidation,
			reason: "no_correct_option",
		},
		{
			name: "true false with two correct",
			req: base(dto.QuestionCreateDTO{Text: "Q", Type: "true_false", Points: 1,
				Options: []dto.OptionCreateDTO{choice("a", true), choice("b", true)}}),
			kind:   apperror.KindValidation,
			reason: "invalid_true_false",
		},
		{
			name: "single option",
			req: base(dto.QuestionCreateDTO{Text: "Q", Type: "multiple_choice", Points: 1,
				Options: []dto.OptionCreateDTO{choice("a", true)}}),
			kind:   apperror.KindValidation,
			reason: "too_few_options",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.admin.CreateTest(ctx, tt.req)
			assert.True(t, apperror.Is(err, tt.kind, tt.reason), "got %v", err)
		})
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{Status: model.TestStatusDraft})
	ctx := context.Background()

	resp, err := h.admin.UpdateStatus(ctx, h.test.ID, "published")
	require.NoError(t, err)
	assert.Equal(t, "published", resp.Status)

	_, err = h.admin.UpdateStatus(ctx, h.test.ID, "draft")
	assert.True(t, apperror.Is(err, apperror.KindValidation, "invalid_status_transition"), "got %v", err)

	resp, err = h.admin.UpdateStatus(ctx, h.test.ID, "archived")
	require.NoError(t, err)
	assert.Equal(t, "archived", resp.Status)

	_, err = h.admin.UpdateStatus(ctx, h.test.ID+100, "published")
	assert.True(t, apperror.Is(err, apperror.KindNotFound, "test_not_found"), "got %v", err)
}

func TestAddQuestionLockedOnceAttempted(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{QuestionPoints: []int{5, 5}})
	ctx := context.Background()
	question := dto.QuestionCreateDTO{Text: "Extra", Type: "true_false", Points: 4,
		Options: []dto.OptionCreateDTO{choice("true", true), choice("false", false)}}

	added, err := h.admin.AddQuestion(ctx, h.test.ID, question)
	require.NoError(t, err)
	assert.Equal(t, 3, added.OrderInTest)

	stored, err := h.testRepo.FindByID(ctx, h.test.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, stored.TotalPoints)

	question.OrderInTest = 1
	_, err = h.admin.AddQuestion(ctx, h.test.ID, question)
	assert.True(t, apperror.Is(err, apperror.KindValidation, "duplicate_question_order"), "got %v", err)

	_, err = h.attempts.StartAttempt(ctx, h.test.ID, h.student.ID)
	require.NoError(t, err)
	question.OrderInTest = 0
	_, err = h.admin.AddQuestion(ctx, h.test.ID, question)
	assert.True(t, apperror.Is(err, apperror.KindConflict, "test_has_attempts"), "got %v", err)
}

func TestCatalogAdministration(t *testing.T) {
	h := newHarness(t, testutil.TestOptions{})
	ctx := context.Background()

	course, err := h.admin.CreateCourse(ctx, dto.CourseCreateDTO{Title: "Databases", Code: "DB-101"})
	require.NoError(t, err)
	_, err = h.admin.CreateCourse(ctx, dto.CourseCreateDTO{Title: "Databases again", Code: "DB-101"})
	assert.True(t, apperror.Is(err, apperror.KindConflict, "course_code_taken"), "got %v", err)

	student, err := h.admin.CreateStudent(ctx, dto.StudentCreateDTO{Name: "Grace", Email: "grace@example.com"})
	require.NoError(t, err)
	_, err = h.admin.CreateStudent(ctx, dto.StudentCreateDTO{Name: "Grace II", Email: "grace@example.com"})
	assert.True(t, apperror.Is(err, apperror.KindConflict, "email_taken"), "got %v", err)

	enrollment, err := h.admin.Enroll(ctx, dto.EnrollmentCreateDTO{StudentID: student.ID, CourseID: course.ID})
	require.NoError(t, err)
	assert.Equal(t, student.ID, enrollment.StudentID)
	_, err = h.admin.Enroll(ctx, dto.EnrollmentCreateDTO{StudentID: student.ID, CourseID: course.ID})
	assert.True(t, apperror.Is(err, apperror.KindConflict, "already_enrolled"), "got %v", err)
	_, err = h.admin.Enroll(ctx, dto.EnrollmentCreateDTO{StudentID: student.ID + 100, CourseID: course.ID})
	assert.True(t, apperror.Is(err, apperror.KindNotFound, "student_not_found"), "got %v", err)

	enrolled, err := h.directory.IsEnrolled(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

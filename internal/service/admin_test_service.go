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

type AdminTestService interface {
	CreateTest(ctx context.Context, req dto.TestCreateDTO) (*dto.AdminTestResponseDTO, error)
	AddQuestion(ctx context.Context, testID uint, req dto.QuestionCreateDTO) (*dto.AdminQuestionDTO, error)
	UpdateStatus(ctx context.Context, testID uint, status string) (*dto.AdminTestResponseDTO, error)
	CreateCourse(ctx context.Context, req dto.CourseCreateDTO) (*dto.CourseResponseDTO, error)
	CreateStudent(ctx context.Context, req dto.StudentCreateDTO) (*dto.StudentResponseDTO, error)
	Enroll(ctx context.Context, req dto.EnrollmentCreateDTO) (*dto.EnrollmentResponseDTO, error)
}

type adminTestService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.TestAttemptRepository
	courseRepo   repository.CourseRepository
	studentRepo  repository.StudentRepository
	db           *gorm.DB
}

func NewAdminTestService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.TestAttemptRepository,
	courseRepo repository.CourseRepository,
	studentRepo repository.StudentRepository,
	db *gorm.DB,
) AdminTestService {
	return &adminTestService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		courseRepo:   courseRepo,
		studentRepo:  studentRepo,
		db:           db,
	}
}

// allowedTestTransitions lists every legal status change.
var allowedTestTransitions = map[model.TestStatus][]model.TestStatus{
	model.TestStatusDraft:     {model.TestStatusPublished, model.TestStatusArchived},
	model.TestStatusPublished: {model.TestStatusArchived},
}

func (s *adminTestService) CreateTest(ctx context.Context, req dto.TestCreateDTO) (*dto.AdminTestResponseDTO, error) {
	if _, err := s.courseRepo.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("course_not_found", fmt.Sprintf("course %d not found", req.CourseID))
		}
		return nil, apperror.Internal("error fetching course", err)
	}
	if req.PassingScore < 0 || req.PassingScore > 100 {
		return nil, apperror.Validation("invalid_passing_score", "passing_score must be between 0 and 100")
	}
	if req.DurationMinutes < 0 || req.MaxAttempts < 0 {
		return nil, apperror.Validation("invalid_test_settings", "duration_minutes and max_attempts must not be negative")
	}
	if len(req.Questions) == 0 {
		return nil, apperror.Validation("no_questions", "a test must have at least one question")
	}

	orders := make(map[int]bool)
	nextOrder := 0
	for _, q := range req.Questions {
		if q.OrderInTest == 0 {
			continue
		}
		if orders[q.OrderInTest] {
			return nil, apperror.Validation("duplicate_question_order", fmt.Sprintf("duplicate order_in_test %d", q.OrderInTest))
		}
		orders[q.OrderInTest] = true
		if q.OrderInTest > nextOrder {
			nextOrder = q.OrderInTest
		}
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for _, qDto := range req.Questions {
		order := qDto.OrderInTest
		if order == 0 {
			nextOrder++
			order = nextOrder
		}
		question, err := buildQuestion(qDto, order)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}

	test := model.Test{
		CourseID:          req.CourseID,
		Title:             req.Title,
		Description:       req.Description,
		PassingScore:      req.PassingScore,
		DurationMinutes:   req.DurationMinutes,
		DueDate:           req.DueDate,
		MaxAttempts:       req.MaxAttempts,
		IsCertificateTest: req.IsCertificateTest,
		Status:            model.TestStatusDraft,
		Questions:         questions,
	}
	test.TotalPoints = test.SumQuestionPoints()
	if req.TotalPoints != 0 && req.TotalPoints != test.TotalPoints {
		log.Warn().Int("requested", req.TotalPoints).Int("sumOfQuestions", test.TotalPoints).Str("title", req.Title).
			Msg("CreateTest: total_points does not match question points, using the sum")
	}
	if req.Publish {
		test.Status = model.TestStatusPublished
	}

	if err := s.testRepo.Create(ctx, &test); err != nil {
		log.Error().Err(err).Msg("Failed to create test in database")
		return nil, apperror.Internal("error creating test", err)
	}
	log.Info().Uint("testID", test.ID).Uint("courseID", test.CourseID).Int("questions", len(questions)).Msg("Test created")

	return s.adminTestView(ctx, test.ID, &test)
}

func (s *adminTestService) AddQuestion(ctx context.Context, testID uint, req dto.QuestionCreateDTO) (*dto.AdminQuestionDTO, error) {
	var created model.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		testRepo := s.testRepo.WithTx(tx)
		test, err := testRepo.FindByID(ctx, testID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("test_not_found", fmt.Sprintf("test %d not found", testID))
		}
		if err != nil {
			return fmt.Errorf("error fetching test %d: %w", testID, err)
		}

		attempts, err := s.attemptRepo.WithTx(tx).CountByTestID(ctx, testID)
		if err != nil {
			return fmt.Errorf("error counting attempts of test %d: %w", testID, err)
		}
		if attempts > 0 {
			return apperror.Conflict("test_has_attempts", "questions cannot be added once students have attempted the test")
		}

		existing, err := s.questionRepo.WithTx(tx).FindByTestID(ctx, testID)
		if err != nil {
			return fmt.Errorf("error fetching questions of test %d: %w", testID, err)
		}
		order := req.OrderInTest
		maxOrder := 0
		for _, q := range existing {
			if req.OrderInTest != 0 && q.OrderInTest == req.OrderInTest {
				return apperror.Validation("duplicate_question_order", fmt.Sprintf("duplicate order_in_test %d", req.OrderInTest))
			}
			if q.OrderInTest > maxOrder {
				maxOrder = q.OrderInTest
			}
		}
		if order == 0 {
			order = maxOrder + 1
		}

		created, err = buildQuestion(req, order)
		if err != nil {
			return err
		}
		created.TestID = testID
		if err := s.questionRepo.WithTx(tx).Create(ctx, &created); err != nil {
			return fmt.Errorf("error creating question: %w", err)
		}
		return testRepo.UpdateTotalPoints(ctx, testID, test.TotalPoints+created.Points)
	})
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		log.Error().Err(err).Uint("testID", testID).Msg("AddQuestion failed")
		return nil, apperror.Internal("error adding question", err)
	}

	var resp dto.AdminQuestionDTO
	if err := copier.Copy(&resp, &created); err != nil {
		return nil, apperror.Internal("error preparing response data", err)
	}
	return &resp, nil
}

func (s *adminTestService) UpdateStatus(ctx context.Context, testID uint, status string) (*dto.AdminTestResponseDTO, error) {
	test, err := s.testRepo.FindByID(ctx, testID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("test_not_found", fmt.Sprintf("test %d not found", testID))
	}
	if err != nil {
		return nil, apperror.Internal("error fetching test", err)
	}

	next := model.TestStatus(status)
	allowed := false
	for _, candidate := range allowedTestTransitions[test.Status] {
		if candidate == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperror.Validation("invalid_status_transition",
			fmt.Sprintf("cannot move test from %s to %s", test.Status, status))
	}

	if err := s.testRepo.UpdateStatus(ctx, testID, next); err != nil {
		return nil, apperror.Internal("error updating test status", err)
	}
	log.Info().Uint("testID", testID).Str("from", string(test.Status)).Str("to", status).Msg("Test status changed")
	test.Status = next
	return s.adminTestView(ctx, testID, test)
}

func (s *adminTestService) CreateCourse(ctx context.Context, req dto.CourseCreateDTO) (*dto.CourseResponseDTO, error) {
	course := model.Course{Title: req.Title, Code: req.Code, Description: req.Description}
	created, err := s.courseRepo.Create(ctx, &course)
	if err != nil {
		return nil, apperror.Internal("error creating course", err)
	}
	if !created {
		return nil, apperror.Conflict("course_code_taken", fmt.Sprintf("course code %q is already in use", req.Code))
	}
	var resp dto.CourseResponseDTO
	if err := copier.Copy(&resp, &course); err != nil {
		return nil, apperror.Internal("error preparing response data", err)
	}
	return &resp, nil
}

func (s *adminTestService) CreateStudent(ctx context.Context, req dto.StudentCreateDTO) (*dto.StudentResponseDTO, error) {
	student := model.Student{Name: req.Name, Email: req.Email}
	created, err := s.studentRepo.Create(ctx, &student)
	if err != nil {
		return nil, apperror.Internal("error creating student", err)
	}
	if !created {
		return nil, apperror.Conflict("email_taken", fmt.Sprintf("email %q is already registered", req.Email))
	}
	var resp dto.StudentResponseDTO
	if err := copier.Copy(&resp, &student); err != nil {
		return nil, apperror.Internal("error preparing response data", err)
	}
	return &resp, nil
}

func (s *adminTestService) Enroll(ctx context.Context, req dto.EnrollmentCreateDTO) (*dto.EnrollmentResponseDTO, error) {
	if _, err := s.studentRepo.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("student_not_found", fmt.Sprintf("student %d not found", req.StudentID))
		}
		return nil, apperror.Internal("error fetching student", err)
	}
	if _, err := s.courseRepo.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("course_not_found", fmt.Sprintf("course %d not found", req.CourseID))
		}
		return nil, apperror.Internal("error fetching course", err)
	}

	enrollment := model.Enrollment{StudentID: req.StudentID, CourseID: req.CourseID}
	created, err := s.studentRepo.Enroll(ctx, &enrollment)
	if err != nil {
		return nil, apperror.Internal("error creating enrollment", err)
	}
	if !created {
		return nil, apperror.Conflict("already_enrolled", "student is already enrolled in this course")
	}
	var resp dto.EnrollmentResponseDTO
	if err := copier.Copy(&resp, &enrollment); err != nil {
		return nil, apperror.Internal("error preparing response data", err)
	}
	return &resp, nil
}

// adminTestView reloads the test with its questions; fallback is used when the
// reload fails.
func (s *adminTestService) adminTestView(ctx context.Context, testID uint, fallback *model.Test) (*dto.AdminTestResponseDTO, error) {
	source := fallback
	if loaded, err := s.testRepo.FindByIDWithQuestions(ctx, testID); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to reload test with questions for response")
	} else {
		source = loaded
	}

	var resp dto.AdminTestResponseDTO
	if err := copier.Copy(&resp, source); err != nil {
		log.Error().Err(err).Msg("Failed to copy Test model to AdminTestResponseDTO")
		return nil, apperror.Internal("error preparing response data", err)
	}
	return &resp, nil
}

func buildQuestion(req dto.QuestionCreateDTO, order int) (model.Question, error) {
	if req.Points < 1 {
		return model.Question{}, apperror.Validation("invalid_question_points",
			fmt.Sprintf("question %d must be worth at least one point", order))
	}
	if len(req.Options) < 2 {
		return model.Question{}, apperror.Validation("too_few_options",
			fmt.Sprintf("question %d needs at least two options", order))
	}

	correct := 0
	options := make([]model.QuestionOption, 0, len(req.Options))
	for i, o := range req.Options {
		if o.IsCorrect {
			correct++
		}
		options = append(options, model.QuestionOption{Text: o.Text, IsCorrect: o.IsCorrect, OrderInQuestion: i + 1})
	}
	if correct == 0 {
		return model.Question{}, apperror.Validation("no_correct_option",
			fmt.Sprintf("question %d has no correct option", order))
	}

	qType := model.QuestionType(req.Type)
	switch qType {
	case model.QuestionTypeMultipleChoice:
	case model.QuestionTypeTrueFalse:
		if len(req.Options) != 2 || correct != 1 {
			return model.Question{}, apperror.Validation("invalid_true_false",
				fmt.Sprintf("true_false question %d needs exactly two options and one correct answer", order))
		}
	default:
		return model.Question{}, apperror.Validation("invalid_question_type",
			fmt.Sprintf("unsupported question type %q", req.Type))
	}

	return model.Question{
		Text:        req.Text,
		Type:        qType,
		OrderInTest: order,
		Points:      req.Points,
		Options:     options,
	}, nil
}

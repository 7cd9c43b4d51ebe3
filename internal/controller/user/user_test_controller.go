package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/learnhub/internal/controller"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/service"
	"github.com/rs/zerolog/log"
)

type UserTestController struct {
	userTestService       service.UserTestService
	attemptService        service.AttemptService
	testSubmissionService service.TestSubmissionService
	practiceService       service.PracticeService
	feedbackService       service.FeedbackService
}

func NewUserTestController(
	uts service.UserTestService,
	as service.AttemptService,
	tss service.TestSubmissionService,
	ps service.PracticeService,
	fs service.FeedbackService,
) *UserTestController {
	return &UserTestController{
		userTestService:       uts,
		attemptService:        as,
		testSubmissionService: tss,
		practiceService:       ps,
		feedbackService:       fs,
	}
}

// ListTests godoc
// @Summary (User) List published tests
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param course_id query int false "Only tests of this course"
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid course_id"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests [get]
func (c *UserTestController) ListTests(ctx *gin.Context) {
	courseID, ok := controller.OptionalUintQuery(ctx, "course_id")
	if !ok {
		return
	}
	tests, err := c.userTestService.ListTests(ctx.Request.Context(), courseID)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestDetails godoc
// @Summary (User) Get details of a specific test
// @Description Questions and options in display order, without correctness flags.
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id} [get]
func (c *UserTestController) GetTestDetails(ctx *gin.Context) {
	testID, ok := controller.UintParam(ctx, "test_id")
	if !ok {
		return
	}
	testDetails, err := c.userTestService.GetTestDetails(ctx.Request.Context(), testID)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, testDetails)
}

// StartAttempt godoc
// @Summary (User) Start or resume an attempt
// @Description Returns 201 for a new attempt and 200 when an unexpired in-progress attempt is resumed.
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 201 {object} dto.StartAttemptResponseDTO "Attempt created"
// @Success 200 {object} dto.StartAttemptResponseDTO "Attempt resumed"
// @Failure 400 {object} dto.ErrorResponse "Max attempts exceeded or test closed"
// @Failure 403 {object} dto.ErrorResponse "Not enrolled"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id}/start [post]
func (c *UserTestController) StartAttempt(ctx *gin.Context) {
	caller, ok := controller.Caller(ctx)
	if !ok {
		return
	}
	testID, ok := controller.UintParam(ctx, "test_id")
	if !ok {
		return
	}

	resp, err := c.attemptService.StartAttempt(ctx.Request.Context(), testID, caller.ID)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	status := http.StatusCreated
	if resp.Resumed {
		status = http.StatusOK
	}
	ctx.JSON(status, resp)
}

// SubmitTest godoc
// @Summary (User) Submit answers and close an attempt
// @Tags User - Tests & Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param submission_data body dto.TestAttemptSubmitDTO true "Attempt ID and answers"
// @Success 200 {object} dto.SubmitResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid payload"
// @Failure 403 {object} dto.ErrorResponse "Not the owner of the attempt"
// @Failure 404 {object} dto.ErrorResponse "Test or attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already submitted or timed out"
// @Router /tests/{test_id}/submit [post]
func (c *UserTestController) SubmitTest(ctx *gin.Context) {
	caller, ok := controller.Caller(ctx)
	if !ok {
		return
	}
	testID, ok := controller.UintParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.TestAttemptSubmitDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}

	log.Info().Uint("testID", testID).Uint("attemptID", req.AttemptID).Int("answerCount", len(req.Answers)).
		Msg("Received request to submit test attempt")
	result, err := c.testSubmissionService.SubmitTest(ctx.Request.Context(), testID, caller.ID, req)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ListMyAttempts godoc
// @Summary (User) List own attempts on a test
// @Description Most recent first.
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.TestAttemptSummaryDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests/{test_id}/attempts [get]
func (c *UserTestController) ListMyAttempts(ctx *gin.Context) {
	caller, ok := controller.Caller(ctx)
	if !ok {
		return
	}
	testID, ok := controller.UintParam(ctx, "test_id")
	if !ok {
		return
	}
	attempts, err := c.attemptService.ListAttempts(ctx.Request.Context(), testID, caller.ID)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// Practice godoc
// @Summary (User) Check answers without recording an attempt
// @Tags User - Tests & Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param answers body dto.PracticeCheckDTO true "Answers"
// @Success 200 {object} dto.PracticeResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid payload"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id}/practice [post]
func (c *UserTestController) Practice(ctx *gin.Context) {
	testID, ok := controller.UintParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.PracticeCheckDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	result, err := c.practiceService.CheckAnswers(ctx.Request.Context(), testID, req.Answers)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetAttemptDetails godoc
// @Summary (User) Get details of a specific test attempt
// @Description Owner or admin only. Includes every graded answer.
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Test Attempt ID"
// @Success 200 {object} dto.TestAttemptDetailDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Test Attempt not found"
// @Router /test-attempts/{attempt_id} [get]
func (c *UserTestController) GetAttemptDetails(ctx *gin.Context) {
	caller, ok := controller.Caller(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.UintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	detail, err := c.attemptService.GetAttemptDetails(ctx.Request.Context(), attemptID, caller)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// GetAttemptFeedback godoc
// @Summary (User) AI study feedback for a completed attempt
// @Tags User - Tests & Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Test Attempt ID"
// @Success 200 {object} dto.AttemptFeedbackDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt not completed"
// @Failure 503 {object} dto.ErrorResponse "Feedback unavailable"
// @Router /test-attempts/{attempt_id}/feedback [get]
func (c *UserTestController) GetAttemptFeedback(ctx *gin.Context) {
	caller, ok := controller.Caller(ctx)
	if !ok {
		return
	}
	attemptID, ok := controller.UintParam(ctx, "attempt_id")
	if !ok {
		return
	}
	feedback, err := c.feedbackService.AttemptFeedback(ctx.Request.Context(), attemptID, caller)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, feedback)
}

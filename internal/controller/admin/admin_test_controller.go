package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/learnhub/internal/controller"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminTestController struct {
	adminTestService service.AdminTestService
	attemptService   service.AttemptService
}

func NewAdminTestController(adminTestService service.AdminTestService, attemptService service.AttemptService) *AdminTestController {
	return &AdminTestController{adminTestService: adminTestService, attemptService: attemptService}
}

// CreateTest godoc
// @Summary (Admin) Create a new test with its questions
// @Description Creates a test in draft status unless publish is true. total_points is reconciled with the question points.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_data body dto.TestCreateDTO true "Test creation data including all questions"
// @Success 201 {object} dto.AdminTestResponseDTO "Test created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}

	testResp, err := c.adminTestService.CreateTest(ctx.Request.Context(), req)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, testResp)
}

// AddQuestion godoc
// @Summary (Admin) Add a question to a test
// @Description Only allowed while no student has attempted the test.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param question body dto.QuestionCreateDTO true "Question with options"
// @Success 201 {object} dto.AdminQuestionDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 409 {object} dto.ErrorResponse "Test already has attempts"
// @Router /admin/tests/{test_id}/questions [post]
func (c *AdminTestController) AddQuestion(ctx *gin.Context) {
	testID, ok := controller.UintParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}

	question, err := c.adminTestService.AddQuestion(ctx.Request.Context(), testID, req)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, question)
}

// UpdateStatus godoc
// @Summary (Admin) Change the status of a test
// @Description Allowed transitions: draft to published, draft to archived, published to archived.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param status body dto.TestStatusUpdateDTO true "New status"
// @Success 200 {object} dto.AdminTestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid transition"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/status [patch]
func (c *AdminTestController) UpdateStatus(ctx *gin.Context) {
	testID, ok := controller.UintParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.TestStatusUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}

	testResp, err := c.adminTestService.UpdateStatus(ctx.Request.Context(), testID, req.Status)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, testResp)
}

// ListStudentAttempts godoc
// @Summary (Admin) List the attempts of one student on a test
// @Tags Admin - Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param student_id query int true "Student ID"
// @Success 200 {array} dto.TestAttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid student_id"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/attempts [get]
func (c *AdminTestController) ListStudentAttempts(ctx *gin.Context) {
	testID, ok := controller.UintParam(ctx, "test_id")
	if !ok {
		return
	}
	studentID, ok := controller.OptionalUintQuery(ctx, "student_id")
	if !ok {
		return
	}
	if studentID == nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "student_id is required"})
		return
	}

	attempts, err := c.attemptService.ListAttempts(ctx.Request.Context(), testID, *studentID)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// AbandonAttempt godoc
// @Summary (Admin) Mark an in-progress attempt as abandoned
// @Tags Admin - Attempts
// @Produce json
// @Security BearerAuth
// @Param attempt_id path int true "Test Attempt ID"
// @Success 200 {object} dto.TestAttemptSummaryDTO
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt is not in progress"
// @Router /admin/test-attempts/{attempt_id}/abandon [post]
func (c *AdminTestController) AbandonAttempt(ctx *gin.Context) {
	attemptID, ok := controller.UintParam(ctx, "attempt_id")
	if !ok {
		return
	}

	attempt, err := c.attemptService.AbandonAttempt(ctx.Request.Context(), attemptID)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	log.Info().Uint("attemptID", attemptID).Msg("Admin abandoned attempt")
	ctx.JSON(http.StatusOK, attempt)
}

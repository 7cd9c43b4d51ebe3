package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/learnhub/internal/controller"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/service"
)

// AdminCatalogController manages courses, students, enrollments and
// certificate revocation.
type AdminCatalogController struct {
	adminTestService   service.AdminTestService
	certificateService service.CertificateService
}

func NewAdminCatalogController(adminTestService service.AdminTestService, certificateService service.CertificateService) *AdminCatalogController {
	return &AdminCatalogController{adminTestService: adminTestService, certificateService: certificateService}
}

// CreateCourse godoc
// @Summary (Admin) Create a course
// @Tags Admin - Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param course body dto.CourseCreateDTO true "Course"
// @Success 201 {object} dto.CourseResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 409 {object} dto.ErrorResponse "Course code already used"
// @Router /admin/courses [post]
func (c *AdminCatalogController) CreateCourse(ctx *gin.Context) {
	var req dto.CourseCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	course, err := c.adminTestService.CreateCourse(ctx.Request.Context(), req)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, course)
}

// CreateStudent godoc
// @Summary (Admin) Register a student
// @Tags Admin - Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param student body dto.StudentCreateDTO true "Student"
// @Success 201 {object} dto.StudentResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Router /admin/students [post]
func (c *AdminCatalogController) CreateStudent(ctx *gin.Context) {
	var req dto.StudentCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	student, err := c.adminTestService.CreateStudent(ctx.Request.Context(), req)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, student)
}

// Enroll godoc
// @Summary (Admin) Enroll a student in a course
// @Tags Admin - Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param enrollment body dto.EnrollmentCreateDTO true "Enrollment"
// @Success 201 {object} dto.EnrollmentResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Failure 409 {object} dto.ErrorResponse "Already enrolled"
// @Router /admin/enrollments [post]
func (c *AdminCatalogController) Enroll(ctx *gin.Context) {
	var req dto.EnrollmentCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	enrollment, err := c.adminTestService.Enroll(ctx.Request.Context(), req)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, enrollment)
}

// RevokeCertificate godoc
// @Summary (Admin) Revoke a certificate
// @Description Revocation is terminal; the pair is never re-issued.
// @Tags Admin - Certificates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Certificate record ID"
// @Param revoke body dto.RevokeCertificateDTO true "Reason"
// @Success 200 {object} dto.CertificateDTO
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Failure 409 {object} dto.ErrorResponse "Already revoked"
// @Router /admin/certificates/{id}/revoke [post]
func (c *AdminCatalogController) RevokeCertificate(ctx *gin.Context) {
	id, ok := controller.UintParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.RevokeCertificateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindError(ctx, err)
		return
	}
	cert, err := c.certificateService.Revoke(ctx.Request.Context(), id, req.Reason)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, cert)
}

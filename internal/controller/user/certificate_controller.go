package user

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/learnhub/internal/controller"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/service"
	"github.com/rs/zerolog/log"
)

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; text-align: center; padding: 48px; }
.frame { border: 8px double #2c3e50; padding: 48px; }
.name { font-size: 32px; margin: 24px 0; }
.meta { color: #555; margin-top: 32px; }
</style>
</head>
<body>
<div class="frame">
<h1>Certificate of Achievement</h1>
<p>This certifies that</p>
<p class="name">{{.StudentName}}</p>
<p>has passed <strong>{{.TestName}}</strong> in <strong>{{.CourseName}}</strong></p>
<p>with a score of {{.Score}}% (passing score {{.PassingScore}}%)</p>
<div class="meta">
<p>Issued {{.IssueDate.Format "January 2, 2006"}}{{if .ExpiryDate}} &middot; valid until {{.ExpiryDate.Format "January 2, 2006"}}{{end}}</p>
<p>Certificate ID: {{.CertificateID}} &middot; Status: {{.Status}}</p>
</div>
</div>
</body>
</html>
`))

type CertificateController struct {
	certificateService service.CertificateService
}

func NewCertificateController(certificateService service.CertificateService) *CertificateController {
	return &CertificateController{certificateService: certificateService}
}

// ListMyCertificates godoc
// @Summary (User) List own certificates
// @Description Non-revoked certificates, most recent first. Always answers 200; failures yield an empty list.
// @Tags User - Certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CertificateDTO
// @Router /certificates [get]
func (c *CertificateController) ListMyCertificates(ctx *gin.Context) {
	caller, ok := controller.Caller(ctx)
	if !ok {
		return
	}
	certs, err := c.certificateService.ListForStudent(ctx.Request.Context(), caller.ID)
	if err != nil {
		log.Error().Err(err).Uint("studentID", caller.ID).Msg("Certificate listing failed, answering with an empty list")
		certs = []dto.CertificateDTO{}
	}
	ctx.JSON(http.StatusOK, certs)
}

// VerifyCertificate godoc
// @Summary Verify a certificate
// @Description Public. Always answers 200; invalid certificates carry valid=false and a message.
// @Tags Public - Certificates
// @Produce json
// @Param certificate_id path string true "Public certificate ID"
// @Success 200 {object} dto.VerifyCertificateResponseDTO
// @Router /certificates/verify/{certificate_id} [get]
func (c *CertificateController) VerifyCertificate(ctx *gin.Context) {
	certificateID := ctx.Param("certificate_id")
	result, err := c.certificateService.Verify(ctx.Request.Context(), certificateID)
	if err != nil {
		log.Error().Err(err).Str("certificateID", certificateID).Msg("Certificate verification failed")
		result = &dto.VerifyCertificateResponseDTO{Valid: false, Message: "certificate could not be verified"}
	}
	ctx.JSON(http.StatusOK, result)
}

// DownloadCertificate godoc
// @Summary (User) Download a certificate
// @Description Owner or admin. Renders HTML unless format=json is requested.
// @Tags User - Certificates
// @Produce html
// @Produce json
// @Security BearerAuth
// @Param id path int true "Certificate record ID"
// @Param format query string false "html (default) or json"
// @Success 200 {object} dto.CertificateDownloadDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Certificate not found"
// @Router /certificates/{id}/download [get]
func (c *CertificateController) DownloadCertificate(ctx *gin.Context) {
	caller, ok := controller.Caller(ctx)
	if !ok {
		return
	}
	id, ok := controller.UintParam(ctx, "id")
	if !ok {
		return
	}
	cert, err := c.certificateService.Download(ctx.Request.Context(), id, caller)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}

	if ctx.Query("format") == "json" {
		ctx.JSON(http.StatusOK, cert)
		return
	}
	var page bytes.Buffer
	if err := certificateTemplate.Execute(&page, cert); err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", `inline; filename="`+cert.CertificateID+`.html"`)
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

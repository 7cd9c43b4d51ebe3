package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/learnhub/config"
	adminctrl "github.com/lshigami/learnhub/internal/controller/admin"
	userctrl "github.com/lshigami/learnhub/internal/controller/user"
	"github.com/lshigami/learnhub/internal/dto"
	"github.com/lshigami/learnhub/internal/middleware"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/repository"
	"github.com/lshigami/learnhub/internal/service"
	"github.com/lshigami/learnhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newTestConfig() *config.Config {
	cfg := &config.Config{JWTSecret: testSecret}
	cfg.Server.GinMode = gin.TestMode
	cfg.Assessment.AttemptGraceSeconds = 30
	return cfg
}

// newAPI wires the full stack over an in-memory database. override, when set,
// replaces the certificate service used by the certificate controller.
func newAPI(t *testing.T, override service.CertificateService) *apiClient {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := newTestConfig()

	testRepo := repository.NewTestRepository(db)
	attemptRepo := repository.NewTestAttemptRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cache := service.NewCache(nil)
	catalog := service.NewCourseCatalog(courseRepo, cache, cfg)
	directory := service.NewStudentDirectory(studentRepo, cache, cfg)

	certificates := service.NewCertificateService(repository.NewCertificateRepository(db), catalog, directory, cfg)
	attempts := service.NewAttemptService(testRepo, attemptRepo, directory, cfg)
	admin := service.NewAdminTestService(testRepo, repository.NewQuestionRepository(db), attemptRepo, courseRepo, studentRepo, db)
	submissions := service.NewTestSubmissionService(testRepo, attemptRepo, repository.NewAnswerRepository(db), certificates, db, cfg)
	feedback, err := service.NewFeedbackService(cfg, attemptRepo, testRepo)
	require.NoError(t, err)

	certificateCtrl := certificates
	if override != nil {
		certificateCtrl = override
	}

	router := NewGinEngine(cfg)
	RegisterRoutes(router, cfg, Controllers{
		AdminTest:    adminctrl.NewAdminTestController(admin, attempts),
		AdminCatalog: adminctrl.NewAdminCatalogController(admin, certificates),
		UserTest: userctrl.NewUserTestController(
			service.NewUserTestService(testRepo), attempts, submissions, service.NewPracticeService(testRepo), feedback),
		Certificate: userctrl.NewCertificateController(certificateCtrl),
	})
	return &apiClient{t: t, router: router}
}

func (a *apiClient) token(id uint, role model.Role) string {
	token, err := middleware.IssueToken(testSecret, model.Identity{ID: id, Role: role}, time.Hour)
	require.NoError(a.t, err)
	return token
}

func (a *apiClient) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&reader).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func TestHealthIsPublic(t *testing.T) {
	api := newAPI(t, nil)
	w := api.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCertificateLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t, nil)
	admin := api.token(1, model.RoleAdmin)

	w := api.do(http.MethodPost, "/api/v1/admin/courses", admin, dto.CourseCreateDTO{Title: "Go Basics", Code: "GO-101"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var course dto.CourseResponseDTO
	decode(t, w, &course)

	w = api.do(http.MethodPost, "/api/v1/admin/students", admin, dto.StudentCreateDTO{Name: "Ada Lovelace", Email: "ada@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var student dto.StudentResponseDTO
	decode(t, w, &student)

	w = api.do(http.MethodPost, "/api/v1/admin/enrollments", admin, dto.EnrollmentCreateDTO{StudentID: student.ID, CourseID: course.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/admin/tests", admin, dto.TestCreateDTO{
		CourseID:          course.ID,
		Title:             "Final exam",
		PassingScore:      70,
		IsCertificateTest: true,
		Publish:           true,
		Questions: []dto.QuestionCreateDTO{
			{Text: "Q1", Type: "multiple_choice", Points: 5, Options: []dto.OptionCreateDTO{{Text: "a", IsCorrect: true}, {Text: "b"}}},
			{Text: "Q2", Type: "true_false", Points: 5, Options: []dto.OptionCreateDTO{{Text: "true", IsCorrect: true}, {Text: "false"}}},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var test dto.AdminTestResponseDTO
	decode(t, w, &test)
	require.Len(t, test.Questions, 2)

	studentToken := api.token(student.ID, model.RoleStudent)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/tests/%d", test.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "is_correct")

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/tests/%d/start", test.ID), studentToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var started dto.StartAttemptResponseDTO
	decode(t, w, &started)

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/tests/%d/start", test.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/tests/%d/submit", test.ID), studentToken, dto.TestAttemptSubmitDTO{
		AttemptID: started.AttemptID,
		Answers: []dto.SubmittedAnswerDTO{
			{QuestionID: test.Questions[0].ID, SelectedOptionIDs: []uint{test.Questions[0].Options[0].ID}},
			{QuestionID: test.Questions[1].ID, SelectedOptionIDs: []uint{test.Questions[1].Options[0].ID}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result dto.SubmitResultDTO
	decode(t, w, &result)
	assert.Equal(t, 100, result.PercentageScore)
	require.True(t, result.CertificateIssued)
	require.NotNil(t, result.CertificateID)

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/tests/%d/submit", test.ID), studentToken, dto.TestAttemptSubmitDTO{AttemptID: started.AttemptID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "attempt_already_submitted")

	w = api.do(http.MethodGet, "/api/v1/certificates/verify/"+*result.CertificateID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var verified dto.VerifyCertificateResponseDTO
	decode(t, w, &verified)
	assert.True(t, verified.Valid)
	require.NotNil(t, verified.Certificate)
	assert.Equal(t, "Ada Lovelace", verified.Certificate.StudentName)
	assert.NotContains(t, w.Body.String(), "student_id")

	w = api.do(http.MethodGet, "/api/v1/certificates", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var certs []dto.CertificateDTO
	decode(t, w, &certs)
	require.Len(t, certs, 1)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/certificates/%d/download", certs[0].ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Ada Lovelace")
	assert.Contains(t, w.Body.String(), *result.CertificateID)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/certificates/%d/download?format=json", certs[0].ID), studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var download dto.CertificateDownloadDTO
	decode(t, w, &download)
	assert.Equal(t, 2, download.DownloadCount)

	intruder := api.token(student.ID+1, model.RoleStudent)
	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/certificates/%d/download", certs[0].ID), intruder, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/certificates/%d/revoke", certs[0].ID), admin, dto.RevokeCertificateDTO{Reason: "test"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/certificates/verify/"+*result.CertificateID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &verified)
	assert.False(t, verified.Valid)
	assert.Equal(t, "revoked", verified.Status)
}

func TestVerifyUnknownCertificateAnswers200(t *testing.T) {
	api := newAPI(t, nil)
	w := api.do(http.MethodGet, "/api/v1/certificates/verify/CERT-UNKNOWN-AAAAAA", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.VerifyCertificateResponseDTO
	decode(t, w, &resp)
	assert.False(t, resp.Valid)
	assert.Equal(t, "certificate not found", resp.Message)
}

// brokenCertificates fails every read.
type brokenCertificates struct {
	service.CertificateService
}

func (brokenCertificates) ListForStudent(context.Context, uint) ([]dto.CertificateDTO, error) {
	return nil, errors.New("database unavailable")
}

func (brokenCertificates) Verify(context.Context, string) (*dto.VerifyCertificateResponseDTO, error) {
	return nil, errors.New("database unavailable")
}

func TestCertificateReadsNeverFail(t *testing.T) {
	api := newAPI(t, brokenCertificates{})
	student := api.token(3, model.RoleStudent)

	w := api.do(http.MethodGet, "/api/v1/certificates", student, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/certificates/verify/CERT-X-000000", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":false,"message":"certificate could not be verified"}`, w.Body.String())
}

func TestRouteProtection(t *testing.T) {
	api := newAPI(t, nil)
	student := api.token(3, model.RoleStudent)
	admin := api.token(1, model.RoleAdmin)

	w := api.do(http.MethodGet, "/api/v1/tests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/admin/courses", student, dto.CourseCreateDTO{Title: "X", Code: "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/v1/tests/1/start", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodGet, "/api/v1/tests", student, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestErrorMapping(t *testing.T) {
	api := newAPI(t, nil)
	student := api.token(3, model.RoleStudent)
	admin := api.token(1, model.RoleAdmin)

	w := api.do(http.MethodPost, "/api/v1/tests/999/start", student, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"test_not_found"`)

	w = api.do(http.MethodPost, "/api/v1/tests/abc/start", student, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/v1/admin/courses", admin, map[string]string{"title": "missing code"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"invalid_request"`)

	w = api.do(http.MethodGet, "/api/v1/test-attempts/1/feedback", student, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"feedback_unavailable"`)
}

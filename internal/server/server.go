// Package server builds the gin engine and the route table.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/internal/controller"
	adminctrl "github.com/lshigami/learnhub/internal/controller/admin"
	userctrl "github.com/lshigami/learnhub/internal/controller/user"
	"github.com/lshigami/learnhub/internal/middleware"
	"github.com/lshigami/learnhub/internal/model"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewGinEngine(cfg *config.Config) *gin.Engine {
	switch cfg.Server.GinMode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.GinMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}

// Controllers groups every handler set mounted by RegisterRoutes.
type Controllers struct {
	AdminTest    *adminctrl.AdminTestController
	AdminCatalog *adminctrl.AdminCatalogController
	UserTest     *userctrl.UserTestController
	Certificate  *userctrl.CertificateController
}

func RegisterRoutes(router *gin.Engine, cfg *config.Config, ctrls Controllers) {
	api := router.Group("/api/v1")
	api.GET("/health", controller.Health)
	api.GET("/certificates/verify/:certificate_id", ctrls.Certificate.VerifyCertificate)

	authed := api.Group("")
	authed.Use(middleware.Auth(cfg.JWTSecret))
	{
		authed.GET("/tests", ctrls.UserTest.ListTests)
		authed.GET("/tests/:test_id", ctrls.UserTest.GetTestDetails)
		authed.POST("/tests/:test_id/practice", ctrls.UserTest.Practice)
		authed.GET("/test-attempts/:attempt_id", ctrls.UserTest.GetAttemptDetails)
		authed.GET("/certificates/:id/download", ctrls.Certificate.DownloadCertificate)
	}

	student := authed.Group("")
	student.Use(middleware.RequireRole(model.RoleStudent))
	{
		student.POST("/tests/:test_id/start", ctrls.UserTest.StartAttempt)
		student.POST("/tests/:test_id/submit", ctrls.UserTest.SubmitTest)
		student.GET("/tests/:test_id/attempts", ctrls.UserTest.ListMyAttempts)
		student.GET("/test-attempts/:attempt_id/feedback", ctrls.UserTest.GetAttemptFeedback)
		student.GET("/certificates", ctrls.Certificate.ListMyCertificates)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.POST("/courses", ctrls.AdminCatalog.CreateCourse)
		admin.POST("/students", ctrls.AdminCatalog.CreateStudent)
		admin.POST("/enrollments", ctrls.AdminCatalog.Enroll)

		admin.POST("/tests", ctrls.AdminTest.CreateTest)
		admin.POST("/tests/:test_id/questions", ctrls.AdminTest.AddQuestion)
		admin.PATCH("/tests/:test_id/status", ctrls.AdminTest.UpdateStatus)
		admin.GET("/tests/:test_id/attempts", ctrls.AdminTest.ListStudentAttempts)
		admin.POST("/test-attempts/:attempt_id/abandon", ctrls.AdminTest.AbandonAttempt)

		admin.POST("/certificates/:id/revoke", ctrls.AdminCatalog.RevokeCertificate)
	}
}

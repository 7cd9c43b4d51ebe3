package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/learnhub/config"
	"github.com/lshigami/learnhub/database"
	_ "github.com/lshigami/learnhub/docs" // Swagger docs
	adminctrl "github.com/lshigami/learnhub/internal/controller/admin"
	userctrl "github.com/lshigami/learnhub/internal/controller/user"
	"github.com/lshigami/learnhub/internal/logger"
	"github.com/lshigami/learnhub/internal/repository"
	"github.com/lshigami/learnhub/internal/server"
	"github.com/lshigami/learnhub/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title LearnHub Assessment API
// @version 1.0
// @description Tests, attempts, scoring and certificates for LearnHub courses.
// @contact.name API Support
// @contact.email support@example.com
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	app := fx.New(
		fx.Provide(
			loadConfig,
			database.NewDatabase,
			NewRedisClient,
			service.NewCache,
			server.NewGinEngine,
		),

		// Repositories
		fx.Provide(
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewTestAttemptRepository,
			repository.NewAnswerRepository,
			repository.NewCertificateRepository,
			repository.NewCourseRepository,
			repository.NewStudentRepository,
		),

		// Services
		fx.Provide(
			service.NewCourseCatalog,
			service.NewStudentDirectory,
			service.NewAdminTestService,
			service.NewUserTestService,
			service.NewAttemptService,
			service.NewCertificateService,
			service.NewTestSubmissionService,
			service.NewPracticeService,
			service.NewFeedbackService,
		),

		// Controllers
		fx.Provide(
			adminctrl.NewAdminTestController,
			adminctrl.NewAdminCatalogController,
			userctrl.NewUserTestController,
			userctrl.NewCertificateController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown did not complete cleanly")
	}
}

// loadConfig reads the configuration and applies its log settings before any
// other component logs.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// NewRedisClient returns nil when REDIS_ADDR is unset; the cache then degrades
// to a pass-through.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		log.Info().Msg("REDIS_ADDR not set, lookup cache disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis not reachable, lookups will hit the database")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}

func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminTestCtrl *adminctrl.AdminTestController,
	adminCatalogCtrl *adminctrl.AdminCatalogController,
	userTestCtrl *userctrl.UserTestController,
	certificateCtrl *userctrl.CertificateController,
) {
	server.RegisterRoutes(router, cfg, server.Controllers{
		AdminTest:    adminTestCtrl,
		AdminCatalog: adminCatalogCtrl,
		UserTest:     userTestCtrl,
		Certificate:  certificateCtrl,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("LearnHub API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/bizex-academy/portal-api/api/swagger"
	"github.com/bizex-academy/portal-api/internal/handler"
	"github.com/bizex-academy/portal-api/internal/middleware"
	"github.com/bizex-academy/portal-api/internal/models"
	"github.com/bizex-academy/portal-api/internal/repository"
	"github.com/bizex-academy/portal-api/internal/service"
	"github.com/bizex-academy/portal-api/internal/store/memory"
	"github.com/bizex-academy/portal-api/pkg/cache"
	"github.com/bizex-academy/portal-api/pkg/config"
	"github.com/bizex-academy/portal-api/pkg/database"
	"github.com/bizex-academy/portal-api/pkg/logger"
	corsmiddleware "github.com/bizex-academy/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/bizex-academy/portal-api/pkg/middleware/requestid"
	"github.com/bizex-academy/portal-api/pkg/storage"
)

// @title Bizex Academy Portal API
// @version 1.0.0
// @description Education program portal: course catalog, student roster, enrollment ledgers, workflow views and reports
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	authConfig := service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "portal-api",
	}
	reportConfig := service.ReportConfig{
		WorkerConcurrency: cfg.Reports.WorkerConcurrency,
		WorkerRetries:     cfg.Reports.WorkerRetries,
	}

	var reportFiles *storage.LocalStorage
	var reportSigner *storage.SignedURLSigner
	if cfg.Reports.Enabled {
		reportFiles, err = storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		reportSigner = storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	}

	var (
		authSvc       *service.AuthService
		catalogSvc    *service.CatalogService
		rosterSvc     *service.RosterService
		enrollmentSvc *service.EnrollmentService
		workflowSvc   *service.WorkflowService
		teamSvc       *service.TeamService
		reportSvc     *service.ReportService
		auditWriter   middleware.AuditWriter
		statsReader   interface {
			ActiveEnrollmentStats(ctx context.Context) (int, float64, error)
		}
	)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		seedDevAdmin(ctx, store, logr)

		authSvc = service.NewAuthService(store.Users(), nil, logr, authConfig)
		catalogSvc = service.NewCatalogService(store.Courses(), store.Cycles(), store.Lessons(), store.TeamMembers(), nil, cfg.Cache.CatalogTTL, nil, logr)
		rosterSvc = service.NewRosterService(store.Students(), store.Enrollments(), store.Payments(), store.Courses(), store.Cycles(), nil, cfg.Cache.RosterTTL, nil, logr)
		enrollmentSvc = service.NewEnrollmentService(store.Enrollments(), store.Payments(), store.Students(), store.Courses(), store.Cycles(), store.TeamMembers(), nil, nil, logr)
		workflowSvc = service.NewWorkflowService(store.Workflows(), store.Attendance(), store.Lessons(), store.Cycles(), store.Enrollments(), nil, logr)
		teamSvc = service.NewTeamService(store.TeamMembers(), nil, logr)
		auditWriter = store.Users()
		statsReader = store.Workflows()

		if cfg.Reports.Enabled {
			reportSvc = service.NewReportService(workflowSvc, store.Workflows(), store.Enrollments(), store.Payments(), reportFiles, reportSigner, reportConfig, nil, logr)
		}

	default:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close()

		var cacheSvc *service.CacheService
		if cfg.Cache.Enabled {
			redisClient, err := cache.NewRedis(cfg.Redis)
			if err != nil {
				logr.Sugar().Fatalw("failed to connect to redis", "error", err)
			}
			defer redisClient.Close()
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Cache.CatalogTTL, logr, true)
		}

		users := repository.NewUserRepository(db)
		courses := repository.NewCourseRepository(db)
		cycles := repository.NewCycleRepository(db)
		lessons := repository.NewLessonRepository(db)
		students := repository.NewStudentRepository(db)
		enrollments := repository.NewEnrollmentRepository(db)
		payments := repository.NewPaymentRepository(db)
		attendance := repository.NewAttendanceRepository(db)
		team := repository.NewTeamMemberRepository(db)
		workflows := repository.NewWorkflowRepository(db)

		authSvc = service.NewAuthService(users, nil, logr, authConfig)
		catalogSvc = service.NewCatalogService(courses, cycles, lessons, team, cacheSvc, cfg.Cache.CatalogTTL, nil, logr)
		rosterSvc = service.NewRosterService(students, enrollments, payments, courses, cycles, cacheSvc, cfg.Cache.RosterTTL, nil, logr)
		enrollmentSvc = service.NewEnrollmentService(enrollments, payments, students, courses, cycles, team, cacheSvc, nil, logr)
		workflowSvc = service.NewWorkflowService(workflows, attendance, lessons, cycles, enrollments, nil, logr)
		teamSvc = service.NewTeamService(team, nil, logr)
		auditWriter = users
		statsReader = workflows

		if cfg.Reports.Enabled {
			reportSvc = service.NewReportService(workflowSvc, workflows, enrollments, payments, reportFiles, reportSigner, reportConfig, nil, logr)
		}
	}

	if reportSvc != nil {
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
	}
	if cfg.Metrics.Enabled {
		metrics.StartDomainGaugeLoop(ctx, statsReader, cfg.Metrics.RefreshInterval, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Catalog:     handler.NewCatalogHandler(catalogSvc),
		Roster:      handler.NewRosterHandler(rosterSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
		Workflow:    handler.NewWorkflowHandler(workflowSvc),
		Team:        handler.NewTeamHandler(teamSvc),
		Metrics:     handler.NewMetricsHandler(metrics),
	}
	if reportSvc != nil {
		handlers.Reports = handler.NewReportHandler(reportSvc)
	}
	handler.RegisterRoutes(r, handlers, handler.RouteDeps{
		Auth:  authSvc,
		Audit: auditWriter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store_driver", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// seedDevAdmin creates a default login so the memory driver is usable out of
// the box. Not reachable under the postgres driver.
func seedDevAdmin(ctx context.Context, store *memory.Store, logr *zap.Logger) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		logr.Sugar().Errorw("failed to seed dev admin", "error", err)
		return
	}
	if err := store.Users().Create(ctx, &models.User{
		Email:        "admin@local",
		PasswordHash: string(hash),
		FullName:     "Dev Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}); err != nil {
		logr.Sugar().Errorw("failed to seed dev admin", "error", err)
		return
	}
	logr.Sugar().Warnw("memory store seeded with default admin credentials", "email", "admin@local")
}

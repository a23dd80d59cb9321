package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openshiksha/exam-api/internal/handler"
	"github.com/openshiksha/exam-api/internal/middleware"
	"github.com/openshiksha/exam-api/internal/repository"
	"github.com/openshiksha/exam-api/internal/service"
	"github.com/openshiksha/exam-api/pkg/cache"
	"github.com/openshiksha/exam-api/pkg/config"
	"github.com/openshiksha/exam-api/pkg/database"
	"github.com/openshiksha/exam-api/pkg/export"
	"github.com/openshiksha/exam-api/pkg/logger"
	corsmiddleware "github.com/openshiksha/exam-api/pkg/middleware/cors"
	reqidmiddleware "github.com/openshiksha/exam-api/pkg/middleware/requestid"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, lookup cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Results.LookupCacheTTL, logr, cacheRepo != nil)

	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	markRepo := repository.NewMarkRepository(db)
	optInRepo := repository.NewOptInRepository(db)
	publicationRepo := repository.NewPublicationRepository(db)
	deletionRepo := repository.NewDeletionRepository(db)
	userRepo := repository.NewUserRepository(db)

	resultService := service.NewResultService(resultRepo, markRepo, logr)
	classService := service.NewClassService(classRepo, subjectRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, classRepo, validate, logr)
	optInService := service.NewOptInService(optInRepo, studentRepo, subjectRepo, resultRepo, markRepo, resultService, logr)
	marksService := service.NewMarksService(studentRepo, subjectRepo, resultRepo, markRepo, optInRepo, resultService, cacheService, validate, logr)
	ingestService := service.NewIngestService(classRepo, subjectRepo, studentRepo, resultRepo, markRepo, optInRepo, resultService, cacheService, metricsService, cfg.Results.MaxUploadRows, logr)
	publicationService := service.NewPublicationService(publicationRepo, cacheService, validate, logr)
	lookupService := service.NewLookupService(studentRepo, resultRepo, markRepo, classRepo, publicationService, cacheService, metricsService, validate, logr)
	deletionService := service.NewDeletionService(deletionRepo, cacheService, logr)
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	marksheet := export.NewMarksheetExporter(cfg.Results.SchoolName)

	classHandler := handler.NewClassHandler(classService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	optInHandler := handler.NewOptInHandler(optInService)
	marksHandler := handler.NewMarksHandler(marksService)
	ingestHandler := handler.NewIngestHandler(ingestService, subjectService)
	publicationHandler := handler.NewPublicationHandler(publicationService)
	lookupHandler := handler.NewLookupHandler(lookupService, marksheet)
	deletionHandler := handler.NewDeletionHandler(deletionService)
	authHandler := handler.NewAuthHandler(authService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	admin := api.Group("", middleware.JWT(authService))
	{
		admin.GET("/classes", classHandler.List)
		admin.POST("/classes", classHandler.Create)
		admin.GET("/classes/:id", classHandler.Get)
		admin.DELETE("/classes/:id", classHandler.Delete)
		admin.GET("/classes/:id/template.csv", ingestHandler.Template)

		admin.GET("/subjects", subjectHandler.ListByClass)
		admin.POST("/subjects", subjectHandler.Create)
		admin.DELETE("/subjects/:id", subjectHandler.Delete)
		admin.GET("/subjects/:id/opt-ins", optInHandler.ListForSubject)

		admin.POST("/opt-ins", optInHandler.Create)
		admin.DELETE("/opt-ins", optInHandler.Delete)
		admin.GET("/students/:id/opt-ins", optInHandler.ListForStudent)

		admin.GET("/marks", marksHandler.Get)
		admin.PUT("/marks", marksHandler.Upsert)
		admin.DELETE("/marks", marksHandler.DeleteResult)
		admin.POST("/marks/bulk-upload", ingestHandler.Upload)

		admin.GET("/publications", publicationHandler.List)
		admin.PUT("/publications", publicationHandler.Upsert)
		admin.POST("/publications/:year/toggle", publicationHandler.Toggle)

		admin.POST("/bulk-delete/preview", deletionHandler.Preview)
		admin.POST("/bulk-delete/execute", deletionHandler.Execute)
	}

	if cfg.Results.PublicLookupEnabled {
		public := r.Group("/public")
		public.POST("/results/search", lookupHandler.Search)
		public.POST("/results/pdf", lookupHandler.DownloadPDF)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

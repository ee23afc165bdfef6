package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mooc_backend/internal/config"
	"mooc_backend/internal/controller"
	"mooc_backend/internal/repository"
	"mooc_backend/internal/service"
	"mooc_backend/internal/util"
	"mooc_backend/pkg/database"
	"mooc_backend/pkg/logger"
	"mooc_backend/pkg/monitoring"
	"mooc_backend/pkg/security"
	"mooc_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	// 追踪开启时持有 TracerProvider 的关闭函数，优雅停机时调用
	tracerShutdown func(context.Context) error
}

type repositories struct {
	user          *repository.UserRepository
	course        *repository.CourseRepository
	enrollment    *repository.EnrollmentRepository
	announcement  *repository.AnnouncementRepository
	passwordReset *repository.PasswordResetRepository
}

type services struct {
	storage       *service.StorageService
	mail          *service.MailService
	auth          *service.AuthService
	user          *service.UserService
	catalog       *service.CatalogService
	enrollment    *service.EnrollmentService
	announcement  *service.AnnouncementService
	passwordReset *service.PasswordResetService
}

type controllers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	catalog      *controller.CatalogController
	enrollment   *controller.EnrollmentController
	announcement *controller.AnnouncementController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:          repository.NewUserRepository(db),
		course:        repository.NewCourseRepository(db),
		enrollment:    repository.NewEnrollmentRepository(db),
		announcement:  repository.NewAnnouncementRepository(db),
		passwordReset: repository.NewPasswordResetRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.mail = service.NewMailService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.catalog = service.NewCatalogService(repos.course, s.storage, cfg, rdb)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course)
	s.announcement = service.NewAnnouncementService(repos.announcement, repos.enrollment, repos.course, s.mail)
	s.passwordReset = service.NewPasswordResetService(repos.passwordReset, repos.user, s.mail, cfg)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth, s.user, s.passwordReset),
		user:         controller.NewUserController(s.user, s.storage),
		catalog:      controller.NewCatalogController(s.catalog, s.enrollment, s.announcement),
		enrollment:   controller.NewEnrollmentController(s.enrollment, s.catalog),
		announcement: controller.NewAnnouncementController(s.announcement, s.catalog, s.enrollment),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(func() []string {
		return cfg.CORSSettings().AllowedOrigins
	}))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ReloadConfig 应用热更新安全的配置段，服务持有同一份 Config 指针，
// 通过 ApplyReloadable 在锁保护下替换，与请求协程的读取不冲突。
// 邮件投递端的选择在启动时固定，热更新 provider 需重启生效
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config.ApplyReloadable(cfg)
	logger.Log.Info("Config reloaded",
		zap.String("mail_provider", cfg.Mail.Provider),
		zap.Int("course_ttl_minutes", cfg.Cache.CourseTTLMinutes))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("mooc-platform", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerShutdown = tp.Shutdown
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	a.shutdownTracer(ctx)

	log.Println("Server exiting")
}

// shutdownTracer 停机前刷出剩余的 span 并关闭 TracerProvider
func (a *App) shutdownTracer(ctx context.Context) {
	if a.tracerShutdown == nil {
		return
	}
	if err := a.tracerShutdown(ctx); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
}

package app

import (
	"context"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/config"
	"formar_portal/internal/controller"
	"formar_portal/internal/service"
	"formar_portal/pkg/configwatcher"
	"formar_portal/pkg/database"
	"formar_portal/pkg/logger"
	"formar_portal/pkg/monitoring"
	"formar_portal/pkg/security"
	"formar_portal/pkg/session"
	"formar_portal/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const (
	configDir      = "configs"
	attemptMaxIdle = 2 * time.Hour
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	Redis           *redis.Client
	Sessions        session.Store
	services        *services
	tracer          *sdktrace.TracerProvider
	cron            *cron.Cron
	configCallbacks []func(*config.Config)
}

type services struct {
	navigator    *service.Navigator
	auth         *service.AuthService
	layout       *service.LayoutService
	dashboard    *service.DashboardService
	course       *service.CourseService
	quiz         *service.QuizService
	attempts     *service.AttemptTracker
	forum        *service.ForumService
	notification *service.NotificationService
	category     *service.CategoryService
	courseEdit   *service.CourseEditService
	userAdmin    *service.UserAdminService
	profile      *service.ProfileService
	shellHub     *service.ShellHub
}

type controllers struct {
	auth         *controller.AuthController
	layout       *controller.LayoutController
	dashboard    *controller.DashboardController
	course       *controller.CourseController
	quiz         *controller.QuizController
	forum        *controller.ForumController
	notification *controller.NotificationController
	category     *controller.CategoryController
	courseEdit   *controller.CourseEditController
	userAdmin    *controller.UserAdminController
	profile      *controller.ProfileController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initServices(cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}
	limit := cfg.Shell.FanoutLimit

	s.navigator = service.NewNavigator()
	s.auth = service.NewAuthService(s.navigator)
	s.layout = service.NewLayoutService(s.navigator)
	s.dashboard = service.NewDashboardService(limit)
	s.course = service.NewCourseService(cfg.API.BaseURL)
	s.attempts = service.NewAttemptTracker()
	s.quiz = service.NewQuizService(s.attempts)
	s.forum = service.NewForumService()
	s.notification = service.NewNotificationService(limit)
	s.category = service.NewCategoryService(limit)
	s.courseEdit = service.NewCourseEditService()
	s.userAdmin = service.NewUserAdminService()
	s.profile = service.NewProfileService(limit, s.auth)

	s.shellHub = service.NewShellHub(rdb, s.notification, s.layout, cfg.Shell.NotificationPoll, cfg.Shell.SearchDebounce)
	s.shellHub.SetAllowedOrigins(cfg.CORS.AllowedOrigins)
	go s.shellHub.Run()

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth, s.navigator),
		layout:       controller.NewLayoutController(s.layout, s.shellHub),
		dashboard:    controller.NewDashboardController(s.dashboard),
		course:       controller.NewCourseController(s.course),
		quiz:         controller.NewQuizController(s.quiz),
		forum:        controller.NewForumController(s.forum),
		notification: controller.NewNotificationController(s.notification, s.shellHub),
		category:     controller.NewCategoryController(s.category),
		courseEdit:   controller.NewCourseEditController(s.courseEdit, s.quiz),
		userAdmin:    controller.NewUserAdminController(s.userAdmin),
		profile:      controller.NewProfileController(s.profile),
		health:       controller.NewHealthController(a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 定时清理内存会话与闲置的答题状态
func (a *App) startBackgroundTasks(s *services) {
	a.cron = cron.New()

	if mem, ok := a.Sessions.(*session.MemoryStore); ok {
		a.cron.AddFunc("@every 5m", func() {
			if n := mem.Sweep(time.Now()); n > 0 {
				logger.Log.Info("[Cron] expired sessions swept", zap.Int("count", n))
			}
		})
	}

	a.cron.AddFunc("@every 10m", func() {
		if n := s.attempts.Sweep(attemptMaxIdle); n > 0 {
			logger.Log.Info("[Cron] idle quiz attempts swept", zap.Int("count", n))
		}
	})

	a.cron.Start()
}

// reload 配置热更新。生效的只有日志级别、外壳的轮询与防抖间隔、外壳 Origin 白名单；
// 端口、上游地址、会话、CORS 与限流中间件在启动时构造，修改后需要重启
func (a *App) reload(cfg *config.Config) {
	a.Config = cfg
	logger.SetMode(cfg.Server.Mode)
	if a.services != nil {
		a.services.shellHub.SetIntervals(cfg.Shell.NotificationPoll, cfg.Shell.SearchDebounce)
		a.services.shellHub.SetAllowedOrigins(cfg.CORS.AllowedOrigins)
	}
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	var rdb *redis.Client
	if cfg.Session.Store == config.SessionStoreRedis {
		var err error
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	}

	app := newApp(cfg, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("formar-portal", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.startBackgroundTasks(app.services)

	return app
}

// newApp 组装会话存储、服务、控制器与路由，不触碰日志文件与外部连接
func newApp(cfg *config.Config, rdb *redis.Client) *App {
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		Redis:     rdb,
	}

	if rdb != nil {
		app.Sessions = session.NewRedisStore(rdb)
	} else {
		app.Sessions = session.NewMemoryStore()
	}

	factory := apiclient.NewFactory(cfg.API)
	services := app.initServices(cfg, rdb)
	app.services = services
	controllers := app.initControllers(services)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, factory, cfg)

	return app
}

func (a *App) Run() {
	cfg := a.Config
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if err := configwatcher.WatchConfig(watchCtx, a.ConfigDir, a.reload); err != nil {
		logger.Log.Warn("Config watcher disabled", zap.Error(err))
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s (upstream %s)", cfg.Server.Port, cfg.API.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	a.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// Shutdown 关闭实时通道、定时任务与 tracer
func (a *App) Shutdown() {
	if a.services != nil && a.services.shellHub != nil {
		a.services.shellHub.Stop()
	}
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
}

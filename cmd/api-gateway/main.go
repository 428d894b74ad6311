package main

import (
	"context"
	"fmt"
	"log"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"

	internalhandler "github.com/noah-isme/sma-adp-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-adp-api/internal/middleware"
	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/repository"
	"github.com/noah-isme/sma-adp-api/internal/scheduling"
	"github.com/noah-isme/sma-adp-api/internal/service"
	"github.com/noah-isme/sma-adp-api/internal/worker"
	"github.com/noah-isme/sma-adp-api/pkg/config"
	"github.com/noah-isme/sma-adp-api/pkg/database"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
	"github.com/noah-isme/sma-adp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-api/pkg/middleware/requestid"
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

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		registerPprof(r)
	}

	api := r.Group(cfg.APIPrefix)

	userRepo := repository.NewUserRepository(db)
	institutionRepo := repository.NewInstitutionRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sma-adp-api",
		Audience:           []string{"sma-adp-clients"},
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, nil, logr)
	roomSvc := service.NewRoomService(roomRepo, nil, logr)
	groupSvc := service.NewGroupService(groupRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, nil, logr)
	activitySvc := service.NewActivityService(activityRepo, nil, logr)

	// The generation worker runs in-process behind a queue seam
	// (scheduleJobQueue) so it can later be split into cmd/worker without
	// touching ScheduleService (spec.md §5 Worker Plane).
	queueCtx, cancelQueue := context.WithCancel(context.Background())
	defer cancelQueue()

	lifecycleFactory := func(svc *service.ScheduleService) *worker.Lifecycle {
		return worker.NewLifecycle(svc, db, institutionRepo, roomRepo, groupRepo, activityRepo, scheduling.SolverParams{
			MaxDuration: cfg.Solver.MaxDuration,
			Workers:     cfg.Solver.Workers,
		}, metricsSvc, logr)
	}

	var lifecycle *worker.Lifecycle
	generationQueue := jobs.NewQueue("schedule-generation", func(ctx context.Context, job jobs.Job) error {
		return lifecycle.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Solver.Workers,
		BufferSize: cfg.Solver.Workers * 4,
		Logger:     logr,
	})
	generationQueue.Start(queueCtx)
	defer generationQueue.Stop()

	generationJobQueue := worker.NewJobQueue(generationQueue)
	scheduleSvc := service.NewScheduleService(scheduleRepo, institutionRepo, generationJobQueue, nil, logr)
	lifecycle = lifecycleFactory(scheduleSvc)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-queueCtx.Done():
				return
			case <-ticker.C:
				metricsSvc.SetQueueDepth(generationJobQueue.Depth())
			}
		}
	}()

	reaper := worker.NewReaper(scheduleSvc, cfg.Solver.MaxDuration, cfg.Solver.MaxDuration*3, logr)
	reaper.Start(queueCtx)

	authHandler := internalhandler.NewAuthHandler(authSvc)
	userHandler := internalhandler.NewUserHandler(userSvc)
	institutionHandler := internalhandler.NewInstitutionHandler(institutionSvc)
	roomHandler := internalhandler.NewRoomHandler(roomSvc)
	groupHandler := internalhandler.NewGroupHandler(groupSvc)
	courseHandler := internalhandler.NewCourseHandler(courseSvc)
	activityHandler := internalhandler.NewActivityHandler(activitySvc)
	scheduleHandler := internalhandler.NewScheduleHandler(scheduleSvc)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
	authRoutes.POST("/reset-password", authHandler.ResetPassword)
	protectedAuth := authRoutes.Group("")
	protectedAuth.Use(internalmiddleware.JWT(authSvc))
	protectedAuth.POST("/logout", authHandler.Logout)
	protectedAuth.POST("/change-password", authHandler.ChangePassword)
	protectedAuth.GET("/me", authHandler.Me)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	// Every domain resource below is owned by exactly one institution
	// (spec.md §3), so it is routed under /institutions/:institutionId and
	// RBAC resolves the acting role against that institution id rather than
	// a flat, institution-agnostic role (spec.md §9).
	viewerRoles := []string{string(models.RoleAdmin), string(models.RoleProfessor), string(models.RoleStudent)}

	institutionsGroup := secured.Group("/institutions")
	institutionsGroup.GET("", institutionHandler.List)
	institutionsGroup.POST("", institutionHandler.Create)
	institutionsGroup.GET("/:id", institutionHandler.Get)
	institutionsGroup.PUT("/:id", internalmiddleware.RBAC("id", string(models.RoleAdmin)), institutionHandler.Update)
	institutionsGroup.DELETE("/:id", internalmiddleware.RBAC("id", string(models.RoleAdmin)), institutionHandler.Delete)

	inst := institutionsGroup.Group("/:institutionId")

	usersGroup := inst.Group("/users")
	usersGroup.GET("", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), userHandler.List)
	usersGroup.POST("", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), userHandler.Create)
	usersGroup.GET("/:id", internalmiddleware.RBAC("institutionId", "SELF", string(models.RoleAdmin)), userHandler.Get)
	usersGroup.PUT("/:id", internalmiddleware.RBAC("institutionId", "SELF", string(models.RoleAdmin)), userHandler.Update)
	usersGroup.DELETE("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), userHandler.Delete)

	roomsGroup := inst.Group("/rooms")
	roomsGroup.GET("", internalmiddleware.RBAC("institutionId", viewerRoles...), roomHandler.List)
	roomsGroup.POST("", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), roomHandler.Create)
	roomsGroup.GET("/:id", internalmiddleware.RBAC("institutionId", viewerRoles...), roomHandler.Get)
	roomsGroup.PUT("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), roomHandler.Update)
	roomsGroup.DELETE("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), roomHandler.Delete)

	groupsGroup := inst.Group("/groups")
	groupsGroup.GET("", internalmiddleware.RBAC("institutionId", viewerRoles...), groupHandler.List)
	groupsGroup.POST("", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), groupHandler.Create)
	groupsGroup.GET("/:id", internalmiddleware.RBAC("institutionId", viewerRoles...), groupHandler.Get)
	groupsGroup.PUT("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), groupHandler.Update)
	groupsGroup.DELETE("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), groupHandler.Delete)

	coursesGroup := inst.Group("/courses")
	coursesGroup.GET("", internalmiddleware.RBAC("institutionId", viewerRoles...), courseHandler.List)
	coursesGroup.POST("", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), courseHandler.Create)
	coursesGroup.GET("/:id", internalmiddleware.RBAC("institutionId", viewerRoles...), courseHandler.Get)
	coursesGroup.PUT("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), courseHandler.Update)
	coursesGroup.DELETE("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), courseHandler.Delete)

	activitiesGroup := inst.Group("/activities")
	activitiesGroup.GET("", internalmiddleware.RBAC("institutionId", viewerRoles...), activityHandler.List)
	activitiesGroup.POST("", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), activityHandler.Create)
	activitiesGroup.GET("/:id", internalmiddleware.RBAC("institutionId", viewerRoles...), activityHandler.Get)
	activitiesGroup.PUT("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), activityHandler.Update)
	activitiesGroup.DELETE("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), activityHandler.Delete)

	schedulesGroup := inst.Group("/schedules")
	schedulesGroup.GET("", internalmiddleware.RBAC("institutionId", viewerRoles...), scheduleHandler.List)
	schedulesGroup.POST("", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), scheduleHandler.Create)
	schedulesGroup.GET("/:id", internalmiddleware.RBAC("institutionId", viewerRoles...), scheduleHandler.Get)
	schedulesGroup.DELETE("/:id", internalmiddleware.RBAC("institutionId", string(models.RoleAdmin)), scheduleHandler.Delete)
	schedulesGroup.GET("/:id/scheduled-activities", internalmiddleware.RBAC("institutionId", viewerRoles...), scheduleHandler.ScheduledActivities)
	schedulesGroup.GET("/:id/export.:format", internalmiddleware.RBAC("institutionId", viewerRoles...), scheduleHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	group.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	group.GET("/block", gin.WrapH(pprof.Handler("block")))
	group.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	group.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	group.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	group.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}

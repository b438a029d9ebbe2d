package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/notebooks/runner/internal/api/middleware"
	"github.com/notebooks/runner/internal/orm"
	"github.com/notebooks/runner/internal/runner"
	"github.com/notebooks/runner/internal/schedule"
	"github.com/notebooks/runner/internal/templatestore"
	"github.com/notebooks/runner/pkg/config"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(
	NewExecutionAPI,
	NewNotebookAPI,
	NewParameterAPI,
	NewScheduleAPI,
	NewTemplateAPI,
	NewCommonAPI,
	NewServer,
)

type Server struct {
	router *gin.Engine
}

// NewServer 组装路由。templates为nil时不注册模板接口。
func NewServer(
	storage *orm.Storage,
	r *runner.Runner,
	scheduler *schedule.Scheduler,
	templates *templatestore.Store,
	probe ExecutorProbe,
	cfg config.RunnerConfig,
	logger *zap.Logger,
) *Server {
	s := &Server{}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.ErrorHandlingMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	s.router.Use(cors.New(corsConfig))

	executionAPI := NewExecutionAPI(storage, r, logger)
	notebookAPI := NewNotebookAPI(storage, cfg, logger)
	parameterAPI := NewParameterAPI(storage)
	scheduleAPI := NewScheduleAPI(storage, scheduler, logger)
	commonAPI := NewCommonAPI(storage, probe)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", commonAPI.HealthCheck)

		executions := v1.Group("/executions")
		{
			executions.POST("/run", executionAPI.Run)
			executions.POST("/run-sync", executionAPI.RunSync)
			executions.GET("", executionAPI.List)
			executions.GET("/stats", executionAPI.Stats)
			executions.GET("/:id", executionAPI.Get)
		}

		notebooks := v1.Group("/notebooks")
		{
			notebooks.POST("", notebookAPI.Create)
			notebooks.GET("", notebookAPI.List)
			notebooks.GET("/:id", notebookAPI.Get)
			notebooks.PUT("/:id", notebookAPI.Update)
			notebooks.DELETE("/:id", notebookAPI.Delete)

			notebooks.POST("/:id/parameters", parameterAPI.Create)
			notebooks.POST("/:id/parameters/bulk", parameterAPI.BulkCreate)
			notebooks.GET("/:id/parameters", parameterAPI.List)
		}
		v1.PUT("/parameters/:param_id", parameterAPI.Update)
		v1.DELETE("/parameters/:param_id", parameterAPI.Delete)

		v1.GET("/files/:username", notebookAPI.ListUserFiles)

		schedules := v1.Group("/schedules")
		{
			schedules.POST("", scheduleAPI.Create)
			schedules.GET("", scheduleAPI.List)
			schedules.GET("/:id", scheduleAPI.Get)
			schedules.PUT("/:id", scheduleAPI.Update)
			schedules.DELETE("/:id", scheduleAPI.Delete)
		}

		if templates != nil {
			templateAPI := NewTemplateAPI(templates, cfg, logger)
			tpl := v1.Group("/templates")
			{
				tpl.GET("", templateAPI.List)
				tpl.PUT("/:name", templateAPI.Upload)
				tpl.GET("/:name", templateAPI.Get)
				tpl.GET("/:name/info", templateAPI.Info)
				tpl.GET("/:name/url", templateAPI.PresignedURL)
				tpl.DELETE("/:name", templateAPI.Delete)
				tpl.POST("/:name/instantiate", templateAPI.Instantiate)
			}
		}
	}

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

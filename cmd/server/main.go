package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notebooks/runner/internal/api"
	"github.com/notebooks/runner/internal/orm"
	"github.com/notebooks/runner/internal/runner"
	"github.com/notebooks/runner/internal/schedule"
	"github.com/notebooks/runner/internal/templatestore"
	"github.com/notebooks/runner/pkg/config"
	"github.com/notebooks/runner/pkg/logger"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

func main() {
	// 解析命令行参数
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 雪花ID生成器，执行记录ID使用
	var options = idgen.NewIdGeneratorOptions(1)
	options.BaseTime = 1755937966000
	options.WorkerIdBitLength = 6
	idgen.SetIdGenerator(options)

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 创建日志器
	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting notebook runner",
		zap.String("home_root", cfg.Runner.HomeRoot),
		zap.Int("max_workers", cfg.Runner.MaxWorkers))

	// 创建存储
	storageConfig := orm.Config{
		Host:                  cfg.Database.Host,
		Port:                  cfg.Database.Port,
		Database:              cfg.Database.Database,
		User:                  cfg.Database.User,
		Password:              cfg.Database.Password,
		MaxConnections:        cfg.Database.MaxConnections,
		MaxIdleConnections:    cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	}

	db, err := orm.New(storageConfig)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 执行工具
	executor := runner.NewPapermillExecutor(cfg.Runner.PapermillBin, zapLogger)
	if path, ok := executor.Available(); ok {
		zapLogger.Info("papermill available", zap.String("path", path))
	} else {
		zapLogger.Warn("papermill not found in PATH, executions will fail",
			zap.String("binary", cfg.Runner.PapermillBin))
	}

	// 执行编排器
	nbRunner := runner.New(cfg.Runner, db, executor, zapLogger)
	nbRunner.Start()

	// 周期执行调度器
	scheduler := schedule.New(db, nbRunner, zapLogger)
	if err := scheduler.Start(); err != nil {
		zapLogger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// 模板存储（可选）
	var templates *templatestore.Store
	if cfg.Minio.Enabled {
		templates, err = templatestore.New(cfg.Minio, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to template storage", zap.Error(err))
		}
		zapLogger.Info("template storage connected",
			zap.String("endpoint", cfg.Minio.Endpoint),
			zap.String("bucket", cfg.Minio.Bucket))
	}

	// 创建API服务器
	apiServer := api.NewServer(db, nbRunner, scheduler, templates, executor, cfg.Runner, zapLogger)

	// 启动HTTP服务器
	httpServer := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        apiServer.Router(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("Starting API server",
			zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("Shutting down...")

	// 优雅关闭HTTP服务器
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown API server", zap.Error(err))
	}

	// 停止调度器和执行编排器，等待进行中的执行落到终止状态
	scheduler.Stop()
	nbRunner.Stop()

	zapLogger.Info("Shutdown complete")
}

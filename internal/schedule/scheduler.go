// Package schedule 周期性笔记本执行。
//
// 单实例部署: 文档所在的home目录只挂载在一台hub主机上，
// 不需要跨实例的leader选举。
package schedule

import (
	"fmt"
	"sync"

	"github.com/google/wire"
	"github.com/notebooks/runner/internal/models"
	"github.com/notebooks/runner/internal/orm"
	"github.com/notebooks/runner/internal/runner"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(New)

// Scheduler 按cron表达式触发笔记本执行
type Scheduler struct {
	storage *orm.Storage
	runner  *runner.Runner
	logger  *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New 创建调度器
func New(storage *orm.Storage, r *runner.Runner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		storage: storage,
		runner:  r,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start 加载启用的计划并启动cron
func (s *Scheduler) Start() error {
	if err := s.Reload(); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("schedule engine started")
	return nil
}

// Stop 停止cron，等待进行中的触发回调返回
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("schedule engine stopped")
}

// Reload 重新加载全部启用的计划，计划增删改后调用
func (s *Scheduler) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 清除所有现有的cron条目
	for _, entry := range s.cron.Entries() {
		s.cron.Remove(entry.ID)
	}

	var schedules []models.Schedule
	if err := s.storage.DB().Where("enabled = ?", true).Find(&schedules).Error; err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	for i := range schedules {
		sched := schedules[i]
		entryID, err := s.cron.AddFunc(sched.CronExpression, func() {
			s.trigger(&sched)
		})
		if err != nil {
			s.logger.Error("failed to add cron entry",
				zap.Uint64("schedule_id", sched.ID),
				zap.String("cron", sched.CronExpression),
				zap.Error(err))
			continue
		}
		s.logger.Info("scheduled notebook",
			zap.Uint64("schedule_id", sched.ID),
			zap.String("input", sched.InputPath),
			zap.String("cron", sched.CronExpression),
			zap.Int("entry_id", int(entryID)))
	}

	s.logger.Info("loaded schedules", zap.Int("count", len(schedules)))
	return nil
}

func (s *Scheduler) trigger(sched *models.Schedule) {
	s.logger.Info("triggering scheduled execution",
		zap.Uint64("schedule_id", sched.ID),
		zap.String("input", sched.InputPath))
	s.runner.SubmitScheduled(sched)
}

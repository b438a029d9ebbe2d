package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notebooks/runner/internal/models"
	"github.com/notebooks/runner/internal/orm"
	"github.com/notebooks/runner/internal/schedule"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ScheduleAPI 周期执行计划接口
type ScheduleAPI struct {
	storage   *orm.Storage
	scheduler *schedule.Scheduler
	logger    *zap.Logger
}

func NewScheduleAPI(storage *orm.Storage, scheduler *schedule.Scheduler, logger *zap.Logger) *ScheduleAPI {
	return &ScheduleAPI{
		storage:   storage,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Create 创建执行计划，cron表达式先行校验
func (s *ScheduleAPI) Create(c *gin.Context) {
	var req CreateScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := cron.ParseStandard(req.CronExpression); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cron expression: " + err.Error()})
		return
	}

	sched := models.Schedule{
		NotebookID:     req.NotebookID,
		InputPath:      req.InputPath,
		CronExpression: req.CronExpression,
		Parameters:     req.Parameters,
		Username:       req.Username,
		Enabled:        true,
	}
	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}

	if err := s.storage.DB().Create(&sched).Error; err != nil {
		c.Error(err)
		return
	}

	s.reload()
	c.JSON(http.StatusCreated, &sched)
}

// List 获取全部执行计划
func (s *ScheduleAPI) List(c *gin.Context) {
	query := s.storage.DB().Model(&models.Schedule{})
	if username := c.Query("username"); username != "" {
		query = query.Where("username = ?", username)
	}

	var schedules []models.Schedule
	if err := query.Order("id").Find(&schedules).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, schedules)
}

// Get 获取执行计划详情
func (s *ScheduleAPI) Get(c *gin.Context) {
	id := cast.ToUint64(c.Param("id"))

	var sched models.Schedule
	if err := s.storage.DB().Where("id = ?", id).First(&sched).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &sched)
}

// Update 更新执行计划
func (s *ScheduleAPI) Update(c *gin.Context) {
	id := cast.ToUint64(c.Param("id"))

	var req UpdateScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var sched models.Schedule
	if err := s.storage.DB().Where("id = ?", id).First(&sched).Error; err != nil {
		c.Error(err)
		return
	}

	if req.CronExpression != "" {
		if _, err := cron.ParseStandard(req.CronExpression); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cron expression: " + err.Error()})
			return
		}
		sched.CronExpression = req.CronExpression
	}
	if req.Parameters != nil {
		sched.Parameters = req.Parameters
	}
	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}

	if err := s.storage.DB().Save(&sched).Error; err != nil {
		c.Error(err)
		return
	}

	s.reload()
	c.JSON(http.StatusOK, &sched)
}

// Delete 删除执行计划
func (s *ScheduleAPI) Delete(c *gin.Context) {
	id := cast.ToUint64(c.Param("id"))

	var sched models.Schedule
	if err := s.storage.DB().Where("id = ?", id).First(&sched).Error; err != nil {
		c.Error(err)
		return
	}

	if err := s.storage.DB().Delete(&sched).Error; err != nil {
		c.Error(err)
		return
	}

	s.reload()
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}

func (s *ScheduleAPI) reload() {
	if err := s.scheduler.Reload(); err != nil {
		s.logger.Error("failed to reload schedules", zap.Error(err))
	}
}

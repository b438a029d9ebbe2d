package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notebooks/runner/internal/models"
	"github.com/notebooks/runner/internal/orm"
	"github.com/notebooks/runner/internal/runner"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExecutionAPI 笔记本执行接口
type ExecutionAPI struct {
	storage *orm.Storage
	runner  *runner.Runner
	logger  *zap.Logger
}

func NewExecutionAPI(storage *orm.Storage, r *runner.Runner, logger *zap.Logger) *ExecutionAPI {
	return &ExecutionAPI{
		storage: storage,
		runner:  r,
		logger:  logger,
	}
}

// Run 异步执行: 立即返回执行ID，首个cell完成或等待超时后应答
func (e *ExecutionAPI) Run(c *gin.Context) {
	var req RunExecutionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := e.runner.SubmitAsync(c.Request.Context(), runner.ExecuteRequest{
		InputPath:  req.InputPath,
		Parameters: req.Parameters,
		Username:   req.Username,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, RunExecutionResp{
		ExecutionID: result.ExecutionID,
		Started:     result.Started,
		Message:     result.Message,
	})
}

// RunSync 同步执行: 在请求线程上运行到完成，应答携带完整结果
func (e *ExecutionAPI) RunSync(c *gin.Context) {
	var req RunExecutionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := e.runner.SubmitSync(c.Request.Context(), runner.ExecuteRequest{
		InputPath:  req.InputPath,
		Parameters: req.Parameters,
		Username:   req.Username,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, RunSyncResp{
		ExecutionID:    result.ExecutionID,
		Success:        result.Success,
		PartialOutput:  result.PartialOutput,
		ErrorDetail:    result.ErrorDetail,
		ElapsedSeconds: result.ElapsedSeconds,
	})
}

// List 获取执行历史列表
func (e *ExecutionAPI) List(c *gin.Context) {
	var req ListExecutionReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 分页参数
	page := max(1, req.Page)
	pageSize := 20 // 默认每页20条
	if req.PageSize != 0 {
		pageSize = req.PageSize
	}
	offset := (page - 1) * pageSize

	query := e.storage.DB().Model(&models.NotebookExecution{})

	if req.NotebookID != 0 {
		query = query.Where("notebook_id = ?", req.NotebookID)
	}
	if req.Username != "" {
		query = query.Where("username = ?", req.Username)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	// 支持时间范围过滤
	if start := req.StartTime; start != "" {
		query = query.Where("started_at >= ?", start)
	}
	if end := req.EndTime; end != "" {
		query = query.Where("started_at <= ?", end)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.Error(err)
		return
	}

	var executions []models.NotebookExecution
	if err := query.Order("started_at DESC").Limit(pageSize).Offset(offset).Find(&executions).Error; err != nil {
		c.Error(err)
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, ListExecutionResp{
		Data:       executions,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// Get 获取执行记录详情
func (e *ExecutionAPI) Get(c *gin.Context) {
	id := cast.ToUint64(c.Param("id"))

	var execution models.NotebookExecution
	if err := e.storage.DB().
		Preload("Notebook").
		Where("id = ?", id).
		First(&execution).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &execution)
}

// Stats 获取执行统计
func (e *ExecutionAPI) Stats(c *gin.Context) {
	var stats ExecutionStatsResp

	// 每次统计都从新查询开始，避免条件在已执行过的语句上累积
	base := func() *gorm.DB {
		query := e.storage.DB().Model(&models.NotebookExecution{})
		if username := c.Query("username"); username != "" {
			query = query.Where("username = ?", username)
		}
		if notebookID := c.Query("notebook_id"); notebookID != "" {
			query = query.Where("notebook_id = ?", notebookID)
		}
		return query
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		c.Error(err)
		return
	}

	// 统计各状态数量
	base().Where("status = ?", models.ExecutionStatusSuccess).Count(&stats.Success)
	base().Where("status = ?", models.ExecutionStatusFailed).Count(&stats.Failed)
	base().Where("status = ?", models.ExecutionStatusRunning).Count(&stats.Running)
	base().Where("status = ?", models.ExecutionStatusPending).Count(&stats.Pending)

	c.JSON(http.StatusOK, stats)
}

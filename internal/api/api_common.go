package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notebooks/runner/internal/orm"
)

// ExecutorProbe 执行工具可用性探测（健康检查使用）
type ExecutorProbe interface {
	Available() (string, bool)
}

// CommonAPI 健康检查等通用接口
type CommonAPI struct {
	storage *orm.Storage
	probe   ExecutorProbe
}

func NewCommonAPI(storage *orm.Storage, probe ExecutorProbe) *CommonAPI {
	return &CommonAPI{
		storage: storage,
		probe:   probe,
	}
}

// HealthCheck 健康检查: 数据库连接与执行工具可用性
func (c *CommonAPI) HealthCheck(ctx *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	checks := gin.H{}

	if err := c.storage.Ping(); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
		checks["database"] = gin.H{"ok": false, "error": err.Error()}
	} else {
		checks["database"] = gin.H{"ok": true}
	}

	if c.probe != nil {
		path, ok := c.probe.Available()
		checks["executor"] = gin.H{"ok": ok, "path": path}
		if !ok {
			status = "degraded"
		}
	}

	ctx.JSON(code, gin.H{
		"status": status,
		"time":   time.Now(),
		"checks": checks,
	})
}

package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notebooks/runner/internal/runner"
	"github.com/notebooks/runner/internal/templatestore"
	"github.com/notebooks/runner/pkg/config"
	"go.uber.org/zap"
)

// TemplateAPI 模板笔记本接口，依赖对象存储
type TemplateAPI struct {
	store  *templatestore.Store
	cfg    config.RunnerConfig
	logger *zap.Logger
}

func NewTemplateAPI(store *templatestore.Store, cfg config.RunnerConfig, logger *zap.Logger) *TemplateAPI {
	return &TemplateAPI{
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Upload 上传模板，multipart文件或原始body均可
func (t *TemplateAPI) Upload(c *gin.Context) {
	name := c.Param("name")

	var content []byte
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.Error(err)
			return
		}
		defer f.Close()
		content, err = io.ReadAll(f)
		if err != nil {
			c.Error(err)
			return
		}
	} else {
		var err error
		content, err = io.ReadAll(c.Request.Body)
		if err != nil {
			c.Error(err)
			return
		}
	}
	if len(content) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty template content"})
		return
	}

	info, err := t.store.Upload(c.Request.Context(), name, content)
	if err != nil {
		c.Error(err)
		return
	}

	t.logger.Info("template uploaded",
		zap.String("name", info.Name),
		zap.Int64("size", info.Size))

	c.JSON(http.StatusCreated, info)
}

// List 获取模板列表
func (t *TemplateAPI) List(c *gin.Context) {
	templates, err := t.store.List(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		c.Error(err)
		return
	}
	if templates == nil {
		templates = []templatestore.TemplateInfo{}
	}
	c.JSON(http.StatusOK, templates)
}

// Get 下载模板内容
func (t *TemplateAPI) Get(c *gin.Context) {
	name := c.Param("name")

	content, err := t.store.Get(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/x-ipynb+json", content)
}

// Info 获取模板元数据
func (t *TemplateAPI) Info(c *gin.Context) {
	info, err := t.store.Stat(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

// PresignedURL 生成模板的限时下载链接
func (t *TemplateAPI) PresignedURL(c *gin.Context) {
	name := c.Param("name")

	url, err := t.store.PresignedURL(c.Request.Context(), name, 15*time.Minute)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in_seconds": 900})
}

// Delete 删除模板
func (t *TemplateAPI) Delete(c *gin.Context) {
	if err := t.store.Delete(c.Request.Context(), c.Param("name")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}

// Instantiate 将模板实例化到用户home目录
func (t *TemplateAPI) Instantiate(c *gin.Context) {
	name := c.Param("name")

	var req InstantiateTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 目标目录必须在用户home内
	if err := runner.ValidateDestDir(req.DestDir, req.Username, t.cfg.HomeRoot); err != nil {
		c.Error(err)
		return
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = filepath.Base(name)
	}
	if !strings.HasSuffix(fileName, ".ipynb") {
		fileName += ".ipynb"
	}
	destPath := filepath.Join(req.DestDir, fileName)

	if err := t.store.Instantiate(c.Request.Context(), name, destPath); err != nil {
		c.Error(err)
		return
	}

	t.logger.Info("template instantiated",
		zap.String("template", name),
		zap.String("dest", destPath),
		zap.String("username", req.Username))

	c.JSON(http.StatusCreated, InstantiateTemplateResp{Path: destPath})
}

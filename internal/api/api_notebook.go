package api

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/notebooks/runner/internal/models"
	"github.com/notebooks/runner/internal/orm"
	"github.com/notebooks/runner/pkg/config"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// NotebookAPI 笔记本注册接口
type NotebookAPI struct {
	storage *orm.Storage
	cfg     config.RunnerConfig
	logger  *zap.Logger
}

func NewNotebookAPI(storage *orm.Storage, cfg config.RunnerConfig, logger *zap.Logger) *NotebookAPI {
	return &NotebookAPI{
		storage: storage,
		cfg:     cfg,
		logger:  logger,
	}
}

// Create 注册笔记本，可携带参数定义一并创建
func (n *NotebookAPI) Create(c *gin.Context) {
	var req CreateNotebookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notebook := models.Notebook{
		Name:        req.Name,
		Description: req.Description,
		FilePath:    req.FilePath,
		Username:    req.Username,
		Tags:        req.Tags,
		Metadata:    req.Metadata,
	}
	for _, p := range req.Parameters {
		notebook.Parameters = append(notebook.Parameters, models.NotebookParameter{
			ParamName:       p.ParamName,
			ParamType:       p.ParamType,
			DefaultValue:    p.DefaultValue,
			Description:     p.Description,
			Required:        p.Required,
			ValidationRules: p.ValidationRules,
		})
	}

	if err := n.storage.DB().Create(&notebook).Error; err != nil {
		c.Error(err)
		return
	}

	n.logger.Info("notebook registered",
		zap.Uint64("notebook_id", notebook.ID),
		zap.String("name", notebook.Name),
		zap.String("username", notebook.Username))

	c.JSON(http.StatusCreated, &notebook)
}

// List 获取笔记本列表，支持按用户名和标签过滤
func (n *NotebookAPI) List(c *gin.Context) {
	var req ListNotebookReq
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page := max(1, req.Page)
	pageSize := 20
	if req.PageSize != 0 {
		pageSize = req.PageSize
	}
	offset := (page - 1) * pageSize

	query := n.storage.DB().Model(&models.Notebook{})
	if req.Username != "" {
		query = query.Where("username = ?", req.Username)
	}
	if req.Tag != "" {
		// tags以JSON数组存储，LIKE匹配带引号的元素
		query = query.Where("tags LIKE ?", "%\""+req.Tag+"\"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.Error(err)
		return
	}

	var notebooks []models.Notebook
	if err := query.Preload("Parameters").
		Order("updated_at DESC").Limit(pageSize).Offset(offset).
		Find(&notebooks).Error; err != nil {
		c.Error(err)
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, ListNotebookResp{
		Data:       notebooks,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// Get 获取笔记本详情
func (n *NotebookAPI) Get(c *gin.Context) {
	id := cast.ToUint64(c.Param("id"))

	var notebook models.Notebook
	if err := n.storage.DB().
		Preload("Parameters").
		Where("id = ?", id).
		First(&notebook).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &notebook)
}

// Update 更新笔记本元信息，file_path和username不可变更
func (n *NotebookAPI) Update(c *gin.Context) {
	id := cast.ToUint64(c.Param("id"))

	var req UpdateNotebookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var notebook models.Notebook
	if err := n.storage.DB().Where("id = ?", id).First(&notebook).Error; err != nil {
		c.Error(err)
		return
	}

	if req.Name != "" {
		notebook.Name = req.Name
	}
	if req.Description != nil {
		notebook.Description = req.Description
	}
	if req.Tags != nil {
		notebook.Tags = req.Tags
	}
	if req.Metadata != nil {
		notebook.Metadata = req.Metadata
	}

	if err := n.storage.DB().Save(&notebook).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &notebook)
}

// Delete 删除笔记本及其参数定义，执行历史保留(notebook_id置空关联)
func (n *NotebookAPI) Delete(c *gin.Context) {
	id := cast.ToUint64(c.Param("id"))

	var notebook models.Notebook
	if err := n.storage.DB().Where("id = ?", id).First(&notebook).Error; err != nil {
		c.Error(err)
		return
	}

	if err := n.storage.DB().Where("notebook_id = ?", id).
		Delete(&models.NotebookParameter{}).Error; err != nil {
		c.Error(err)
		return
	}
	if err := n.storage.DB().Delete(&notebook).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notebook deleted"})
}

// ListUserFiles 列出用户home目录下的全部笔记本文件
func (n *NotebookAPI) ListUserFiles(c *gin.Context) {
	username := c.Param("username")
	userHome := filepath.Join(n.cfg.HomeRoot, username)

	if _, err := os.Stat(userHome); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user home directory not found"})
		return
	}

	files := []UserFile{}
	err := filepath.WalkDir(userHome, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// 单个子目录不可读不影响整体列表
			return nil
		}
		if d.IsDir() {
			// 跳过jupyter的checkpoint目录和隐藏目录
			name := d.Name()
			if name == ".ipynb_checkpoints" || (strings.HasPrefix(name, ".") && path != userHome) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".ipynb") || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, UserFile{
			Path:    path,
			Name:    d.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().Format("2006-01-02T15:04:05Z07:00"),
		})
		return nil
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ListUserFilesResp{
		Username: username,
		Files:    files,
	})
}

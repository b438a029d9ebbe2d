package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notebooks/runner/internal/models"
	"github.com/notebooks/runner/internal/orm"
	"github.com/spf13/cast"
)

// ParameterAPI 笔记本参数定义接口
type ParameterAPI struct {
	storage *orm.Storage
}

func NewParameterAPI(storage *orm.Storage) *ParameterAPI {
	return &ParameterAPI{storage: storage}
}

// Create 为笔记本新增参数定义
func (p *ParameterAPI) Create(c *gin.Context) {
	notebookID := cast.ToUint64(c.Param("id"))

	var req CreateParamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 笔记本必须存在
	var notebook models.Notebook
	if err := p.storage.DB().Where("id = ?", notebookID).First(&notebook).Error; err != nil {
		c.Error(err)
		return
	}

	param := models.NotebookParameter{
		NotebookID:      notebookID,
		ParamName:       req.ParamName,
		ParamType:       req.ParamType,
		DefaultValue:    req.DefaultValue,
		Description:     req.Description,
		Required:        req.Required,
		ValidationRules: req.ValidationRules,
	}
	if err := p.storage.DB().Create(&param).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, &param)
}

// BulkCreate 批量新增参数定义，全部落在一个事务里
func (p *ParameterAPI) BulkCreate(c *gin.Context) {
	notebookID := cast.ToUint64(c.Param("id"))

	var reqs []CreateParamReq
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty parameter list"})
		return
	}

	var notebook models.Notebook
	if err := p.storage.DB().Where("id = ?", notebookID).First(&notebook).Error; err != nil {
		c.Error(err)
		return
	}

	params := make([]models.NotebookParameter, 0, len(reqs))
	for _, req := range reqs {
		params = append(params, models.NotebookParameter{
			NotebookID:      notebookID,
			ParamName:       req.ParamName,
			ParamType:       req.ParamType,
			DefaultValue:    req.DefaultValue,
			Description:     req.Description,
			Required:        req.Required,
			ValidationRules: req.ValidationRules,
		})
	}
	if err := p.storage.DB().Create(&params).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, params)
}

// List 获取笔记本的全部参数定义
func (p *ParameterAPI) List(c *gin.Context) {
	notebookID := cast.ToUint64(c.Param("id"))

	var params []models.NotebookParameter
	if err := p.storage.DB().
		Where("notebook_id = ?", notebookID).
		Order("param_name").
		Find(&params).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, params)
}

// Update 更新参数定义
func (p *ParameterAPI) Update(c *gin.Context) {
	paramID := cast.ToUint64(c.Param("param_id"))

	var req UpdateParamReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var param models.NotebookParameter
	if err := p.storage.DB().Where("id = ?", paramID).First(&param).Error; err != nil {
		c.Error(err)
		return
	}

	if req.ParamType != "" {
		param.ParamType = req.ParamType
	}
	if req.DefaultValue != nil {
		param.DefaultValue = req.DefaultValue
	}
	if req.Description != nil {
		param.Description = req.Description
	}
	if req.Required != nil {
		param.Required = *req.Required
	}
	if req.ValidationRules != nil {
		param.ValidationRules = req.ValidationRules
	}

	if err := p.storage.DB().Save(&param).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &param)
}

// Delete 删除参数定义
func (p *ParameterAPI) Delete(c *gin.Context) {
	paramID := cast.ToUint64(c.Param("param_id"))

	var param models.NotebookParameter
	if err := p.storage.DB().Where("id = ?", paramID).First(&param).Error; err != nil {
		c.Error(err)
		return
	}

	if err := p.storage.DB().Delete(&param).Error; err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "parameter deleted"})
}

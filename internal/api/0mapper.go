package api

import (
	"github.com/notebooks/runner/internal/models"
)

////// notebook API //////

type CreateNotebookReq struct {
	Name        string            `json:"name" binding:"required"`
	Description *string           `json:"description"`
	FilePath    string            `json:"file_path" binding:"required"`
	Username    string            `json:"username" binding:"required"`
	Tags        models.StringList `json:"tags"`
	Metadata    models.JSONMap    `json:"metadata"`
	Parameters  []CreateParamReq  `json:"parameters"`
}

type UpdateNotebookReq struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Tags        models.StringList `json:"tags"`
	Metadata    models.JSONMap    `json:"metadata"`
}

type ListNotebookReq struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Username string `form:"username"`
	Tag      string `form:"tag"`
}

type ListNotebookResp struct {
	Data       []models.Notebook `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// UserFile 用户home目录下的一个笔记本文件
type UserFile struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	ModTime string `json:"mod_time"`
}

type ListUserFilesResp struct {
	Username string     `json:"username"`
	Files    []UserFile `json:"files"`
}

////// parameter API //////

type CreateParamReq struct {
	ParamName       string           `json:"param_name" binding:"required"`
	ParamType       models.ParamType `json:"param_type" binding:"required"`
	DefaultValue    models.JSONValue `json:"default_value"`
	Description     *string          `json:"description"`
	Required        bool             `json:"required"`
	ValidationRules models.JSONMap   `json:"validation_rules"`
}

type UpdateParamReq struct {
	ParamType       models.ParamType `json:"param_type"`
	DefaultValue    models.JSONValue `json:"default_value"`
	Description     *string          `json:"description"`
	Required        *bool            `json:"required"`
	ValidationRules models.JSONMap   `json:"validation_rules"`
}

////// execution API //////

type RunExecutionReq struct {
	InputPath  string         `json:"input_path" binding:"required"`
	Parameters map[string]any `json:"parameters"`
	Username   string         `json:"username"`
}

type RunExecutionResp struct {
	ExecutionID uint64 `json:"execution_id,string"`
	Started     bool   `json:"started"`
	Message     string `json:"message"`
}

type RunSyncResp struct {
	ExecutionID    uint64 `json:"execution_id,string"`
	Success        bool   `json:"success"`
	PartialOutput  bool   `json:"partial_output"`
	ErrorDetail    string `json:"error_detail,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
}

type ListExecutionReq struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	NotebookID uint64 `form:"notebook_id"`
	Username   string `form:"username"`
	Status     string `form:"status"`
	StartTime  string `form:"start_time"`
	EndTime    string `form:"end_time"`
}

type ListExecutionResp struct {
	Data       []models.NotebookExecution `json:"data"`
	Total      int64                      `json:"total"`
	Page       int                        `json:"page"`
	PageSize   int                        `json:"page_size"`
	TotalPages int                        `json:"total_pages"`
}

type ExecutionStatsResp struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
	Running int64 `json:"running"`
	Pending int64 `json:"pending"`
}

////// schedule API //////

type CreateScheduleReq struct {
	NotebookID     *uint64        `json:"notebook_id"`
	InputPath      string         `json:"input_path" binding:"required"`
	CronExpression string         `json:"cron_expression" binding:"required"`
	Parameters     models.JSONMap `json:"parameters"`
	Username       string         `json:"username" binding:"required"`
	Enabled        *bool          `json:"enabled"`
}

type UpdateScheduleReq struct {
	CronExpression string         `json:"cron_expression"`
	Parameters     models.JSONMap `json:"parameters"`
	Enabled        *bool          `json:"enabled"`
}

////// template API //////

type InstantiateTemplateReq struct {
	Username string         `json:"username" binding:"required"`
	DestDir  string         `json:"dest_dir" binding:"required"`
	FileName string         `json:"file_name"`
	Metadata models.JSONMap `json:"metadata"`
}

type InstantiateTemplateResp struct {
	Path string `json:"path"`
}

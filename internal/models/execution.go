package models

import (
	"time"
)

// NotebookExecution 一次执行尝试的持久化记录
//
// 状态机: pending → running → {success, failed}，终止后不再变更。
// 记录在执行期间仅由负责该次执行的worker写入。
type NotebookExecution struct {
	ID                   uint64          `gorm:"primaryKey" json:"id"`
	NotebookID           *uint64         `gorm:"column:notebook_id;index" json:"notebook_id"`
	Username             string          `gorm:"size:100;not null;index" json:"username"`
	InputPath            string          `gorm:"column:input_path;size:512;not null" json:"input_path"`
	OutputPath           *string         `gorm:"column:output_path;size:512" json:"output_path"`
	ParametersUsed       JSONMap         `gorm:"column:parameters_used;type:json" json:"parameters_used"`
	Status               ExecutionStatus `gorm:"size:50;not null;index" json:"status"`
	ErrorMessage         *string         `gorm:"column:error_message;type:text" json:"error_message"`
	PartialOutput        bool            `gorm:"column:partial_output;default:false" json:"partial_output"`
	ExecutionTimeSeconds *int            `gorm:"column:execution_time_seconds" json:"execution_time_seconds"`
	StartedAt            time.Time       `gorm:"column:started_at;not null;index" json:"started_at"`
	CompletedAt          *time.Time      `gorm:"column:completed_at" json:"completed_at"`

	Notebook *Notebook `gorm:"foreignKey:NotebookID" json:"notebook,omitempty"`
}

func (NotebookExecution) TableName() string {
	return "notebook_executions"
}

// MarkRunning 标记为运行中
func (e *NotebookExecution) MarkRunning() *NotebookExecution {
	e.Status = ExecutionStatusRunning
	return e
}

// MarkSuccess 标记为成功，记录最终文档路径和耗时
func (e *NotebookExecution) MarkSuccess(finalPath string) *NotebookExecution {
	now := time.Now()
	elapsed := int(now.Sub(e.StartedAt).Seconds())
	e.Status = ExecutionStatusSuccess
	e.OutputPath = &finalPath
	e.CompletedAt = &now
	e.ExecutionTimeSeconds = &elapsed
	return e
}

// MarkFailed 标记为失败，保留错误详情与部分输出标记
func (e *NotebookExecution) MarkFailed(detail string, partial bool) *NotebookExecution {
	now := time.Now()
	elapsed := int(now.Sub(e.StartedAt).Seconds())
	e.Status = ExecutionStatusFailed
	e.ErrorMessage = &detail
	e.PartialOutput = partial
	e.CompletedAt = &now
	e.ExecutionTimeSeconds = &elapsed
	return e
}

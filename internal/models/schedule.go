package models

import (
	"time"
)

// Schedule 周期性执行计划
type Schedule struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	NotebookID     *uint64   `gorm:"column:notebook_id;index" json:"notebook_id"`
	InputPath      string    `gorm:"column:input_path;size:512;not null" json:"input_path"`
	CronExpression string    `gorm:"column:cron_expression;size:100;not null" json:"cron_expression"`
	Parameters     JSONMap   `gorm:"type:json" json:"parameters"`
	Username       string    `gorm:"size:100;not null;index" json:"username"`
	Enabled        bool      `gorm:"default:true;index" json:"enabled"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Schedule) TableName() string {
	return "notebook_schedules"
}

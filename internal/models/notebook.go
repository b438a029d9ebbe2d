package models

import (
	"time"
)

type Notebook struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:255;not null;index;uniqueIndex:uq_notebook_name_username" json:"name"`
	Description *string    `gorm:"type:text" json:"description"`
	FilePath    string     `gorm:"column:file_path;size:512;not null;uniqueIndex" json:"file_path"`
	Username    string     `gorm:"size:100;not null;index;uniqueIndex:uq_notebook_name_username" json:"username"`
	Tags        StringList `gorm:"type:json" json:"tags"`
	Metadata    JSONMap    `gorm:"column:notebook_metadata;type:json" json:"metadata"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联关系
	Parameters []NotebookParameter `gorm:"foreignKey:NotebookID;constraint:OnDelete:CASCADE" json:"parameters,omitempty"`
}

func (Notebook) TableName() string {
	return "notebooks"
}

type NotebookParameter struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	NotebookID      uint64    `gorm:"column:notebook_id;not null;index;uniqueIndex:uq_param_name_per_notebook" json:"notebook_id"`
	ParamName       string    `gorm:"column:param_name;size:100;not null;index;uniqueIndex:uq_param_name_per_notebook" json:"param_name"`
	ParamType       ParamType `gorm:"column:param_type;size:50;not null" json:"param_type"`
	DefaultValue    JSONValue `gorm:"column:default_value;type:json" json:"default_value"`
	Description     *string   `gorm:"type:text" json:"description"`
	Required        bool      `gorm:"default:false" json:"required"`
	ValidationRules JSONMap   `gorm:"column:validation_rules;type:json" json:"validation_rules"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (NotebookParameter) TableName() string {
	return "notebook_parameters"
}

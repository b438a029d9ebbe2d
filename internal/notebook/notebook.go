// Package notebook 提供对.ipynb文档的最小结构化访问。
//
// 执行器只依赖文档格式的一点: 能按cell判断其是否已被执行
// (execution_count非零，或outputs非空)。
package notebook

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	CellTypeCode     = "code"
	CellTypeMarkdown = "markdown"
)

type Document struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

type Cell struct {
	CellType       string            `json:"cell_type"`
	ExecutionCount *int              `json:"execution_count,omitempty"`
	Metadata       map[string]any    `json:"metadata"`
	Outputs        []json.RawMessage `json:"outputs,omitempty"`
	// source在nbformat中可以是字符串或字符串数组
	Source json.RawMessage `json:"source"`
}

// Executed 判断cell是否已被执行
func (c *Cell) Executed() bool {
	if c.ExecutionCount != nil && *c.ExecutionCount != 0 {
		return true
	}
	return len(c.Outputs) > 0
}

// Parse 解析文档内容并校验基本结构
func Parse(data []byte) (*Document, error) {
	var raw struct {
		Cells    *[]Cell         `json:"cells"`
		Metadata *map[string]any `json:"metadata"`
		NBFormat int             `json:"nbformat"`
		Minor    int             `json:"nbformat_minor"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in notebook: %w", err)
	}
	if raw.Cells == nil || raw.Metadata == nil {
		return nil, fmt.Errorf("invalid notebook structure: missing cells or metadata")
	}
	return &Document{
		Cells:         *raw.Cells,
		Metadata:      *raw.Metadata,
		NBFormat:      raw.NBFormat,
		NBFormatMinor: raw.Minor,
	}, nil
}

// Load 从文件加载文档
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// CodeCellCount 统计代码cell数量
func (d *Document) CodeCellCount() int {
	var n int
	for i := range d.Cells {
		if d.Cells[i].CellType == CellTypeCode {
			n++
		}
	}
	return n
}

// FirstCellExecuted 判断首个代码cell是否已执行。
// markdown cell没有执行痕迹，跳过。
func (d *Document) FirstCellExecuted() bool {
	for i := range d.Cells {
		if d.Cells[i].CellType == CellTypeCode {
			return d.Cells[i].Executed()
		}
	}
	return false
}

// LastCodeCellExecuted 判断最后一个代码cell是否已执行
func (d *Document) LastCodeCellExecuted() bool {
	for i := len(d.Cells) - 1; i >= 0; i-- {
		if d.Cells[i].CellType == CellTypeCode {
			return d.Cells[i].Executed()
		}
	}
	return false
}

// HasExecutedCells 判断是否存在任何已执行的cell
func (d *Document) HasExecutedCells() bool {
	for i := range d.Cells {
		if d.Cells[i].Executed() {
			return true
		}
	}
	return false
}

package runner

import (
	"context"
	"time"

	"github.com/notebooks/runner/internal/notebook"
)

// ProgressTarget 进度检测目标
type ProgressTarget int

const (
	// ProgressFirstCell 首个cell已执行
	ProgressFirstCell ProgressTarget = iota
	// ProgressLastCodeCell 最后一个代码cell已执行
	ProgressLastCodeCell
)

// WaitForProgress 轮询正在被执行工具写入的文档，直到检测到目标进度
// 或超时。只作尽力而为的进度信号: 读取/解析错误视为"尚未就绪"继续
// 轮询（文件可能正处于写入中途），超时返回false不影响后台执行继续。
// 检测LastCodeCell时若文档没有代码cell，立即返回false。
func WaitForProgress(ctx context.Context, path string, target ProgressTarget, timeout, interval time.Duration) bool {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	deadline := time.Now().Add(timeout)

	// 先检查一次: 已执行完的静态文档无需等待任何tick
	if done, stop := check(path, target); done || stop {
		return done
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if done, stop := check(path, target); done || stop {
				return done
			}
			if time.Now().After(deadline) {
				return false
			}
		}
	}
}

// check 返回(检测到进度, 停止轮询)
func check(path string, target ProgressTarget) (bool, bool) {
	doc, err := notebook.Load(path)
	if err != nil {
		// 文件可能写了一半，下个tick再看
		return false, false
	}
	switch target {
	case ProgressLastCodeCell:
		if doc.CodeCellCount() == 0 {
			// 没有可执行cell，无需等待
			return false, true
		}
		return doc.LastCodeCellExecuted(), false
	default:
		return doc.FirstCellExecuted(), false
	}
}

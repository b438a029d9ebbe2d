package runner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Executor 外部文档执行工具。
//
// Execute将inputPath执行为outputPath，按cell完成顺序增量写出。
// 执行失败时返回*ExecutionError，Detail保留底层错误信息。
type Executor interface {
	Execute(ctx context.Context, inputPath, outputPath string, parameters map[string]any, kernel string) error
}

// PapermillExecutor 通过papermill命令行执行笔记本
type PapermillExecutor struct {
	Binary string
	logger *zap.Logger
}

func NewPapermillExecutor(binary string, logger *zap.Logger) *PapermillExecutor {
	if binary == "" {
		binary = "papermill"
	}
	return &PapermillExecutor{Binary: binary, logger: logger}
}

// Available 检查papermill是否可用（健康检查使用）
func (p *PapermillExecutor) Available() (string, bool) {
	path, err := exec.LookPath(p.Binary)
	return path, err == nil
}

func (p *PapermillExecutor) Execute(ctx context.Context, inputPath, outputPath string, parameters map[string]any, kernel string) error {
	args := []string{inputPath, outputPath}
	if kernel != "" {
		args = append(args, "-k", kernel)
	}
	if len(parameters) > 0 {
		// 参数以base64编码的JSON传递，JSON是YAML的子集，
		// 避免对任意值做shell转义
		payload, err := json.Marshal(parameters)
		if err != nil {
			return fmt.Errorf("failed to marshal parameters: %w", err)
		}
		args = append(args, "-b", base64.StdEncoding.EncodeToString(payload))
	}

	cmd := exec.CommandContext(ctx, p.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	p.logger.Debug("invoking papermill",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.String("kernel", kernel))

	if err := cmd.Run(); err != nil {
		detail := stderrTail(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return &ExecutionError{Detail: detail}
	}
	return nil
}

// stderrTail 截取stderr末尾若干行作为错误详情
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	const keep = 20
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, "\n")
}

package runner

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// executedNotebook 两个cell都已执行
const executedNotebook = `{
  "cells": [
    {"cell_type": "code", "execution_count": 1, "metadata": {}, "outputs": [{"output_type": "stream", "name": "stdout", "text": "a"}], "source": "print('a')"},
    {"cell_type": "code", "execution_count": 2, "metadata": {}, "outputs": [], "source": "b = 2"}
  ],
  "metadata": {"kernelspec": {"name": "python3"}},
  "nbformat": 4,
  "nbformat_minor": 5
}`

// partialNotebook 首个cell已执行，第二个cell失败无执行痕迹
const partialNotebook = `{
  "cells": [
    {"cell_type": "code", "execution_count": 1, "metadata": {}, "outputs": [{"output_type": "stream", "name": "stdout", "text": "a"}], "source": "print('a')"},
    {"cell_type": "code", "execution_count": null, "metadata": {}, "outputs": [], "source": "raise ValueError('boom')"}
  ],
  "metadata": {"kernelspec": {"name": "python3"}},
  "nbformat": 4,
  "nbformat_minor": 5
}`

// freshNotebook 未执行过的文档
const freshNotebook = `{
  "cells": [
    {"cell_type": "code", "execution_count": null, "metadata": {}, "outputs": [], "source": "print('a')"}
  ],
  "metadata": {"kernelspec": {"name": "python3"}},
  "nbformat": 4,
  "nbformat_minor": 5
}`

// fakeExecutor 向输出路径写入固定内容的执行器替身
type fakeExecutor struct {
	// output 写入outputPath的内容，空串则不写
	output string
	// fail 返回执行错误
	fail bool
	// calls 执行次数
	calls atomic.Int32
	// lastParams 最近一次的参数
	lastParams map[string]any
}

func (f *fakeExecutor) Execute(ctx context.Context, inputPath, outputPath string, parameters map[string]any, kernel string) error {
	f.calls.Add(1)
	f.lastParams = parameters
	if f.output != "" {
		if err := os.WriteFile(outputPath, []byte(f.output), 0600); err != nil {
			return fmt.Errorf("fake write: %w", err)
		}
	}
	if f.fail {
		return &ExecutionError{Detail: "Exception: boom in cell 2"}
	}
	return nil
}

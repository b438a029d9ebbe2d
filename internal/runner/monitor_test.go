package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForProgressImmediate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "done.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(executedNotebook), 0644))

	// 已执行完的静态文档，第一次检查就命中，不消耗等待时间
	start := time.Now()
	ok := WaitForProgress(context.Background(), path, ProgressFirstCell, 5*time.Second, 10*time.Millisecond)
	assert.True(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForProgressTimeout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(freshNotebook), 0644))

	ok := WaitForProgress(context.Background(), path, ProgressFirstCell, 50*time.Millisecond, 10*time.Millisecond)
	assert.False(t, ok)
}

func TestWaitForProgressDetectsBackgroundWriter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(freshNotebook), 0644))

	// 后台模拟执行工具在轮询中途写出首个cell的结果
	go func() {
		time.Sleep(30 * time.Millisecond)
		os.WriteFile(path, []byte(partialNotebook), 0644)
	}()

	ok := WaitForProgress(context.Background(), path, ProgressFirstCell, 2*time.Second, 10*time.Millisecond)
	assert.True(t, ok)
}

func TestWaitForProgressUnparseableFileKeepsPolling(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "half.ipynb")
	// 写了一半的JSON视为"尚未就绪"
	require.NoError(t, os.WriteFile(path, []byte(`{"cells": [`), 0644))

	go func() {
		time.Sleep(30 * time.Millisecond)
		os.WriteFile(path, []byte(executedNotebook), 0644)
	}()

	ok := WaitForProgress(context.Background(), path, ProgressFirstCell, 2*time.Second, 10*time.Millisecond)
	assert.True(t, ok)
}

func TestWaitForProgressLastCodeCell(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nb.ipynb")

	// 只有首个cell执行完时，最后一个代码cell还未就绪
	require.NoError(t, os.WriteFile(path, []byte(partialNotebook), 0644))
	ok := WaitForProgress(context.Background(), path, ProgressLastCodeCell, 50*time.Millisecond, 10*time.Millisecond)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte(executedNotebook), 0644))
	ok = WaitForProgress(context.Background(), path, ProgressLastCodeCell, time.Second, 10*time.Millisecond)
	assert.True(t, ok)
}

func TestWaitForProgressNoCodeCellsStopsEarly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "md.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(`{"cells": [{"cell_type": "markdown", "metadata": {}, "source": "x"}], "metadata": {}, "nbformat": 4, "nbformat_minor": 5}`), 0644))

	// 没有代码cell时立即放弃，不等满超时
	start := time.Now()
	ok := WaitForProgress(context.Background(), path, ProgressLastCodeCell, 5*time.Second, 10*time.Millisecond)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitForProgressContextCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(freshNotebook), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	ok := WaitForProgress(ctx, path, ProgressFirstCell, 10*time.Second, 10*time.Millisecond)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
}

package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNotebook(t *testing.T, dir, name, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	return path
}

// listTempFiles 列出目录下残留的隐藏临时文件
func listTempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var tmps []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			tmps = append(tmps, e.Name())
		}
	}
	return tmps
}

func TestCreateTempSameDir(t *testing.T) {
	dir := t.TempDir()
	input := writeNotebook(t, dir, "report.ipynb", freshNotebook, 0644)

	tmpPath, err := createTemp(input)
	require.NoError(t, err)
	defer os.Remove(tmpPath)

	assert.Equal(t, dir, filepath.Dir(tmpPath))
	assert.True(t, strings.HasPrefix(filepath.Base(tmpPath), ".report."))
	assert.True(t, strings.HasSuffix(tmpPath, ".ipynb"))
}

func TestRunInPlaceSuccess(t *testing.T) {
	dir := t.TempDir()
	input := writeNotebook(t, dir, "report.ipynb", freshNotebook, 0640)
	tmpPath, err := createTemp(input)
	require.NoError(t, err)

	exec := &fakeExecutor{output: executedNotebook}
	partial, err := runInPlace(context.Background(), exec, input, tmpPath, nil, "python3")
	require.NoError(t, err)
	assert.False(t, partial)

	// 原路径上的内容已被执行结果替换
	got, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, executedNotebook, string(got))

	// 权限位保持不变
	info, err := os.Stat(input)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())

	// 没有临时文件残留
	assert.Empty(t, listTempFiles(t, dir))
}

func TestRunInPlaceFailureWithPartialOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeNotebook(t, dir, "report.ipynb", freshNotebook, 0644)
	tmpPath, err := createTemp(input)
	require.NoError(t, err)

	exec := &fakeExecutor{output: partialNotebook, fail: true}
	partial, err := runInPlace(context.Background(), exec, input, tmpPath, nil, "python3")

	// 执行错误照常上报，但部分结果已替换原文件
	require.Error(t, err)
	var execErr *ExecutionError
	assert.ErrorAs(t, err, &execErr)
	assert.True(t, partial)

	got, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, partialNotebook, string(got))
	assert.Empty(t, listTempFiles(t, dir))
}

func TestRunInPlaceFailureWithoutProgress(t *testing.T) {
	dir := t.TempDir()
	input := writeNotebook(t, dir, "report.ipynb", freshNotebook, 0644)
	tmpPath, err := createTemp(input)
	require.NoError(t, err)

	// 执行器写出了文档但没有任何cell执行痕迹
	exec := &fakeExecutor{output: freshNotebook, fail: true}
	partial, err := runInPlace(context.Background(), exec, input, tmpPath, nil, "python3")

	require.Error(t, err)
	assert.False(t, partial)

	// 原文件逐字节不变
	got, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, freshNotebook, string(got))
	assert.Empty(t, listTempFiles(t, dir))
}

func TestRunInPlaceFailureEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeNotebook(t, dir, "report.ipynb", freshNotebook, 0644)
	tmpPath, err := createTemp(input)
	require.NoError(t, err)

	// 执行器崩溃，临时文件保持空
	exec := &fakeExecutor{fail: true}
	partial, err := runInPlace(context.Background(), exec, input, tmpPath, nil, "python3")

	require.Error(t, err)
	assert.False(t, partial)

	got, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, freshNotebook, string(got))
	assert.Empty(t, listTempFiles(t, dir))
}

func TestRunInPlaceFailureGarbageOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeNotebook(t, dir, "report.ipynb", freshNotebook, 0644)
	tmpPath, err := createTemp(input)
	require.NoError(t, err)

	// 临时文件里是写了一半的JSON
	exec := &fakeExecutor{output: `{"cells": [`, fail: true}
	partial, err := runInPlace(context.Background(), exec, input, tmpPath, nil, "python3")

	require.Error(t, err)
	assert.False(t, partial)
	assert.Empty(t, listTempFiles(t, dir))
}

func TestRunInPlaceMissingInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "gone.ipynb")
	tmpPath := filepath.Join(dir, ".gone.x.ipynb")
	require.NoError(t, os.WriteFile(tmpPath, nil, 0600))

	exec := &fakeExecutor{}
	_, err := runInPlace(context.Background(), exec, input, tmpPath, nil, "python3")

	var fsErr *FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, "stat", fsErr.Op)
	// 执行器未被调用
	assert.EqualValues(t, 0, exec.calls.Load())
	assert.Empty(t, listTempFiles(t, dir))
}

func TestSalvageable(t *testing.T) {
	dir := t.TempDir()

	assert.False(t, salvageable(filepath.Join(dir, "missing")))
	assert.False(t, salvageable(writeNotebook(t, dir, "empty", "", 0600)))
	assert.False(t, salvageable(writeNotebook(t, dir, "garbage", "not json", 0600)))
	assert.False(t, salvageable(writeNotebook(t, dir, "fresh", freshNotebook, 0600)))
	assert.True(t, salvageable(writeNotebook(t, dir, "partial", partialNotebook, 0600)))
	assert.True(t, salvageable(writeNotebook(t, dir, "done", executedNotebook, 0600)))
}

package notebook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
  "cells": [
    {"cell_type": "markdown", "metadata": {}, "source": "# title"},
    {"cell_type": "code", "execution_count": 1, "metadata": {}, "outputs": [{"output_type": "stream", "name": "stdout", "text": "hi"}], "source": "print('hi')"},
    {"cell_type": "code", "execution_count": null, "metadata": {}, "outputs": [], "source": "x = 1"}
  ],
  "metadata": {"kernelspec": {"name": "python3"}},
  "nbformat": 4,
  "nbformat_minor": 5
}`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleNotebook))
	require.NoError(t, err)
	assert.Len(t, doc.Cells, 3)
	assert.Equal(t, 4, doc.NBFormat)
	assert.Equal(t, 2, doc.CodeCellCount())
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"cells": [`))
	assert.Error(t, err)
}

func TestParseRejectsMissingStructure(t *testing.T) {
	// 合法JSON但不是笔记本
	_, err := Parse([]byte(`{"foo": "bar"}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"cells": []}`))
	assert.Error(t, err, "missing metadata")

	_, err = Parse([]byte(`{"metadata": {}}`))
	assert.Error(t, err, "missing cells")
}

func TestCellExecuted(t *testing.T) {
	one := 1
	zero := 0

	assert.True(t, (&Cell{ExecutionCount: &one}).Executed())
	assert.False(t, (&Cell{ExecutionCount: &zero}).Executed())
	assert.False(t, (&Cell{}).Executed())
	assert.True(t, (&Cell{Outputs: []json.RawMessage{json.RawMessage(`{}`)}}).Executed())
}

func TestFirstCellExecutedSkipsMarkdown(t *testing.T) {
	doc, err := Parse([]byte(sampleNotebook))
	require.NoError(t, err)
	// 首个cell是markdown，看首个代码cell
	assert.True(t, doc.FirstCellExecuted())
}

func TestLastCodeCellExecuted(t *testing.T) {
	doc, err := Parse([]byte(sampleNotebook))
	require.NoError(t, err)
	// 最后一个代码cell未执行
	assert.False(t, doc.LastCodeCellExecuted())
	assert.True(t, doc.HasExecutedCells())
}

func TestNoCodeCells(t *testing.T) {
	doc, err := Parse([]byte(`{"cells": [{"cell_type": "markdown", "metadata": {}, "source": "x"}], "metadata": {}, "nbformat": 4, "nbformat_minor": 5}`))
	require.NoError(t, err)
	assert.Equal(t, 0, doc.CodeCellCount())
	assert.False(t, doc.FirstCellExecuted())
	assert.False(t, doc.LastCodeCellExecuted())
	assert.False(t, doc.HasExecutedCells())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nb.ipynb")
	require.NoError(t, os.WriteFile(path, []byte(sampleNotebook), 0644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Cells, 3)

	_, err = Load(filepath.Join(dir, "missing.ipynb"))
	assert.Error(t, err)
}

package schedule

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/notebooks/runner/internal/models"
	"github.com/notebooks/runner/internal/orm"
	"github.com/notebooks/runner/internal/runner"
	"github.com/notebooks/runner/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

func init() {
	idgen.SetIdGenerator(idgen.NewIdGeneratorOptions(3))
}

const executedNotebook = `{
  "cells": [
    {"cell_type": "code", "execution_count": 1, "metadata": {}, "outputs": [{"output_type": "stream", "name": "stdout", "text": "a"}], "source": "print('a')"}
  ],
  "metadata": {"kernelspec": {"name": "python3"}},
  "nbformat": 4,
  "nbformat_minor": 5
}`

type copyExecutor struct{}

func (copyExecutor) Execute(ctx context.Context, inputPath, outputPath string, parameters map[string]any, kernel string) error {
	return os.WriteFile(outputPath, []byte(executedNotebook), 0600)
}

func TestSchedulerTriggersExecution(t *testing.T) {
	storage, err := orm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	defer storage.Close()

	homeRoot := t.TempDir()
	userHome := filepath.Join(homeRoot, "alice")
	require.NoError(t, os.MkdirAll(userHome, 0755))
	input := filepath.Join(userHome, "nightly.ipynb")
	require.NoError(t, os.WriteFile(input, []byte(executedNotebook), 0644))

	cfg := config.RunnerConfig{
		MaxWorkers:   1,
		QueueSize:    4,
		AsyncWait:    time.Second,
		PollInterval: 10 * time.Millisecond,
		HomeRoot:     homeRoot,
	}
	nbRunner := runner.New(cfg, storage, copyExecutor{}, zap.NewNop())
	nbRunner.Start()
	defer nbRunner.Stop()

	sched := models.Schedule{
		InputPath:      input,
		CronExpression: "@every 100ms",
		Username:       "alice",
		Enabled:        true,
	}
	require.NoError(t, storage.DB().Create(&sched).Error)

	// 停用的计划不应被触发
	disabled := models.Schedule{
		InputPath:      input,
		CronExpression: "@every 100ms",
		Username:       "alice",
		Enabled:        false,
	}
	require.NoError(t, storage.DB().Create(&disabled).Error)

	s := New(storage, nbRunner, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()

	// cron触发后留下执行记录
	require.Eventually(t, func() bool {
		var count int64
		storage.DB().Model(&models.NotebookExecution{}).
			Where("status = ?", models.ExecutionStatusSuccess).
			Count(&count)
		return count >= 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestReloadDropsRemovedSchedules(t *testing.T) {
	storage, err := orm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	defer storage.Close()

	cfg := config.RunnerConfig{MaxWorkers: 1, HomeRoot: t.TempDir()}
	nbRunner := runner.New(cfg, storage, copyExecutor{}, zap.NewNop())

	sched := models.Schedule{
		InputPath:      "/home/alice/nb.ipynb",
		CronExpression: "0 6 * * *",
		Username:       "alice",
		Enabled:        true,
	}
	require.NoError(t, storage.DB().Create(&sched).Error)

	s := New(storage, nbRunner, zap.NewNop())
	require.NoError(t, s.Reload())
	assert.Len(t, s.cron.Entries(), 1)

	require.NoError(t, storage.DB().Delete(&sched).Error)
	require.NoError(t, s.Reload())
	assert.Empty(t, s.cron.Entries())
}

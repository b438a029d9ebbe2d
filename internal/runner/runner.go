package runner

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/wire"
	"github.com/notebooks/runner/internal/models"
	"github.com/notebooks/runner/internal/orm"
	"github.com/notebooks/runner/pkg/config"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(New)

// Runner 笔记本执行编排器。
//
// 有界worker池执行原子替换操作，执行记录的状态迁移
// (pending → running → success/failed)单调且只由负责该次
// 执行的worker写入。不同记录之间没有互斥，同一路径的并发
// 执行不做阻止（最后一次原子rename生效）。
type Runner struct {
	storage *orm.Storage
	exec    Executor
	logger  *zap.Logger
	cfg     config.RunnerConfig

	jobCh  chan *runJob
	stopCh chan struct{}
	wg     sync.WaitGroup
}

type runJob struct {
	record     *models.NotebookExecution
	tmpPath    string
	parameters map[string]any
}

// ExecuteRequest 一次执行提交
type ExecuteRequest struct {
	InputPath  string
	Parameters map[string]any
	Username   string
}

// AsyncResult 异步提交的即时应答，完整结果需轮询执行记录
type AsyncResult struct {
	ExecutionID uint64
	Started     bool
	Message     string
}

// SyncResult 同步执行的完整结果
type SyncResult struct {
	ExecutionID    uint64
	Success        bool
	PartialOutput  bool
	ErrorDetail    string
	ElapsedSeconds int
}

// New 创建执行编排器
func New(cfg config.RunnerConfig, storage *orm.Storage, exec Executor, logger *zap.Logger) *Runner {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = cfg.MaxWorkers * 2
	}
	return &Runner{
		storage: storage,
		exec:    exec,
		logger:  logger,
		cfg:     cfg,
		jobCh:   make(chan *runJob, queueSize),
		stopCh:  make(chan struct{}),
	}
}

// Start 启动worker池
func (r *Runner) Start() {
	for i := 0; i < r.cfg.MaxWorkers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("notebook runner started",
		zap.Int("workers", r.cfg.MaxWorkers))
}

// Stop 停止worker池，等待进行中的执行结束。
// 仍在队列中未被worker取走的任务标记为失败并清理临时文件，
// 不留下永远pending的记录。
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.drain()
	r.logger.Info("notebook runner stopped")
}

func (r *Runner) drain() {
	for {
		select {
		case job := <-r.jobCh:
			os.Remove(job.tmpPath)
			job.record.MarkFailed("runner stopped before execution", false)
			r.saveRecord(context.Background(), job.record)
			r.logger.Warn("queued execution dropped on shutdown",
				zap.Uint64("execution_id", job.record.ID))
		default:
			return
		}
	}
}

// SubmitAsync 异步执行: 创建记录并投递到worker池后，在调用方请求
// 线程上轮询临时文件，等待首个cell完成或超时，随即返回。后台worker
// 独立推进记录到终止状态，与调用方无进一步交互。
func (r *Runner) SubmitAsync(ctx context.Context, req ExecuteRequest) (*AsyncResult, error) {
	record, tmpPath, err := r.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	job := &runJob{record: record, tmpPath: tmpPath, parameters: req.Parameters}
	select {
	case r.jobCh <- job:
		r.logger.Debug("execution submitted",
			zap.Uint64("execution_id", record.ID),
			zap.String("input", record.InputPath))
	default:
		r.logger.Warn("execution queue is full, rejecting submission",
			zap.Uint64("execution_id", record.ID))
		os.Remove(tmpPath)
		record.MarkFailed(ErrQueueFull.Error(), false)
		r.saveRecord(context.Background(), record)
		return nil, ErrQueueFull
	}

	started := WaitForProgress(ctx, tmpPath, ProgressFirstCell, r.cfg.AsyncWait, r.cfg.PollInterval)
	message := "execution started, not yet confirmed"
	if started {
		message = "execution started, first cell completed"
	}
	return &AsyncResult{
		ExecutionID: record.ID,
		Started:     started,
		Message:     message,
	}, nil
}

// SubmitSync 同步执行: 在调用方线程上内联运行到完成，同一应答中
// 返回完整结果，无需轮询。
func (r *Runner) SubmitSync(ctx context.Context, req ExecuteRequest) (*SyncResult, error) {
	record, tmpPath, err := r.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	partial, runErr := r.run(ctx, record, tmpPath, req.Parameters)

	result := &SyncResult{
		ExecutionID:   record.ID,
		Success:       runErr == nil,
		PartialOutput: partial,
	}
	if runErr != nil {
		result.ErrorDetail = errorDetail(runErr)
	}
	if record.ExecutionTimeSeconds != nil {
		result.ElapsedSeconds = *record.ExecutionTimeSeconds
	}
	return result, nil
}

// SubmitScheduled 由cron计划触发的执行: 创建记录并投递，不等待进度
func (r *Runner) SubmitScheduled(sched *models.Schedule) {
	ctx := context.Background()
	record, tmpPath, err := r.prepare(ctx, ExecuteRequest{
		InputPath:  sched.InputPath,
		Parameters: sched.Parameters,
		Username:   sched.Username,
	})
	if err != nil {
		r.logger.Error("failed to prepare scheduled execution",
			zap.Uint64("schedule_id", sched.ID),
			zap.String("input", sched.InputPath),
			zap.Error(err))
		return
	}

	job := &runJob{record: record, tmpPath: tmpPath, parameters: sched.Parameters}
	select {
	case r.jobCh <- job:
	default:
		r.logger.Warn("execution queue is full, dropping scheduled execution",
			zap.Uint64("execution_id", record.ID))
		os.Remove(tmpPath)
		record.MarkFailed(ErrQueueFull.Error(), false)
		r.saveRecord(ctx, record)
	}
}

// prepare 路径校验、参数校验、临时文件创建和pending记录落库。
// 校验失败在记录创建之前发生，不留下执行记录。
func (r *Runner) prepare(ctx context.Context, req ExecuteRequest) (*models.NotebookExecution, string, error) {
	if err := ValidatePath(req.InputPath, req.Username, r.cfg.HomeRoot); err != nil {
		return nil, "", err
	}

	username := req.Username
	if username == "" {
		username = InferUsername(req.InputPath, r.cfg.HomeRoot)
	}

	// 路径若对应已注册的笔记本，关联记录并按参数定义校验
	var notebookID *uint64
	var nb models.Notebook
	err := r.storage.DB().WithContext(ctx).
		Preload("Parameters").
		Where("file_path = ?", req.InputPath).
		First(&nb).Error
	switch {
	case err == nil:
		notebookID = &nb.ID
		if err := ValidateParameters(nb.Parameters, req.Parameters); err != nil {
			return nil, "", err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 未注册的笔记本也允许执行
	default:
		return nil, "", err
	}

	tmpPath, err := createTemp(req.InputPath)
	if err != nil {
		return nil, "", err
	}

	record := &models.NotebookExecution{
		ID:             uint64(idgen.NextId()),
		NotebookID:     notebookID,
		Username:       username,
		InputPath:      req.InputPath,
		OutputPath:     &tmpPath,
		ParametersUsed: snapshotParameters(req.Parameters),
		Status:         models.ExecutionStatusPending,
		StartedAt:      time.Now(),
	}
	if err := r.storage.DB().WithContext(ctx).Create(record).Error; err != nil {
		os.Remove(tmpPath)
		return nil, "", err
	}
	return record, tmpPath, nil
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("worker started", zap.Int("worker_id", id))

	for {
		select {
		case job := <-r.jobCh:
			r.execute(job)
		case <-r.stopCh:
			r.logger.Debug("worker stopped", zap.Int("worker_id", id))
			return
		}
	}
}

func (r *Runner) execute(job *runJob) {
	// 执行不支持中途取消，一旦投递就运行到成功或失败
	r.run(context.Background(), job.record, job.tmpPath, job.parameters)
}

// run 推进一条记录走完 running → 终止状态
func (r *Runner) run(ctx context.Context, record *models.NotebookExecution, tmpPath string, parameters map[string]any) (bool, error) {
	record.MarkRunning()
	r.saveRecord(ctx, record)

	r.logger.Info("executing notebook",
		zap.Uint64("execution_id", record.ID),
		zap.String("input", record.InputPath),
		zap.String("username", record.Username))

	partial, err := runInPlace(ctx, r.exec, record.InputPath, tmpPath, parameters, r.cfg.Kernel)
	if err != nil {
		record.MarkFailed(errorDetail(err), partial)
		r.saveRecord(ctx, record)
		r.logger.Error("notebook execution failed",
			zap.Uint64("execution_id", record.ID),
			zap.Bool("partial_output", partial),
			zap.Error(err))
		return partial, err
	}

	record.MarkSuccess(record.InputPath)
	r.saveRecord(ctx, record)
	r.logger.Info("notebook execution succeeded",
		zap.Uint64("execution_id", record.ID),
		zap.Intp("elapsed_seconds", record.ExecutionTimeSeconds))
	return false, nil
}

func (r *Runner) saveRecord(ctx context.Context, record *models.NotebookExecution) {
	if err := r.storage.DB().WithContext(ctx).Save(record).Error; err != nil {
		r.logger.Error("failed to update execution record",
			zap.Uint64("execution_id", record.ID),
			zap.Error(err))
	}
}

// errorDetail 提取面向调用方的错误详情，执行工具的输出原样保留
func errorDetail(err error) string {
	var ee *ExecutionError
	if errors.As(err, &ee) && err.Error() == ee.Error() {
		return ee.Detail
	}
	return err.Error()
}

package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrNotebookNotFound 文档不存在或不是普通文件
	ErrNotebookNotFound = errors.New("notebook not found")
	// ErrForbiddenPath 路径在用户home目录之外
	ErrForbiddenPath = errors.New("input path is not inside the user's home directory")
	// ErrQueueFull 执行队列已满
	ErrQueueFull = errors.New("execution queue is full")
	// ErrInvalidParameters 参数校验失败
	ErrInvalidParameters = errors.New("invalid parameters")
)

// ExecutionError 执行工具返回的错误，Detail原样保留给调用方
type ExecutionError struct {
	Detail string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("notebook execution failed: %s", e.Detail)
}

// FilesystemError chown/chmod/rename等文件系统操作失败。
// 若执行工具先行失败，执行错误优先上报，文件系统错误附加在详情中。
type FilesystemError struct {
	Op  string
	Err error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem operation %s failed: %v", e.Op, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

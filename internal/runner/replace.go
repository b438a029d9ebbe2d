package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/notebooks/runner/internal/notebook"
)

// fileIdentity 输入文件执行前的属主和权限位
type fileIdentity struct {
	uid  int
	gid  int
	mode os.FileMode
}

func captureIdentity(path string) (fileIdentity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileIdentity{}, &FilesystemError{Op: "stat", Err: err}
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileIdentity{}, &FilesystemError{Op: "stat", Err: fmt.Errorf("no stat_t for %s", path)}
	}
	return fileIdentity{
		uid:  int(st.Uid),
		gid:  int(st.Gid),
		mode: info.Mode().Perm(),
	}, nil
}

func applyIdentity(path string, id fileIdentity) error {
	if err := os.Chown(path, id.uid, id.gid); err != nil {
		return &FilesystemError{Op: "chown", Err: err}
	}
	if err := os.Chmod(path, id.mode); err != nil {
		return &FilesystemError{Op: "chmod", Err: err}
	}
	return nil
}

// createTemp 在输入文件所在目录创建空临时文件。
// 同目录保证临时文件与原文件在同一文件系统上，rename才是原子的。
func createTemp(inputPath string) (string, error) {
	dir := filepath.Dir(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ".ipynb")
	f, err := os.CreateTemp(dir, "."+base+".*.ipynb")
	if err != nil {
		return "", &FilesystemError{Op: "mkstemp", Err: err}
	}
	tmpPath := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &FilesystemError{Op: "close", Err: err}
	}
	return tmpPath, nil
}

// runInPlace 将inputPath执行到tmpPath，成功后原子替换原文件。
//
// 属主和权限位在执行前记录、替换前回写，外部观察到的文件身份不变。
// 执行失败时检查tmpPath: 若其中已有至少一个cell的执行结果，仍替换
// 原文件（调用方可以从文档本身看到执行进度和捕获的错误），并照常
// 上报执行错误; 否则丢弃临时文件，原文件保持原样。
// 任何路径下临时文件都不会残留。
func runInPlace(ctx context.Context, exec Executor, inputPath, tmpPath string, parameters map[string]any, kernel string) (partial bool, err error) {
	defer func() {
		// 兜底清理: rename成功后该路径已不存在，remove为no-op
		if _, statErr := os.Lstat(tmpPath); statErr == nil {
			os.Remove(tmpPath)
		}
	}()

	identity, err := captureIdentity(inputPath)
	if err != nil {
		return false, err
	}

	execErr := exec.Execute(ctx, inputPath, tmpPath, parameters, kernel)
	if execErr == nil {
		if err := applyIdentity(tmpPath, identity); err != nil {
			return false, err
		}
		if err := os.Rename(tmpPath, inputPath); err != nil {
			return false, &FilesystemError{Op: "rename", Err: err}
		}
		return false, nil
	}

	// 执行失败: 检查临时文件是否包含可保留的部分结果
	if salvageable(tmpPath) {
		if err := applyIdentity(tmpPath, identity); err != nil {
			// 执行错误优先上报，文件系统错误附加说明
			return false, fmt.Errorf("%w (partial output discarded: %v)", execErr, err)
		}
		if err := os.Rename(tmpPath, inputPath); err != nil {
			return false, fmt.Errorf("%w (partial output discarded: %v)", execErr, err)
		}
		return true, execErr
	}

	return false, execErr
}

// salvageable 判断失败执行留下的临时文件是否值得保留:
// 非空、可解析为笔记本、且至少一个cell有执行痕迹。
func salvageable(tmpPath string) bool {
	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		return false
	}
	doc, err := notebook.Load(tmpPath)
	if err != nil {
		return false
	}
	return doc.HasExecutedCells()
}

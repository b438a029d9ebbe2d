package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath 校验待执行文档路径。
//
// 路径必须存在且为普通文件。给定username时，路径和用户home目录
// 都先做规范化(解析符号链接与..)，再要求规范化后的路径位于home
// 目录之内，防止穿越home边界。
func ValidatePath(path, username, homeRoot string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotebookNotFound, path)
	}

	if username == "" {
		return nil
	}

	userHome, err := canonicalize(filepath.Join(homeRoot, username))
	if err != nil {
		return fmt.Errorf("%w: no home directory for %s", ErrForbiddenPath, username)
	}
	realInput, err := canonicalize(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotebookNotFound, path)
	}
	if !insideDir(realInput, userHome) {
		return fmt.Errorf("%w: %s", ErrForbiddenPath, path)
	}
	return nil
}

// ValidateDestDir 校验目标目录位于用户home内（模板落盘使用）
func ValidateDestDir(dir, username, homeRoot string) error {
	userHome, err := canonicalize(filepath.Join(homeRoot, username))
	if err != nil {
		return fmt.Errorf("%w: no home directory for %s", ErrForbiddenPath, username)
	}
	realDir, err := canonicalize(dir)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenPath, dir)
	}
	if !insideDir(realDir, userHome) {
		return fmt.Errorf("%w: %s", ErrForbiddenPath, dir)
	}
	return nil
}

// canonicalize 先转绝对路径再解析符号链接，
// EvalSymlinks对相对路径返回相对结果，不能直接做前缀比较
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func insideDir(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(os.PathSeparator))
}

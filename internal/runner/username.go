package runner

import (
	"path/filepath"
	"strings"
)

// UnknownUsername 无法从路径推断用户名时记录的哨兵值
const UnknownUsername = "unknown"

// InferUsername 从路径中尽力推断用户名: 取home根目录标记之后的
// 路径段。推断失败返回哨兵值，从不阻断执行，只影响记录的信息字段。
// 这是启发式的元数据，不是安全边界（安全边界是ValidatePath）。
func InferUsername(path, homeRoot string) string {
	root := filepath.Clean(homeRoot)
	cleaned := filepath.Clean(path)

	rel, err := filepath.Rel(root, cleaned)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return UnknownUsername
	}
	segments := strings.Split(rel, string(filepath.Separator))
	if len(segments) < 2 || segments[0] == "" {
		// 路径直接落在home根下，没有用户段
		return UnknownUsername
	}
	return segments[0]
}

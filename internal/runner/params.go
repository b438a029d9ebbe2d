package runner

import (
	"fmt"

	"github.com/notebooks/runner/internal/models"
	"github.com/spf13/cast"
)

// snapshotParameters 提交时拷贝参数集，调用方之后对map的修改
// 不影响已创建的执行记录
func snapshotParameters(parameters map[string]any) models.JSONMap {
	snapshot := make(models.JSONMap, len(parameters))
	for k, v := range parameters {
		snapshot[k] = v
	}
	return snapshot
}

// ValidateParameters 按注册的参数定义校验调用方提交的参数:
// required参数必须提供（有默认值的除外），validation_rules支持
// min/max（数值）与options（枚举）。
func ValidateParameters(defs []models.NotebookParameter, parameters map[string]any) error {
	for i := range defs {
		def := &defs[i]
		value, supplied := parameters[def.ParamName]
		if !supplied {
			if def.Required && len(def.DefaultValue) == 0 {
				return fmt.Errorf("%w: missing required parameter %q", ErrInvalidParameters, def.ParamName)
			}
			continue
		}
		if err := checkRules(def, value); err != nil {
			return err
		}
	}
	return nil
}

func checkRules(def *models.NotebookParameter, value any) error {
	rules := def.ValidationRules
	if len(rules) == 0 {
		return nil
	}

	if minVal, ok := rules["min"]; ok {
		v, err := cast.ToFloat64E(value)
		if err != nil {
			return fmt.Errorf("%w: parameter %q is not numeric", ErrInvalidParameters, def.ParamName)
		}
		if v < cast.ToFloat64(minVal) {
			return fmt.Errorf("%w: parameter %q below minimum %v", ErrInvalidParameters, def.ParamName, minVal)
		}
	}
	if maxVal, ok := rules["max"]; ok {
		v, err := cast.ToFloat64E(value)
		if err != nil {
			return fmt.Errorf("%w: parameter %q is not numeric", ErrInvalidParameters, def.ParamName)
		}
		if v > cast.ToFloat64(maxVal) {
			return fmt.Errorf("%w: parameter %q above maximum %v", ErrInvalidParameters, def.ParamName, maxVal)
		}
	}
	if options, ok := rules["options"]; ok {
		allowed := cast.ToSlice(options)
		match := false
		for _, opt := range allowed {
			if cast.ToString(opt) == cast.ToString(value) {
				match = true
				break
			}
		}
		if !match {
			return fmt.Errorf("%w: parameter %q not in allowed options", ErrInvalidParameters, def.ParamName)
		}
	}
	return nil
}

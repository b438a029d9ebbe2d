package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "pending"
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// IsTerminal 判断是否为终止状态
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusFailed
}

type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeInteger ParamType = "integer"
	ParamTypeFloat   ParamType = "float"
	ParamTypeBoolean ParamType = "boolean"
	ParamTypeJSON    ParamType = "json"
)

type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported column type %T for JSONMap", value)
	}
}

// JSONValue 保存任意JSON标量或结构（参数默认值）
type JSONValue json.RawMessage

func (v JSONValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return []byte(v), nil
}

func (v *JSONValue) Scan(value any) error {
	if value == nil {
		*v = nil
		return nil
	}
	switch b := value.(type) {
	case []byte:
		*v = append((*v)[:0], b...)
		return nil
	case string:
		*v = JSONValue(b)
		return nil
	default:
		return fmt.Errorf("unsupported column type %T for JSONValue", value)
	}
}

func (v JSONValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

func (v *JSONValue) UnmarshalJSON(data []byte) error {
	*v = append((*v)[:0], data...)
	return nil
}

type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported column type %T for StringList", value)
	}
}

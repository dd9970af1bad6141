package graph

import (
	"errors"
	"fmt"
)

// InputError 输入描述不合法（缺少名称、悬空的列/类引用等）
type InputError struct {
	Entity string // 出错的表名或类名
	Field  string // 出错的字段，可为空
	Reason string
}

// NewInputError 创建输入错误
func NewInputError(entity, field, format string, args ...interface{}) *InputError {
	return &InputError{
		Entity: entity,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *InputError) Error() string {
	switch {
	case e.Entity == "" && e.Field == "":
		return "invalid input: " + e.Reason
	case e.Field == "":
		return fmt.Sprintf("invalid input %q: %s", e.Entity, e.Reason)
	default:
		return fmt.Sprintf("invalid input %q.%s: %s", e.Entity, e.Field, e.Reason)
	}
}

// IsInputError 判断 err 链中是否有 InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

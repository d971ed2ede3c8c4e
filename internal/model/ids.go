package model

import "github.com/google/uuid"

// IsUUID 校验 8-4-4-4-12 标准形式的UUID。
// uuid.Parse 还接受 urn:/花括号/无连字符变体，数据源只使用标准形式，先按长度拦截。
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

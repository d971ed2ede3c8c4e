package model

import "errors"

// 核心错误分类。调用方统一用 errors.Is 判断，错误现场用 fmt.Errorf("...: %w") 附加。
var (
	// ErrInvalidID 标识符不是合法UUID
	ErrInvalidID = errors.New("invalid identifier")

	// ErrNotFound 刷新映射后标识符仍未绑定
	ErrNotFound = errors.New("identifier not found")

	// ErrInvalidResponse 上游响应缺少有效载荷
	ErrInvalidResponse = errors.New("invalid upstream response")

	// ErrDuplicateBinding 标识符重复绑定（进程内绑定不可变）
	ErrDuplicateBinding = errors.New("duplicate identifier binding")

	// ErrInvalidEntry 映射条目的id或名称为空
	ErrInvalidEntry = errors.New("invalid mapping entry")

	// ErrNoEntries 映射载荷解析后无任何有效条目
	ErrNoEntries = errors.New("no mapping entries")

	// ErrInvalidRecord 快照记录不符合行文法
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidMatchID 快照行的首字段不是合法比赛ID
	ErrInvalidMatchID = errors.New("invalid match id")

	// ErrFetchFailed 上游请求失败（非2xx或传输错误）
	ErrFetchFailed = errors.New("fetch failed")

	// ErrTimeout 上游请求超时
	ErrTimeout = errors.New("fetch timed out")

	// ErrNotInitialized 在解析之前请求渲染
	ErrNotInitialized = errors.New("not initialized")
)

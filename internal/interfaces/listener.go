package interfaces

import "context"

// ChangeListener 端点内容变化监听器。
// 轮询器在响应体变化时按注册顺序依次调用；返回错误将使本轮轮询按失败处理。
type ChangeListener interface {
	OnChange(ctx context.Context, url string, payload string) error
}

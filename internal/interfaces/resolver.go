package interfaces

import "context"

// NameResolver 不透明标识符到名称的解析能力
type NameResolver interface {
	Resolve(ctx context.Context, id string) (string, error)
}

package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"MatchTracker/internal/model"

	"github.com/sirupsen/logrus"
)

// Resolver 标识符解析器：维护进程级 id→名称 缓存，未命中时拉取远端映射字典。
// 绑定一经建立在进程生命周期内不可变，任何重复绑定视为校验失败。
type Resolver struct {
	endpoint string
	client   *http.Client
	logger   *logrus.Logger

	// mu 同时保护缓存读写与上游刷新：并发未命中汇聚到同一次拉取，
	// 拉取完成后各自重查缓存。
	mu    sync.Mutex
	names map[string]string
}

// NewResolver 创建解析器
func NewResolver(endpoint string, client *http.Client, logger *logrus.Logger) *Resolver {
	return &Resolver{
		endpoint: endpoint,
		client:   client,
		logger:   logger,
		names:    make(map[string]string),
	}
}

// Resolve 解析单个标识符。命中缓存直接返回（无IO）；
// 未命中先刷新一次映射字典再重查，仍未命中返回 ErrNotFound。
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	if !model.IsUUID(id) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.names[id]; ok {
		return name, nil
	}
	if err := r.refreshLocked(ctx); err != nil {
		return "", err
	}
	if name, ok := r.names[id]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrNotFound, id)
}

// Size 当前已缓存的绑定数量
func (r *Resolver) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

// refreshLocked 拉取映射字典并合并进缓存。调用方必须持有 r.mu。
// 整个载荷校验通过后才合并，保证缓存不会吸收半个响应。
func (r *Resolver) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrFetchFailed, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: 映射接口返回 %d", model.ErrFetchFailed, resp.StatusCode)
	}

	var payload model.MappingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidResponse, err)
	}
	if payload.Mappings == "" {
		return fmt.Errorf("%w: mappings 字段缺失或为空", model.ErrInvalidResponse)
	}

	staged, err := r.parseEntries(payload.Mappings)
	if err != nil {
		return err
	}

	for id, name := range staged {
		r.names[id] = name
	}
	r.logger.Debugf("Resolver: 映射刷新完成，新增 %d 条，总计 %d 条", len(staged), len(r.names))
	return nil
}

// parseEntries 解析 "id:name;id:name;..." 载荷。空段跳过；
// 同一次拉取内部重复或与已有缓存重复（即使名称相同）都按 ErrDuplicateBinding 拒绝。
func (r *Resolver) parseEntries(raw string) (map[string]string, error) {
	staged := make(map[string]string)
	for _, segment := range strings.Split(raw, ";") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		parts := strings.SplitN(segment, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidEntry, segment)
		}
		id := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		if id == "" || name == "" {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidEntry, segment)
		}
		if !model.IsUUID(id) {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidID, id)
		}
		if _, ok := r.names[id]; ok {
			return nil, fmt.Errorf("%w: %q", model.ErrDuplicateBinding, id)
		}
		if _, ok := staged[id]; ok {
			return nil, fmt.Errorf("%w: %q", model.ErrDuplicateBinding, id)
		}
		staged[id] = name
	}
	if len(staged) == 0 {
		return nil, model.ErrNoEntries
	}
	return staged, nil
}

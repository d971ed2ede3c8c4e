package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"MatchTracker/internal/interfaces"
	"MatchTracker/internal/model"
	"MatchTracker/internal/parser"

	"github.com/sirupsen/logrus"
)

// LiveStateService 实时状态投影：每次快照整体重建 PRE/LIVE 比赛视图并原子替换。
// 快照中途失败保留旧视图，错误上抛给轮询器按失败轮处理。
type LiveStateService struct {
	parser *parser.Parser
	logger *logrus.Logger

	mu   sync.RWMutex
	view map[string]*model.MappedMatch
}

// NewLiveStateService 创建实时状态投影服务
func NewLiveStateService(p *parser.Parser, logger *logrus.Logger) *LiveStateService {
	return &LiveStateService{
		parser: p,
		logger: logger,
		view:   make(map[string]*model.MappedMatch),
	}
}

var _ interfaces.ChangeListener = (*LiveStateService)(nil)

// OnChange 实现 ChangeListener：解析快照并重建视图
func (s *LiveStateService) OnChange(ctx context.Context, url string, payload string) error {
	var resp model.OddsResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return fmt.Errorf("%w: 快照载荷解析失败: %v", model.ErrInvalidResponse, err)
	}

	fresh := make(map[string]*model.MappedMatch)
	for _, line := range strings.Split(resp.Odds, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := s.parser.Parse(ctx, line)
		if err != nil {
			// 整个快照按失败处理，旧视图保持不变
			return err
		}
		if m.Status.IsActive() {
			fresh[m.ID] = m
		}
	}

	s.mu.Lock()
	s.view = fresh
	s.mu.Unlock()
	s.logger.Debugf("LiveState: 视图已更新，%d 场活跃比赛", len(fresh))
	return nil
}

// Current 当前视图的浅拷贝，调用方不会影响内部状态
func (s *LiveStateService) Current() map[string]*model.MappedMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*model.MappedMatch, len(s.view))
	for id, m := range s.view {
		out[id] = m
	}
	return out
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MatchTracker/internal/interfaces"
	"MatchTracker/internal/model"
	"MatchTracker/internal/parser"

	"github.com/sirupsen/logrus"
)

// HistoryService 历史服务：对每场比赛做去重追加，维护状态索引，
// 并为从数据源消失的LIVE比赛合成REMOVED终态条目。
// 存取委托给 HistoryRepository，便于替换持久化后端。
type HistoryService struct {
	repo   interfaces.HistoryRepository
	parser *parser.Parser
	logger *logrus.Logger
	nowMS  func() int64
}

// NewHistoryService 创建历史服务
func NewHistoryService(repo interfaces.HistoryRepository, p *parser.Parser, logger *logrus.Logger) *HistoryService {
	return &HistoryService{
		repo:   repo,
		parser: p,
		logger: logger,
		nowMS:  func() int64 { return time.Now().UnixMilli() },
	}
}

var _ interfaces.ChangeListener = (*HistoryService)(nil)

// OnChange 实现 ChangeListener：逐行吸收快照，再做REMOVED扫描。
// 任一行首字段不是UUID立即中止（不回滚已吸收的前序行，去重规则保证后续完整快照收敛）。
func (s *HistoryService) OnChange(ctx context.Context, url string, payload string) error {
	var resp model.OddsResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return fmt.Errorf("%w: 快照载荷解析失败: %v", model.ErrInvalidResponse, err)
	}

	seen := make(map[string]struct{})
	for _, line := range strings.Split(resp.Odds, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		matchID := line
		if idx := strings.Index(line, ","); idx >= 0 {
			matchID = line[:idx]
		}
		if !model.IsUUID(matchID) {
			return fmt.Errorf("%w: %q", model.ErrInvalidMatchID, matchID)
		}
		seen[matchID] = struct{}{}

		// 去重：与最近一条原始行逐字节相同则不追加
		if last, ok := s.repo.Last(matchID); ok && last.RawLine == line {
			continue
		}
		m, err := s.parser.Parse(ctx, line)
		if err != nil {
			return err
		}
		rendered, err := m.RenderJSON()
		if err != nil {
			return err
		}
		s.repo.Append(matchID, model.HistoryEntry{
			Timestamp: s.nowMS(),
			RawLine:   line,
			Rendered:  rendered,
			Status:    m.Status,
		})
	}

	return s.sweepRemoved(ctx, seen)
}

// sweepRemoved 为此前LIVE且未出现在本次快照中的比赛合成REMOVED条目。
// 仅LIVE消失触发合成，PRE消失不做处理。
func (s *HistoryService) sweepRemoved(ctx context.Context, seen map[string]struct{}) error {
	for _, id := range s.IDsWithStatus(model.StatusLive) {
		if _, ok := seen[id]; ok {
			continue
		}
		last, ok := s.repo.Last(id)
		if !ok {
			continue
		}
		m, err := s.parser.Parse(ctx, last.RawLine)
		if err != nil {
			return err
		}
		m.Status = model.StatusRemoved
		rendered, err := m.RenderJSON()
		if err != nil {
			return err
		}
		s.repo.Append(id, model.HistoryEntry{
			Timestamp: s.nowMS(),
			RawLine:   model.GeneratedRawLine,
			Rendered:  rendered,
			Status:    model.StatusRemoved,
		})
		s.logger.WithField("match_id", id).Info("History: 比赛从数据源消失，已合成REMOVED条目")
	}
	return nil
}

// Current 最近一条历史记录；未知比赛返回 false
func (s *HistoryService) Current(id string) (model.HistoryEntry, bool) {
	return s.repo.Last(id)
}

// History 全部历史记录（最旧在前）
func (s *HistoryService) History(id string) []model.HistoryEntry {
	return s.repo.History(id)
}

// AllIDs 所有已知比赛ID
func (s *HistoryService) AllIDs() []string {
	return s.repo.AllIDs()
}

// IDsWithStatus 当前（最近一条）状态等于 status 的比赛ID
func (s *HistoryService) IDsWithStatus(status model.MatchStatus) []string {
	var ids []string
	for _, id := range s.repo.AllIDs() {
		if last, ok := s.repo.Last(id); ok && last.Status == status {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clear 清空全部历史
func (s *HistoryService) Clear() {
	s.repo.Clear()
}

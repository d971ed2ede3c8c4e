package interfaces

import "MatchTracker/internal/model"

// HistoryRepository 历史存储后端。去重与REMOVED合成逻辑在其上层服务中，
// 便于后续替换为持久化实现。
type HistoryRepository interface {
	// Append 追加一条历史记录（同一比赛内按插入顺序）
	Append(id string, entry model.HistoryEntry)
	// Last 返回最近一条记录；未知比赛返回 false
	Last(id string) (model.HistoryEntry, bool)
	// History 返回全部记录（最旧在前）；未知比赛返回空切片
	History(id string) []model.HistoryEntry
	// AllIDs 返回所有已知比赛ID，顺序不保证
	AllIDs() []string
	// Clear 清空全部记录
	Clear()
}

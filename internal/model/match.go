package model

import (
	"encoding/json"
	"time"
)

// MatchStatus 比赛状态枚举（由映射字典解析得到）
type MatchStatus string

const (
	StatusPre     MatchStatus = "PRE"     // 未开赛
	StatusLive    MatchStatus = "LIVE"    // 进行中
	StatusRemoved MatchStatus = "REMOVED" // 已从数据源消失（合成状态）
)

// IsActive 判断是否为对外展示的活跃状态（PRE/LIVE）
func (s MatchStatus) IsActive() bool {
	return s == StatusPre || s == StatusLive
}

// Competitor 参赛方（主/客）
type Competitor struct {
	Type string `json:"type"` // HOME / AWAY
	Name string `json:"name"`
}

const (
	CompetitorHome = "HOME"
	CompetitorAway = "AWAY"
)

// PeriodScore 单个时段比分，Type 为时段名称（如 CURRENT、PERIOD_1）
type PeriodScore struct {
	Type string `json:"type"`
	Home int    `json:"home"`
	Away int    `json:"away"`
}

// MappedMatch 反规范化后的比赛视图：所有不透明ID已替换为名称
type MappedMatch struct {
	ID          string                 `json:"id"`
	Status      MatchStatus            `json:"status"`
	Sport       string                 `json:"sport"`
	Competition string                 `json:"competition"`
	StartTime   string                 `json:"startTime"` // UTC ISO-8601，毫秒精度
	Competitors map[string]Competitor  `json:"competitors"`
	Scores      map[string]PeriodScore `json:"scores"`
}

// startTimeLayout 毫秒精度 + Z 后缀
const startTimeLayout = "2006-01-02T15:04:05.000Z"

// FormatStartTime 毫秒时间戳转 UTC ISO-8601 字符串
func FormatStartTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(startTimeLayout)
}

// FormatTimestamp 历史条目时间戳的对外表示（与 StartTime 同格式）
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(startTimeLayout)
}

// Rendered 按ID键控的渲染形态，与 /state、/internalstate 合并视图中单场比赛的形态相同
// （两个处理器各自直接构建合并映射，不调用本方法）；顶层键恰好是比赛ID
func (m *MappedMatch) Rendered() map[string]*MappedMatch {
	return map[string]*MappedMatch{m.ID: m}
}

// RenderJSON 单场比赛的扁平JSON（两空格缩进，重复调用逐字节稳定）
func (m *MappedMatch) RenderJSON() (string, error) {
	if m == nil || m.ID == "" {
		return "", ErrNotInitialized
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

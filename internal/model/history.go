package model

// GeneratedRawLine 合成 REMOVED 条目的原始行占位符
const GeneratedRawLine = "(Generated)"

// HistoryEntry 单条历史记录。写入后不可变。
type HistoryEntry struct {
	Timestamp int64       // 写入时的墙钟毫秒
	RawLine   string      // 观测到的原始行；合成条目为 "(Generated)"
	Rendered  string      // 写入时刻的反规范化JSON
	Status    MatchStatus // 反规范化后的状态
}

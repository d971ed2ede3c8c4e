package api

import (
	"encoding/json"
	"net/http"

	"MatchTracker/internal/model"
	"MatchTracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StateHandler 对外查询接口：实时视图与历史记录的只读渲染层
type StateHandler struct {
	live    *service.LiveStateService
	history *service.HistoryService
	logger  *logrus.Logger
}

// NewStateHandler 创建 StateHandler
func NewStateHandler(live *service.LiveStateService, history *service.HistoryService, logger *logrus.Logger) *StateHandler {
	return &StateHandler{
		live:    live,
		history: history,
		logger:  logger,
	}
}

// historyItem 单条历史的对外形态
type historyItem struct {
	StateTimeStamp string          `json:"stateTimeStamp"`
	State          json.RawMessage `json:"state"`
}

// GetState 实时视图（仅PRE/LIVE）
// GET /state
func (h *StateHandler) GetState(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.live.Current())
}

// GetInternalState 合并所有比赛的当前历史条目（含REMOVED）为按ID键控的对象
// GET /internalstate
func (h *StateHandler) GetInternalState(c *gin.Context) {
	merged := make(map[string]json.RawMessage)
	for _, id := range h.history.AllIDs() {
		entry, ok := h.history.Current(id)
		if !ok {
			continue
		}
		merged[id] = json.RawMessage(entry.Rendered)
	}
	respondJSON(c, http.StatusOK, merged)
}

// GetMatchHistory 单场比赛的全部历史（插入顺序）
// GET /matchhistory/:id
func (h *StateHandler) GetMatchHistory(c *gin.Context) {
	id := c.Param("id")
	entries := h.history.History(id)
	if len(entries) == 0 {
		respondJSON(c, http.StatusNotFound, gin.H{"error": "no history for match " + id})
		return
	}

	items := make([]historyItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, historyItem{
			StateTimeStamp: model.FormatTimestamp(entry.Timestamp),
			State:          json.RawMessage(entry.Rendered),
		})
	}
	respondJSON(c, http.StatusOK, items)
}

// respondJSON 两空格缩进的稳定JSON输出
func respondJSON(c *gin.Context, code int, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Data(code, "application/json", data)
}

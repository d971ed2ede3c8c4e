package model

// OddsResponse 数据源快照响应：odds 为换行分隔的比赛记录
type OddsResponse struct {
	Odds string `json:"odds"`
}

// MappingsResponse 映射字典响应：mappings 为 "id:name;id:name;..." 形式
type MappingsResponse struct {
	Mappings string `json:"mappings"`
}

package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"MatchTracker/internal/interfaces"
	"MatchTracker/internal/model"
)

// 快照行字段位置
const (
	fieldMatchID     = 0
	fieldSportID     = 1
	fieldCompetition = 2
	fieldStartTime   = 3
	fieldHomeID      = 4
	fieldAwayID      = 5
	fieldStatusID    = 6
	fieldScores      = 7 // 可选
)

// Parser 快照记录解析器：按行文法校验并通过解析器反规范化为 MappedMatch。
// 本身无状态，不做状态过滤。
type Parser struct {
	resolver interfaces.NameResolver
}

// NewParser 创建解析器
func NewParser(resolver interfaces.NameResolver) *Parser {
	return &Parser{resolver: resolver}
}

// Parse 解析单行记录。文法违例返回 ErrInvalidRecord；
// 名称解析失败原样透传（ErrNotFound 等）。
func (p *Parser) Parse(ctx context.Context, line string) (*model.MappedMatch, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 7 && len(fields) != 8 {
		return nil, fmt.Errorf("%w: 字段数 %d，应为7或8", model.ErrInvalidRecord, len(fields))
	}
	for _, pos := range []int{fieldMatchID, fieldSportID, fieldCompetition, fieldHomeID, fieldAwayID, fieldStatusID} {
		if !model.IsUUID(fields[pos]) {
			return nil, fmt.Errorf("%w: 字段%d不是UUID: %q", model.ErrInvalidRecord, pos, fields[pos])
		}
	}
	startMS, err := strconv.ParseInt(fields[fieldStartTime], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: 开始时间 %q", model.ErrInvalidRecord, fields[fieldStartTime])
	}

	// 可选的时段比分：period_id@home:away 以 | 分隔
	type rawScore struct {
		periodID   string
		home, away int
	}
	var rawScores []rawScore
	if len(fields) == 8 && fields[fieldScores] != "" {
		for _, segment := range strings.Split(fields[fieldScores], "|") {
			parts := strings.Split(segment, "@")
			if len(parts) != 2 {
				return nil, fmt.Errorf("%w: 比分段 %q", model.ErrInvalidRecord, segment)
			}
			if !model.IsUUID(parts[0]) {
				return nil, fmt.Errorf("%w: 时段ID %q", model.ErrInvalidRecord, parts[0])
			}
			pair := strings.Split(parts[1], ":")
			if len(pair) != 2 {
				return nil, fmt.Errorf("%w: 比分 %q", model.ErrInvalidRecord, parts[1])
			}
			home, err := strconv.Atoi(pair[0])
			if err != nil {
				return nil, fmt.Errorf("%w: 主队比分 %q", model.ErrInvalidRecord, pair[0])
			}
			away, err := strconv.Atoi(pair[1])
			if err != nil {
				return nil, fmt.Errorf("%w: 客队比分 %q", model.ErrInvalidRecord, pair[1])
			}
			rawScores = append(rawScores, rawScore{periodID: parts[0], home: home, away: away})
		}
	}

	// 反规范化：逐个替换不透明ID为名称
	sport, err := p.resolver.Resolve(ctx, fields[fieldSportID])
	if err != nil {
		return nil, err
	}
	competition, err := p.resolver.Resolve(ctx, fields[fieldCompetition])
	if err != nil {
		return nil, err
	}
	status, err := p.resolver.Resolve(ctx, fields[fieldStatusID])
	if err != nil {
		return nil, err
	}
	home, err := p.resolver.Resolve(ctx, fields[fieldHomeID])
	if err != nil {
		return nil, err
	}
	away, err := p.resolver.Resolve(ctx, fields[fieldAwayID])
	if err != nil {
		return nil, err
	}

	scores := make(map[string]model.PeriodScore)
	for _, rs := range rawScores {
		period, err := p.resolver.Resolve(ctx, rs.periodID)
		if err != nil {
			return nil, err
		}
		scores[period] = model.PeriodScore{Type: period, Home: rs.home, Away: rs.away}
	}

	return &model.MappedMatch{
		ID:          fields[fieldMatchID],
		Status:      model.MatchStatus(status),
		Sport:       sport,
		Competition: competition,
		StartTime:   model.FormatStartTime(startMS),
		Competitors: map[string]model.Competitor{
			model.CompetitorHome: {Type: model.CompetitorHome, Name: home},
			model.CompetitorAway: {Type: model.CompetitorAway, Name: away},
		},
		Scores: scores,
	}, nil
}

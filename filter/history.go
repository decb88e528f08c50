package filter

import (
	"context"

	"github.com/rushteam/jembertrip/core"
)

// HistoryFilter 过滤掉用户点击历史中出现过的目的地（按 ID 匹配）。
type HistoryFilter struct{}

func NewHistoryFilter() *HistoryFilter { return &HistoryFilter{} }

func (f *HistoryFilter) Name() string {
	return "filter.history"
}

func (f *HistoryFilter) Excluded(_ context.Context, rctx *core.RecommendContext) (IDSet, error) {
	if rctx == nil {
		return IDSet{}, nil
	}
	return newIDSet(rctx.History), nil
}

func (f *HistoryFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	set, _ := f.Excluded(ctx, rctx)
	return set.Has(item.ID), nil
}

var _ ExclusionFilter = (*HistoryFilter)(nil)

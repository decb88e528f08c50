package filter

import (
	"context"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/logger"
)

// FilterNode 组合多个过滤器，任一命中即移除，输出保持输入顺序。
// 单个过滤器出错时记录日志并视为不过滤；ExclusionFilter 出错时只保留已拿到的部分集合。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

type preparedFilter struct {
	f   Filter
	set IDSet // 非 nil 时按集合判断
}

func (n *FilterNode) prepare(ctx context.Context, rctx *core.RecommendContext) []preparedFilter {
	out := make([]preparedFilter, 0, len(n.Filters))
	for _, f := range n.Filters {
		pf := preparedFilter{f: f}
		if ef, ok := f.(ExclusionFilter); ok {
			set, err := ef.Excluded(ctx, rctx)
			if err != nil {
				logger.Warn(ctx, "filter exclusion load failed", "filter", f.Name(), "error", err.Error())
			}
			if set == nil {
				set = IDSet{}
			}
			pf.set = set
		}
		out = append(out, pf)
	}
	return out
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	filters := n.prepare(ctx, rctx)
	out := make([]*core.Item, 0, len(items))
	filtered := make(map[string]int, len(filters))

	for _, item := range items {
		if item == nil {
			continue
		}

		reason := ""
		for _, pf := range filters {
			if pf.set != nil {
				if pf.set.Has(item.ID) {
					reason = pf.f.Name()
					break
				}
				continue
			}
			ok, err := pf.f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				logger.Warn(ctx, "filter failed", "filter", pf.f.Name(), "item_id", item.ID, "error", err.Error())
				continue
			}
			if ok {
				reason = pf.f.Name()
				break
			}
		}

		if reason != "" {
			filtered[reason]++
			continue
		}
		out = append(out, item)
	}

	if len(filtered) > 0 {
		logger.Debug(ctx, "items filtered", "in", len(items), "out", len(out), "by", filtered)
	}
	return out, nil
}

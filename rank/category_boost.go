// Package rank 提供排序节点：在召回分数之上做策略加权并重新排序。
package rank

import (
	"context"
	"sort"
	"strconv"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/conv"
	"github.com/rushteam/jembertrip/pkg/utils"
)

// DefaultBoostFactor 是兴趣类别的默认加分
const DefaultBoostFactor = 0.5

// CategoryBoostNode 给与用户兴趣类别相同的物品加固定分，然后按分数降序稳定排序。
//
//   - 兴趣类别读取 rctx Label（默认 "top_category"），缺失时只排序不加分
//   - Boost 可被 rctx.Params["boost_factor"] 覆盖
//   - 每个物品最多加分一次，命中的物品写入 label "boosted"
type CategoryBoostNode struct {
	Boost    float64
	LabelKey string
}

func (n *CategoryBoostNode) Name() string        { return "rank.category_boost" }
func (n *CategoryBoostNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *CategoryBoostNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "top_category"
	}
	boost := n.Boost
	if v, ok := rctx.GetParam("boost_factor"); ok {
		if f, ok := conv.ToFloat64(v); ok {
			boost = f
		}
	}

	var category string
	if rctx != nil {
		if lbl, ok := rctx.GetLabel(key); ok {
			category = lbl.Value
		}
	}

	if category != "" && boost != 0 {
		val := strconv.FormatFloat(boost, 'f', -1, 64)
		for _, it := range items {
			if it == nil || it.Category() != category {
				continue
			}
			if _, done := it.GetLabel("boosted"); done {
				continue
			}
			it.Score += boost
			it.PutLabel("boosted", utils.Label{Value: val, Source: "rank"})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

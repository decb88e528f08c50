// Package rerank 提供重排节点：截断与多样性调整。
package rerank

import (
	"context"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/conv"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.UserInterest{...},
//	        &rank.CategoryBoostNode{Boost: 0.5},
//	        &filter.FilterNode{...},
//	        &rerank.TopNNode{N: 9},
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量，可被 rctx.Params["top_n"] 覆盖
	// N <= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if v, ok := rctx.GetParam("top_n"); ok {
		if x, ok := conv.ToInt(v); ok {
			limit = x
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}

// Package filter 提供过滤节点：剔除已点击、下线或不满足规则的候选目的地。
package filter

import (
	"context"

	"github.com/rushteam/jembertrip/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	Name() string

	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// IDSet 是一次请求内需要排除的目的地 ID 集合。
type IDSet map[int64]struct{}

func newIDSet(groups ...[]int64) IDSet {
	set := make(IDSet)
	for _, ids := range groups {
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// ExclusionFilter 按 ID 排除目的地。FilterNode 每次请求只调用一次 Excluded，
// 之后对候选逐个查集合，避免每个 Item 都访问 Store。
type ExclusionFilter interface {
	Filter
	Excluded(ctx context.Context, rctx *core.RecommendContext) (IDSet, error)
}

// Package recall 提供候选生成节点：语义检索、兴趣召回、相似召回与冷启动采样。
//
// 所有召回源都同时实现 Source 与 pipeline.Node，可以单独调用，也可以编排进 Pipeline。
package recall

import (
	"context"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/utils"
)

// Source 表示一个可复用的召回源（语义/兴趣/相似/冷启动）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// Catalog 是召回所需的只读目的地目录，由 corpus.Corpus 实现。
type Catalog interface {
	ByID(id int64) (*core.Destination, bool)
	Items() []*core.Destination
}

// toItems 把向量检索结果回填为 Item，目录中不存在的 ID 被跳过。
func toItems(cat Catalog, hits []core.VectorSearchItem, source string) []*core.Item {
	out := make([]*core.Item, 0, len(hits))
	for _, h := range hits {
		d, ok := cat.ByID(h.ID)
		if !ok {
			continue
		}
		it := core.NewDestinationItem(d)
		it.Score = h.Score
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
		out = append(out, it)
	}
	return out
}

// ParamScope 是请求级检索范围参数，值为 core.Scope
const ParamScope = "scope"

// scopeFilter 合并节点静态范围与请求范围，请求中的非空字段优先。
func scopeFilter(static core.Scope, rctx *core.RecommendContext) map[string]interface{} {
	scope := static
	if rctx != nil {
		if v, ok := rctx.GetParam(ParamScope); ok {
			if req, ok := v.(core.Scope); ok {
				if req.Category != "" {
					scope.Category = req.Category
				}
				if req.City != "" {
					scope.City = req.City
				}
			}
		}
	}
	return scope.Filter()
}

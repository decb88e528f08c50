package recall

import (
	"context"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/conv"
)

// ParamAnchorID 是相似召回读取锚点目的地 ID 的请求参数
const ParamAnchorID = "anchor_id"

// Similar 是相似召回源（Item-to-Item）：以锚点目的地自身向量检索，结果不含锚点。
//
// 锚点 ID 从 rctx.Params["anchor_id"] 读取，不存在时返回 core.ErrItemNotFound。
type Similar struct {
	Vectors    core.VectorService
	Catalog    Catalog
	Collection string
	Metric     string

	// TopK 默认 3，可被 rctx.Params["top_k"] 覆盖
	TopK int

	// Scope 限定检索范围，可被 rctx.Params["scope"] 逐字段覆盖
	Scope core.Scope
}

func (r *Similar) Name() string        { return "recall.similar" }
func (r *Similar) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Similar) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Similar) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	raw, ok := rctx.GetParam(ParamAnchorID)
	if !ok {
		return nil, core.ErrItemNotFound
	}
	id, ok := conv.ToInt64(raw)
	if !ok {
		return nil, core.ErrItemNotFound
	}
	anchor, ok := r.Catalog.ByID(id)
	if !ok {
		return nil, core.ErrItemNotFound
	}

	topK := r.TopK
	if v, ok := rctx.GetParam("top_k"); ok {
		if n, ok := conv.ToInt(v); ok {
			topK = n
		}
	}
	if topK <= 0 {
		topK = 3
	}

	res, err := r.Vectors.Search(ctx, &core.VectorSearchRequest{
		Collection: collectionOr(r.Collection),
		Vector:     anchor.Embedding,
		TopK:       topK,
		Metric:     metricOr(r.Metric),
		Filter:     scopeFilter(r.Scope, rctx),
		Exclude:    []int64{anchor.ID},
	})
	if err != nil {
		return nil, err
	}
	return toItems(r.Catalog, res.Items, "similar"), nil
}

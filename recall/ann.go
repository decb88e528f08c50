package recall

import (
	"context"
	"strings"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/conv"
	"github.com/rushteam/jembertrip/pkg/logger"
)

// ANN 是语义检索召回源：编码 rctx.Query，与语料全量做相似度检索。
//
// 查询为空白时直接返回空结果，不调用编码器。
// 结果按分数降序，同分保持语料顺序（由 VectorService 保证）。
type ANN struct {
	Encoder    core.TextEncoder
	Vectors    core.VectorService
	Catalog    Catalog
	Collection string
	Metric     string

	// TopK <= 0 表示返回全部；可被 rctx.Params["top_k"] 覆盖
	TopK int

	// Scope 限定检索范围，可被 rctx.Params["scope"] 逐字段覆盖
	Scope core.Scope
}

func (r *ANN) Name() string        { return "recall.ann" }
func (r *ANN) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ANN) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ANN) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || strings.TrimSpace(rctx.Query) == "" {
		return []*core.Item{}, nil
	}
	if r.Encoder == nil || r.Vectors == nil || r.Catalog == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnavailable, "recall.ann: encoder or vector service not configured")
	}

	vec, err := r.Encoder.Encode(ctx, rctx.Query)
	if err != nil {
		return nil, err
	}

	topK := r.TopK
	if v, ok := rctx.GetParam("top_k"); ok {
		if n, ok := conv.ToInt(v); ok {
			topK = n
		}
	}

	res, err := r.Vectors.Search(ctx, &core.VectorSearchRequest{
		Collection: collectionOr(r.Collection),
		Vector:     vec,
		TopK:       topK,
		Metric:     metricOr(r.Metric),
		Filter:     scopeFilter(r.Scope, rctx),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "semantic recall", "query", rctx.Query, "hits", len(res.Items))
	return toItems(r.Catalog, res.Items, "ann"), nil
}

// DefaultCollection 是语料默认的向量集合名
const DefaultCollection = "destinations"

func collectionOr(name string) string {
	if name == "" {
		return DefaultCollection
	}
	return name
}

func metricOr(metric string) string {
	if metric == "" {
		return string(core.MetricCosine)
	}
	return metric
}

package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/pkg/metrics"
	"github.com/rushteam/jembertrip/pkg/utils"
	"github.com/rushteam/jembertrip/pkg/vecmath"
)

// 兴趣召回写入 rctx 的请求级 Label
const (
	LabelTopCategory     = "top_category"
	LabelHistoryResolved = "history_resolved"
)

// ErrNoInterest 表示历史中没有任何可解析的目的地，调用方应走冷启动。
var ErrNoInterest = core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recall: no resolvable history")

// UserInterest 是基于点击历史的兴趣召回源。
//
//  1. 按 ID 解析 rctx.History（去重，保留首次出现顺序），不存在的 ID 记录后丢弃
//  2. 对解析出的向量取逐维均值作为兴趣向量
//  3. 兴趣向量与全量语料计算相似度
//  4. 统计历史中出现最多的类别，写入 rctx Label "top_category"
//
// 历史全部无法解析时返回 ErrNoInterest。
type UserInterest struct {
	Vectors    core.VectorService
	Catalog    Catalog
	Collection string
	Metric     string
}

func (r *UserInterest) Name() string        { return "recall.interest" }
func (r *UserInterest) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *UserInterest) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *UserInterest) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || r.Catalog == nil || r.Vectors == nil {
		return nil, ErrNoInterest
	}

	resolved, dropped := ResolveHistory(r.Catalog, rctx.History)
	if len(dropped) > 0 {
		metrics.HistoryIDsDropped.Add(float64(len(dropped)))
		logger.Warn(ctx, "history ids not found in corpus", "dropped", dropped, "resolved", len(resolved))
	}
	if len(resolved) == 0 {
		return nil, ErrNoInterest
	}

	vectors := make([][]float64, len(resolved))
	for i, d := range resolved {
		vectors[i] = d.Embedding
	}
	interest, err := vecmath.Mean(vectors)
	if err != nil {
		return nil, err
	}

	res, err := r.Vectors.Search(ctx, &core.VectorSearchRequest{
		Collection: collectionOr(r.Collection),
		Vector:     interest,
		Metric:     metricOr(r.Metric),
	})
	if err != nil {
		return nil, err
	}

	topCat := TopCategory(resolved)
	rctx.SetLabel(LabelTopCategory, utils.Label{Value: topCat, Source: "recall"})
	rctx.SetLabel(LabelHistoryResolved, utils.Label{Value: strconv.Itoa(len(resolved)), Source: "recall"})

	return toItems(r.Catalog, res.Items, "interest"), nil
}

// ResolveHistory 按 ID 解析历史：重复 ID 只保留一次，未知 ID 放入 dropped。
func ResolveHistory(cat Catalog, history []int64) (resolved []*core.Destination, dropped []int64) {
	seen := make(map[int64]struct{}, len(history))
	for _, id := range history {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		d, ok := cat.ByID(id)
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		resolved = append(resolved, d)
	}
	return resolved, dropped
}

// TopCategory 返回出现次数最多的类别；次数相同时取最先出现的类别。
func TopCategory(dests []*core.Destination) string {
	counts := make(map[string]int, len(dests))
	var order []string
	for _, d := range dests {
		if _, ok := counts[d.Category]; !ok {
			order = append(order, d.Category)
		}
		counts[d.Category]++
	}

	top, best := "", 0
	for _, c := range order {
		if counts[c] > best {
			top, best = c, counts[c]
		}
	}
	return top
}

package recall

import (
	"context"
	"math/rand/v2"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/conv"
	"github.com/rushteam/jembertrip/pkg/utils"
)

// DefaultSeed 是冷启动采样的默认种子
const DefaultSeed uint64 = 42

// ColdStart 是冷启动召回源：从全量目录中按固定种子无放回采样 N 个目的地。
//
// 同一语料快照、同一种子，每次返回相同的结果。
// N 可被 rctx.Params["top_n"] 覆盖；语料不足 N 时返回全部（顺序同样被打乱）。
type ColdStart struct {
	Catalog Catalog
	Seed    uint64
	N       int
}

func (r *ColdStart) Name() string        { return "recall.cold_start" }
func (r *ColdStart) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ColdStart) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ColdStart) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil {
		return []*core.Item{}, nil
	}

	n := r.N
	if v, ok := rctx.GetParam("top_n"); ok {
		if x, ok := conv.ToInt(v); ok {
			n = x
		}
	}
	if n <= 0 {
		n = 9
	}

	all := r.Catalog.Items()
	idx := SampleIndices(len(all), n, r.Seed)
	out := make([]*core.Item, 0, len(idx))
	for _, i := range idx {
		it := core.NewDestinationItem(all[i])
		it.PutLabel("recall_source", utils.Label{Value: "cold_start", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// SampleIndices 从 [0, n) 中无放回地抽取 min(k, n) 个下标（部分 Fisher-Yates）。
// 相同的 n、k、seed 总是得到相同的序列。
func SampleIndices(n, k int, seed uint64) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return []int{}
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}

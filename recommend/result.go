package recommend

import (
	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/vecmath"
)

// 结果标题
const (
	TitleColdStart = "Explore popular destinations."
	titleSearch    = "Search results for '%s'"
	titleFeed      = "Because you liked category '%s'"
	titleSimilar   = "Similar to %s"
)

// Result 是一次推荐的输出：标题 + 有序结果。
type Result struct {
	Title string       `json:"title"`
	Data  []ResultItem `json:"data"`

	// Scene 标记实际走的路径（search / feed / cold_start / similar），不输出到 JSON
	Scene string `json:"-"`
}

// ResultItem 是目的地记录加相似度分数；非排序类结果不带分数。
type ResultItem struct {
	*core.Destination
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
}

// ScoreDecimals 是输出分数保留的小数位数
const ScoreDecimals = 3

func toResultItems(items []*core.Item, scored bool) []ResultItem {
	out := make([]ResultItem, 0, len(items))
	for _, it := range items {
		if it == nil || it.Destination == nil {
			continue
		}
		ri := ResultItem{Destination: it.Destination}
		if scored {
			s := vecmath.Round(it.Score, ScoreDecimals)
			ri.SimilarityScore = &s
		}
		out = append(out, ri)
	}
	return out
}

func destinationsToResult(dests []*core.Destination) []ResultItem {
	out := make([]ResultItem, len(dests))
	for i, d := range dests {
		out[i] = ResultItem{Destination: d}
	}
	return out
}

// Package builders 在 init 中把内置 Node 注册到 config，供配置驱动构建 Pipeline。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/jembertrip/config"
	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/filter"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/conv"
	"github.com/rushteam/jembertrip/rank"
	"github.com/rushteam/jembertrip/recall"
	"github.com/rushteam/jembertrip/rerank"
)

func init() {
	config.Register("recall.interest", BuildInterestNode)
	config.Register("recall.ann", BuildANNNode)
	config.Register("recall.similar", BuildSimilarNode)
	config.Register("recall.cold_start", BuildColdStartNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("rank.category_boost", BuildCategoryBoostNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

func requireCatalog(env *config.Env, node string) error {
	if env == nil || env.Catalog == nil || env.Vectors == nil {
		return fmt.Errorf("%s requires catalog and vector service", node)
	}
	return nil
}

func BuildInterestNode(env *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	if err := requireCatalog(env, "recall.interest"); err != nil {
		return nil, err
	}
	return &recall.UserInterest{
		Vectors:    env.Vectors,
		Catalog:    env.Catalog,
		Collection: conv.ConfigGet(cfg, "collection", env.Collection),
		Metric:     conv.ConfigGet(cfg, "metric", ""),
	}, nil
}

func BuildANNNode(env *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	if err := requireCatalog(env, "recall.ann"); err != nil {
		return nil, err
	}
	if env.Encoder == nil {
		return nil, fmt.Errorf("recall.ann requires an encoder")
	}
	return &recall.ANN{
		Encoder:    env.Encoder,
		Vectors:    env.Vectors,
		Catalog:    env.Catalog,
		Collection: conv.ConfigGet(cfg, "collection", env.Collection),
		Metric:     conv.ConfigGet(cfg, "metric", ""),
		TopK:       int(conv.ConfigGetInt64(cfg, "top_k", 0)),
		Scope:      scopeFromConfig(cfg),
	}, nil
}

func BuildSimilarNode(env *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	if err := requireCatalog(env, "recall.similar"); err != nil {
		return nil, err
	}
	return &recall.Similar{
		Vectors:    env.Vectors,
		Catalog:    env.Catalog,
		Collection: conv.ConfigGet(cfg, "collection", env.Collection),
		Metric:     conv.ConfigGet(cfg, "metric", ""),
		TopK:       int(conv.ConfigGetInt64(cfg, "top_k", int64(env.SimilarTopK()))),
		Scope:      scopeFromConfig(cfg),
	}, nil
}

// scopeFromConfig 读取节点配置中的 category / city 范围限定。
func scopeFromConfig(cfg map[string]interface{}) core.Scope {
	return core.Scope{
		Category: conv.ConfigGet(cfg, core.MetaCategory, ""),
		City:     conv.ConfigGet(cfg, core.MetaCity, ""),
	}
}

func BuildColdStartNode(env *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	if env == nil || env.Catalog == nil {
		return nil, fmt.Errorf("recall.cold_start requires catalog")
	}
	return &recall.ColdStart{
		Catalog: env.Catalog,
		Seed:    uint64(conv.ConfigGetInt64(cfg, "seed", int64(env.Seed()))),
		N:       int(conv.ConfigGetInt64(cfg, "n", int64(env.TopN()))),
	}, nil
}

func BuildCategoryBoostNode(env *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	return &rank.CategoryBoostNode{
		Boost:    conv.ConfigGetFloat64(cfg, "boost", env.BoostFactor()),
		LabelKey: conv.ConfigGet(cfg, "label_key", recall.LabelTopCategory),
	}, nil
}

// BuildFilterNode 支持的配置项：history(bool，默认 true)、blacklist([]int)、blacklist_key、expr。
func BuildFilterNode(env *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	var filters []filter.Filter
	if conv.ConfigGet(cfg, "history", true) {
		filters = append(filters, filter.NewHistoryFilter())
	}

	var ids []int64
	if raw, ok := cfg["blacklist"].([]interface{}); ok {
		var rejected []any
		ids, rejected = conv.SliceAnyToInt64(raw)
		if len(rejected) > 0 {
			return nil, fmt.Errorf("filter: invalid blacklist ids %v", rejected)
		}
	}
	key := conv.ConfigGet(cfg, "blacklist_key", "")
	if len(ids) > 0 || key != "" {
		var st core.Store
		if key != "" && env != nil {
			st = env.Store
		}
		filters = append(filters, filter.NewBlacklistFilter(ids, st, key))
	}

	if expr := conv.ConfigGet(cfg, "expr", ""); expr != "" {
		f, err := filter.NewExprFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("filter expr: %w", err)
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildTopNNode(env *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", int64(env.TopN())))}, nil
}

func BuildDiversityNode(_ *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{MaxPerCategory: int(conv.ConfigGetInt64(cfg, "max_per_category", 1))}, nil
}

// BuildFanoutNode 构建并发多路召回。配置示例：
//
//	sources:
//	  - type: recall.interest
//	  - type: recall.cold_start
//	    config: {n: 9}
//	timeout: 200ms
//	merge: priority
func BuildFanoutNode(env *config.Env, cfg map[string]interface{}) (pipeline.Node, error) {
	raw, _ := cfg["sources"].([]interface{})
	if len(raw) == 0 {
		return nil, fmt.Errorf("recall.fanout requires at least one source")
	}
	sources := make([]recall.Source, 0, len(raw))
	for i, r := range raw {
		sc, ok := r.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("recall.fanout: source %d must be a mapping", i)
		}
		typ := conv.ConfigGet(sc, "type", "")
		sub, _ := sc["config"].(map[string]interface{})
		node, err := config.Build(env, typ, sub)
		if err != nil {
			return nil, fmt.Errorf("recall.fanout: source %d: %w", i, err)
		}
		src, ok := node.(recall.Source)
		if !ok {
			return nil, fmt.Errorf("recall.fanout: %s is not a recall source", typ)
		}
		sources = append(sources, src)
	}

	var timeout time.Duration
	if s := conv.ConfigGet(cfg, "timeout", ""); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("recall.fanout: invalid timeout: %w", err)
		}
		timeout = d
	}
	return &recall.Fanout{
		Sources:       sources,
		Timeout:       timeout,
		MaxConcurrent: int(conv.ConfigGetInt64(cfg, "max_concurrent", 0)),
		MergeStrategy: conv.ConfigGet(cfg, "merge", recall.MergePriority),
	}, nil
}

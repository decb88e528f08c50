package config

import (
	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/recall"
)

// Env 是构建 Node 所需的运行期依赖，在语料与编码器就绪后创建。
type Env struct {
	Catalog    recall.Catalog
	Vectors    core.VectorService
	Encoder    core.TextEncoder
	Store      core.Store
	Collection string
	Recommend  core.RecommendConfig
}

func (e *Env) recommend() core.RecommendConfig {
	if e == nil || e.Recommend == nil {
		return &core.DefaultRecommendConfig{}
	}
	return e.Recommend
}

// TopN 返回 feed 默认条数
func (e *Env) TopN() int { return e.recommend().DefaultTopN() }

// BoostFactor 返回兴趣类别加分
func (e *Env) BoostFactor() float64 { return e.recommend().DefaultBoostFactor() }

// SimilarTopK 返回相似推荐默认条数
func (e *Env) SimilarTopK() int { return e.recommend().DefaultSimilarTopK() }

// Seed 返回冷启动采样种子
func (e *Env) Seed() uint64 { return e.recommend().DefaultSeed() }

// DefaultFeedConfig 返回内置的 feed 链路：兴趣召回 -> 类别加权 -> 过滤 -> 截断。
func DefaultFeedConfig(rec RecommendSettings) *pipeline.Config {
	filterCfg := map[string]interface{}{"history": true}
	if rec.ExcludeExpr != "" {
		filterCfg["expr"] = rec.ExcludeExpr
	}
	if len(rec.Blacklist) > 0 {
		ids := make([]interface{}, len(rec.Blacklist))
		for i, id := range rec.Blacklist {
			ids[i] = id
		}
		filterCfg["blacklist"] = ids
	}
	if rec.BlacklistKey != "" {
		filterCfg["blacklist_key"] = rec.BlacklistKey
	}

	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "feed"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "recall.interest", Config: map[string]interface{}{}},
		{Type: "rank.category_boost", Config: map[string]interface{}{}},
		{Type: "filter", Config: filterCfg},
		{Type: "rerank.topn", Config: map[string]interface{}{}},
	}
	return cfg
}

// BuildFeedPipeline 构建 feed 链路：rec.FeedPipeline 非空时从 YAML 文件加载，否则使用内置链路。
// 未注册的 Node 类型会导致构建失败。
func BuildFeedPipeline(env *Env, rec RecommendSettings) (*pipeline.Pipeline, error) {
	cfg := DefaultFeedConfig(rec)
	if rec.FeedPipeline != "" {
		loaded, err := pipeline.LoadFromYAML(rec.FeedPipeline)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(NewFactory(env))
}

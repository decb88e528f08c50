// Package recommend 是推荐门面：按请求选择语义搜索、个性化 feed 或冷启动，并整理输出。
//
// Service 在启动完成后一次性构建，之后只读，可被所有请求并发共享。
package recommend

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/corpus"
	"github.com/rushteam/jembertrip/filter"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/pkg/metrics"
	"github.com/rushteam/jembertrip/pkg/tracer"
	"github.com/rushteam/jembertrip/rank"
	"github.com/rushteam/jembertrip/recall"
	"github.com/rushteam/jembertrip/rerank"
	"github.com/rushteam/jembertrip/store"
)

// Options 是构建 Service 的依赖
type Options struct {
	Corpus  *corpus.Corpus
	Encoder core.TextEncoder

	// Vectors 为空时创建内存向量服务并写入语料
	Vectors    core.VectorDatabaseService
	Collection string

	// Feed 为空时使用内置链路：兴趣召回 -> 类别加权 -> 历史过滤 -> 截断
	Feed *pipeline.Pipeline

	Config core.RecommendConfig
}

// Service 是推荐门面
type Service struct {
	corpus  *corpus.Corpus
	encoder core.TextEncoder
	vectors core.VectorService
	cfg     core.RecommendConfig

	searcher *recall.ANN
	similar  *recall.Similar
	cold     *recall.ColdStart
	feed     *pipeline.Pipeline
}

// Request 是一次推荐请求
type Request struct {
	Query      string
	HistoryIDs []int64

	// Clicks 在 HistoryIDs 为空时使用，归并为按最近点击倒序的去重 ID
	Clicks *core.ClickHistory

	// TopN 是 feed 条数，<= 0 使用默认值
	TopN int

	// TopK 是搜索条数，<= 0 返回全部
	TopK int

	// Scope 限定搜索的类别或城市，对 feed 不生效
	Scope core.Scope
}

// New 校验依赖并构建 Service。编码器维度与语料维度不一致时返回错误。
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Corpus == nil {
		return nil, corpus.ErrEmptyCorpus
	}
	if opts.Encoder == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: encoder is required")
	}
	if dim := opts.Encoder.Dimension(); dim > 0 && dim != opts.Corpus.Dimension() {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput,
			fmt.Sprintf("recommend: encoder dimension %d does not match corpus dimension %d", dim, opts.Corpus.Dimension()))
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = &core.DefaultRecommendConfig{}
	}
	collection := opts.Collection
	if collection == "" {
		collection = corpus.DefaultCollection
	}

	vectors := opts.Vectors
	if vectors == nil {
		vectors = store.NewMemoryVectorService()
		if err := opts.Corpus.Index(ctx, vectors, collection); err != nil {
			return nil, fmt.Errorf("index corpus: %w", err)
		}
	}

	s := &Service{
		corpus:  opts.Corpus,
		encoder: opts.Encoder,
		vectors: vectors,
		cfg:     cfg,
		searcher: &recall.ANN{
			Encoder:    opts.Encoder,
			Vectors:    vectors,
			Catalog:    opts.Corpus,
			Collection: collection,
		},
		similar: &recall.Similar{
			Vectors:    vectors,
			Catalog:    opts.Corpus,
			Collection: collection,
			TopK:       cfg.DefaultSimilarTopK(),
		},
		cold: &recall.ColdStart{
			Catalog: opts.Corpus,
			Seed:    cfg.DefaultSeed(),
			N:       cfg.DefaultTopN(),
		},
		feed: opts.Feed,
	}
	if s.feed == nil {
		s.feed = DefaultFeed(vectors, opts.Corpus, collection, cfg)
	}
	return s, nil
}

// DefaultFeed 返回内置的 feed 链路
func DefaultFeed(vectors core.VectorService, cat recall.Catalog, collection string, cfg core.RecommendConfig) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name: "feed",
		Nodes: []pipeline.Node{
			&recall.UserInterest{Vectors: vectors, Catalog: cat, Collection: collection},
			&rank.CategoryBoostNode{Boost: cfg.DefaultBoostFactor()},
			&filter.FilterNode{Filters: []filter.Filter{filter.NewHistoryFilter()}},
			&rerank.TopNNode{N: cfg.DefaultTopN()},
		},
	}
}

// Corpus 返回服务持有的语料
func (s *Service) Corpus() *corpus.Corpus { return s.corpus }

// Recommend 是统一入口：查询非空白时走语义搜索，否则走个性化 feed。
// 查询优先于历史，即使两者同时存在。
func (s *Service) Recommend(ctx context.Context, req Request) (*Result, error) {
	if timeout := s.cfg.DefaultTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if strings.TrimSpace(req.Query) != "" {
		return s.search(ctx, req.Query, req.TopK, req.Scope)
	}

	history := req.HistoryIDs
	if len(history) == 0 && req.Clicks != nil {
		history = req.Clicks.RecentUnique(0)
	}
	return s.Feed(ctx, history, req.TopN), nil
}

// Search 语义搜索。空白查询直接返回空结果，不调用编码器。
func (s *Service) Search(ctx context.Context, query string, topK int) (*Result, error) {
	return s.search(ctx, query, topK, core.Scope{})
}

// search 的标题保留原始查询，编码使用去掉首尾空白的文本。
func (s *Service) search(ctx context.Context, query string, topK int, scope core.Scope) (*Result, error) {
	ctx = logger.WithScene(ctx, core.SceneSearch)
	ctx, span := tracer.Start(ctx, "recommend.Search")
	defer span.End()
	start := time.Now()

	res := &Result{Title: fmt.Sprintf(titleSearch, query), Data: []ResultItem{}, Scene: core.SceneSearch}
	text := strings.TrimSpace(query)
	if text == "" {
		observe(core.SceneSearch, "empty", start)
		return res, nil
	}

	rctx := &core.RecommendContext{Scene: core.SceneSearch, Query: text, Params: map[string]any{}}
	if topK > 0 {
		rctx.Params["top_k"] = topK
	}
	if !scope.IsZero() {
		rctx.Params[recall.ParamScope] = scope
	}
	items, err := s.searcher.Recall(ctx, rctx)
	if err != nil {
		span.RecordError(err)
		observe(core.SceneSearch, "error", start)
		logger.Error(ctx, "semantic search failed", err, "query", query)
		return nil, err
	}
	span.SetAttributes(attribute.Int("result.count", len(items)))
	res.Data = toResultItems(items, true)
	observe(core.SceneSearch, "success", start)
	return res, nil
}

// Feed 个性化推荐，永不返回错误：
// 历史为空、全部无法解析、链路出错或 panic 时都降级到冷启动，并记录原因。
func (s *Service) Feed(ctx context.Context, history []int64, topN int) (res *Result) {
	ctx = logger.WithScene(ctx, core.SceneFeed)
	ctx, span := tracer.Start(ctx, "recommend.Feed")
	defer span.End()
	start := time.Now()

	rctx := &core.RecommendContext{
		Scene:   core.SceneFeed,
		History: history,
		Params:  map[string]any{},
	}
	if topN > 0 {
		rctx.Params["top_n"] = topN
	}
	if len(history) == 0 {
		return s.coldStart(ctx, rctx, "empty_history", start)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "feed panicked, falling back to cold start",
				fmt.Errorf("%v", r), "stack", string(debug.Stack()))
			res = s.coldStart(ctx, rctx, "panic", start)
		}
	}()

	items, err := s.feed.Run(ctx, rctx, nil)
	if err != nil {
		reason := "error"
		if errors.Is(err, recall.ErrNoInterest) {
			reason = "unresolved"
			logger.Info(ctx, "no history id resolved, falling back to cold start", "history", history)
		} else {
			span.RecordError(err)
			logger.Error(ctx, "feed failed, falling back to cold start", err, "history", history)
		}
		return s.coldStart(ctx, rctx, reason, start)
	}

	top, _ := rctx.GetLabel(recall.LabelTopCategory)
	span.SetAttributes(
		attribute.String("feed.top_category", top.Value),
		attribute.Int("result.count", len(items)),
	)
	observe(core.SceneFeed, "success", start)
	return &Result{
		Title: fmt.Sprintf(titleFeed, top.Value),
		Data:  toResultItems(items, true),
		Scene: core.SceneFeed,
	}
}

// coldStart 是冷启动路径：固定种子采样，不带分数。
func (s *Service) coldStart(ctx context.Context, rctx *core.RecommendContext, reason string, start time.Time) *Result {
	metrics.ColdStartFallbackTotal.WithLabelValues(reason).Inc()
	rctx.Scene = core.SceneColdStart

	items, err := s.cold.Recall(ctx, rctx)
	if err != nil {
		logger.Error(ctx, "cold start sampling failed", err)
		items = nil
	}
	observe(core.SceneColdStart, reason, start)
	return &Result{
		Title: TitleColdStart,
		Data:  toResultItems(items, false),
		Scene: core.SceneColdStart,
	}
}

// Similar 以目的地自身向量检索相似目的地，结果不含自身。
// key 先按名称、再按数字 ID 解析；无法解析时返回 core.ErrItemNotFound。
func (s *Service) Similar(ctx context.Context, key string, topK int) (*Result, error) {
	return s.SimilarIn(ctx, key, topK, core.Scope{})
}

// SimilarIn 与 Similar 相同，但只在 scope 限定的类别或城市内找相似目的地。
func (s *Service) SimilarIn(ctx context.Context, key string, topK int, scope core.Scope) (*Result, error) {
	ctx = logger.WithScene(ctx, core.SceneSimilar)
	ctx, span := tracer.Start(ctx, "recommend.Similar")
	defer span.End()
	start := time.Now()

	anchor, ok := s.corpus.Lookup(key)
	if !ok {
		observe(core.SceneSimilar, "not_found", start)
		return nil, core.ErrItemNotFound
	}
	ctx = logger.WithContext(ctx, logger.DestinationKey, anchor.ID)

	rctx := &core.RecommendContext{
		Scene:  core.SceneSimilar,
		Params: map[string]any{recall.ParamAnchorID: anchor.ID},
	}
	if topK > 0 {
		rctx.Params["top_k"] = topK
	}
	if !scope.IsZero() {
		rctx.Params[recall.ParamScope] = scope
	}
	items, err := s.similar.Recall(ctx, rctx)
	if err != nil {
		span.RecordError(err)
		observe(core.SceneSimilar, "error", start)
		return nil, err
	}
	observe(core.SceneSimilar, "success", start)
	return &Result{
		Title: fmt.Sprintf(titleSimilar, anchor.Name),
		Data:  toResultItems(items, true),
		Scene: core.SceneSimilar,
	}, nil
}

// AllItems 返回语料顺序的全部目的地，不带分数。
func (s *Service) AllItems() []ResultItem {
	return destinationsToResult(s.corpus.Items())
}

func observe(scene, status string, start time.Time) {
	metrics.RecommendTotal.WithLabelValues(scene, status).Inc()
	metrics.RecommendDuration.WithLabelValues(scene).Observe(time.Since(start).Seconds())
}

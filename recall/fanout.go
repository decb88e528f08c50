package recall

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/pkg/utils"
)

// 合并策略
const (
	MergePriority = "priority"
	MergeUnion    = "union"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按源顺序合并结果。
//
// Sources[0] 是主召回源，它的错误会中断整个 Node（例如兴趣召回无法解析历史时交给上层降级）；
// 其余召回源出错或超时只记录日志，不影响结果。召回源 panic 按错误处理。
// 合并结果与调度顺序无关：先按源顺序，再按源内顺序。
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 0 表示不限制
	MergeStrategy string        // priority（默认，按 ID 去重保留靠前的源）/ union
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return n.Recall(ctx, rctx)
}

func (n *Fanout) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return []*core.Item{}, nil
	}

	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("recall source %s panicked: %v", src.Name(), r)
					logger.Error(ctx, "recall source panicked", err, "stack", string(debug.Stack()))
					if i != 0 {
						err = nil
					}
				}
			}()

			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				if i == 0 {
					return err
				}
				logger.Warn(ctx, "recall source failed, skipped", "source", src.Name(), "error", err.Error())
				return nil
			}

			priority := strconv.Itoa(i)
			for _, it := range items {
				if _, ok := it.GetLabel("recall_source"); !ok {
					it.PutLabel("recall_source", utils.Label{Value: src.Name(), Source: "recall"})
				}
				it.PutLabel("recall_priority", utils.Label{Value: priority, Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if n.MergeStrategy == MergeUnion {
		return mergeUnion(results), nil
	}
	return mergeByPriority(results), nil
}

// mergeByPriority 按 ID 去重：保留优先级更高（源更靠前）的 Item，并合并后来者的 labels。
func mergeByPriority(results [][]*core.Item) []*core.Item {
	seen := make(map[int64]*core.Item)
	out := make([]*core.Item, 0)
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if old, ok := seen[it.ID]; ok {
				for k, v := range it.Labels {
					if _, exists := old.Labels[k]; !exists {
						old.PutLabel(k, v)
					}
				}
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}
	return out
}

// mergeUnion 合并所有结果，不去重。
func mergeUnion(results [][]*core.Item) []*core.Item {
	out := make([]*core.Item, 0)
	for _, items := range results {
		for _, it := range items {
			if it != nil {
				out = append(out, it)
			}
		}
	}
	return out
}

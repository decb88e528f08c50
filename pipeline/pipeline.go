package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/pkg/metrics"
	"github.com/rushteam/jembertrip/pkg/tracer"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：上一个 Node 的输出是下一个的输入。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行所有 Node，任一 Node 出错立即返回该错误。
// 每个 Node 单独打点（耗时指标 + span），便于定位慢节点。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := runNode(ctx, node, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

func runNode(ctx context.Context, node Node, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	ctx, span := tracer.Start(ctx, "pipeline."+node.Name())
	defer span.End()

	start := time.Now()
	out, err := node.Process(ctx, rctx, items)
	elapsed := time.Since(start)
	metrics.NodeDuration.WithLabelValues(node.Name(), string(node.Kind())).Observe(elapsed.Seconds())

	span.SetAttributes(
		attribute.String("node.kind", string(node.Kind())),
		attribute.Int("items.in", len(items)),
		attribute.Int("items.out", len(out)),
	)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Debug(ctx, "node done", "node", node.Name(), "in", len(items), "out", len(out), "elapsed", elapsed.String())
	return out, nil
}

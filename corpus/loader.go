package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/pkg/metrics"
)

// Loader 是语料数据源：离线文件、Postgres、带缓存的包装等。
type Loader interface {
	// Name 返回数据源名称（用于日志/监控）
	Name() string

	// Load 读取全部目的地，返回顺序即语料顺序
	Load(ctx context.Context) ([]*core.Destination, error)
}

// Load 从数据源读取并构建语料。读取失败或为空都返回错误，调用方应拒绝启动。
func Load(ctx context.Context, loader Loader) (*Corpus, error) {
	start := time.Now()
	dests, err := loader.Load(ctx)
	if err != nil {
		metrics.CorpusLoadTotal.WithLabelValues(loader.Name(), "error").Inc()
		return nil, fmt.Errorf("load corpus from %s: %w", loader.Name(), err)
	}

	c, err := New(dests)
	if err != nil {
		metrics.CorpusLoadTotal.WithLabelValues(loader.Name(), "invalid").Inc()
		return nil, fmt.Errorf("build corpus from %s: %w", loader.Name(), err)
	}

	metrics.CorpusLoadTotal.WithLabelValues(loader.Name(), "success").Inc()
	metrics.CorpusItems.Set(float64(c.Len()))
	logger.Info(ctx, "corpus loaded",
		"source", loader.Name(),
		"items", c.Len(),
		"dimension", c.Dimension(),
		"elapsed", time.Since(start).String(),
	)
	return c, nil
}

// StaticLoader 返回固定的目的地列表，用于测试与嵌入式数据。
type StaticLoader struct {
	Destinations []*core.Destination
}

func (l *StaticLoader) Name() string { return "static" }

func (l *StaticLoader) Load(_ context.Context) ([]*core.Destination, error) {
	return l.Destinations, nil
}

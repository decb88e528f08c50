package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/jembertrip/pipeline"
)

// 使用配置驱动时，需在入口处 import _ "github.com/rushteam/jembertrip/config/builders"
// 以触发内置 Node（recall.interest、rank.category_boost、filter、rerank.topn 等）的 init 注册。

// NodeBuilder 根据运行期依赖与 Node 配置构建 Node。
// 各组件在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type NodeBuilder func(env *Env, cfg map[string]interface{}) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewFactory 返回绑定了 env 的 NodeFactory，包含所有通过 Register 注册的 Node 类型。
func NewFactory(env *Env) *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		b := builder
		f.Register(typeName, func(cfg map[string]interface{}) (pipeline.Node, error) {
			return b(env, cfg)
		})
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	supported := SupportedTypes()
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, nc := range cfg.Pipeline.Nodes {
		if nc.Disabled {
			continue
		}
		if _, ok := defaultBuilders[nc.Type]; !ok {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, supported)
		}
	}
	return nil
}

// Build 按类型构建单个 Node，供组合型 Node（如 recall.fanout）构建子节点。
func Build(env *Env, typeName string, cfg map[string]interface{}) (pipeline.Node, error) {
	defaultBuildersMu.RLock()
	b, ok := defaultBuilders[typeName]
	defaultBuildersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported node type %q (supported: %v)", typeName, SupportedTypes())
	}
	return b(env, cfg)
}

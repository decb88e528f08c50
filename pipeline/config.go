package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 feed 链路的声明式描述，节点按顺序执行。
type Config struct {
	Pipeline struct {
		Name  string       `yaml:"name" json:"name"`
		Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
	} `yaml:"pipeline" json:"pipeline"`
}

// NodeConfig 描述一个节点。Disabled 为 true 时构建阶段直接跳过，
// 便于灰度时临时摘掉某个节点而不删配置。
type NodeConfig struct {
	Type     string         `yaml:"type" json:"type"`
	Disabled bool           `yaml:"disabled" json:"disabled"`
	Config   map[string]any `yaml:"config" json:"config"`
}

// BuilderFunc 由节点配置构造 Node。
type BuilderFunc func(cfg map[string]any) (Node, error)

func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML 解析链路配置；启用的节点至少要有一个。
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if cfg.enabledCount() == 0 {
		return nil, fmt.Errorf("pipeline %q has no nodes", cfg.Pipeline.Name)
	}
	return &cfg, nil
}

func (c *Config) enabledCount() int {
	n := 0
	for _, nc := range c.Pipeline.Nodes {
		if !nc.Disabled {
			n++
		}
	}
	return n
}

// BuildPipeline 依次构建启用的节点。错误信息带上节点下标，方便定位配置。
func (c *Config) BuildPipeline(factory *NodeFactory) (*Pipeline, error) {
	nodes := make([]Node, 0, len(c.Pipeline.Nodes))
	for i, nc := range c.Pipeline.Nodes {
		if nc.Disabled {
			continue
		}
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q node[%d] %s: %w", c.Pipeline.Name, i, nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("pipeline %q has no enabled nodes", c.Pipeline.Name)
	}
	return &Pipeline{Name: c.Pipeline.Name, Nodes: nodes}, nil
}

// NodeFactory 按类型名查找 BuilderFunc。
type NodeFactory struct {
	builders map[string]BuilderFunc
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{builders: make(map[string]BuilderFunc)}
}

func (f *NodeFactory) Register(nodeType string, builder BuilderFunc) {
	f.builders[nodeType] = builder
}

// Types 返回已注册的类型名（有序）。
func (f *NodeFactory) Types() []string {
	out := make([]string, 0, len(f.builders))
	for t := range f.builders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (f *NodeFactory) Build(nodeType string, cfg map[string]any) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q (known: %s)", nodeType, strings.Join(f.Types(), ", "))
	}
	return builder(cfg)
}

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/jembertrip/core"
)

type appendNode struct {
	name string
	id   int64
	err  error
}

func (n *appendNode) Name() string { return n.name }
func (n *appendNode) Kind() Kind   { return KindRecall }
func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipelineRun(t *testing.T) {
	p := &Pipeline{Nodes: []Node{&appendNode{name: "a", id: 1}, &appendNode{name: "b", id: 2}}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 2 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestPipelineRunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{name: "a", id: 1}, &appendNode{name: "b", err: boom}, &appendNode{name: "c", id: 3}}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestPipelineRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Nodes: []Node{&appendNode{name: "a", id: 1}}}
	if _, err := p.Run(ctx, &core.RecommendContext{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestConfigBuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: feed
  nodes:
    - type: test.append
      config:
        id: 7
    - type: test.append
      config:
        id: 8
`))
	if err != nil {
		t.Fatal(err)
	}

	factory := NewNodeFactory()
	factory.Register("test.append", func(c map[string]interface{}) (Node, error) {
		id, _ := c["id"].(int)
		return &appendNode{name: "append", id: int64(id)}, nil
	})

	p, err := cfg.BuildPipeline(factory)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "feed" || len(p.Nodes) != 2 {
		t.Fatalf("pipeline = %+v", p)
	}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].ID != 7 || out[1].ID != 8 {
		t.Fatalf("unexpected output %+v", out)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, NodeConfig{Type: "missing"})
	if _, err := cfg.BuildPipeline(factory); err == nil {
		t.Fatal("expected unknown node type error")
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	if _, err := ParseYAML([]byte("pipeline:\n  name: empty\n")); err == nil {
		t.Fatal("expected error for pipeline without nodes")
	}
}

func TestConfigDisabledNodes(t *testing.T) {
	factory := NewNodeFactory()
	factory.Register("test.append", func(c map[string]any) (Node, error) {
		id, _ := c["id"].(int)
		return &appendNode{name: "append", id: int64(id)}, nil
	})

	cfg, err := ParseYAML([]byte(`
pipeline:
  name: feed
  nodes:
    - type: test.append
      config: {id: 1}
    - type: test.append
      disabled: true
      config: {id: 2}
    - type: not.registered
      disabled: true
`))
	if err != nil {
		t.Fatal(err)
	}
	p, err := cfg.BuildPipeline(factory)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(p.Nodes))
	}

	if _, err := ParseYAML([]byte("pipeline:\n  nodes:\n    - type: test.append\n      disabled: true\n")); err == nil {
		t.Fatal("expected error when every node is disabled")
	}
	if got := factory.Types(); len(got) != 1 || got[0] != "test.append" {
		t.Errorf("Types = %v", got)
	}
}

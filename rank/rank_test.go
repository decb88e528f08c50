package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/utils"
)

func item(id int64, category string, score float64) *core.Item {
	it := core.NewDestinationItem(&core.Destination{ID: id, Category: category})
	it.Score = score
	return it
}

func TestCategoryBoostNode(t *testing.T) {
	tests := []struct {
		name    string
		node    *CategoryBoostNode
		params  map[string]any
		topCat  string
		wantIDs []int64
		wantTop float64
	}{
		{"boost reorders", &CategoryBoostNode{Boost: 0.5}, nil, "A", []int64{2, 1, 4, 3}, 0.95},
		{"param override", &CategoryBoostNode{Boost: 0.5}, map[string]any{"boost_factor": 0.0}, "A", []int64{1, 3, 2, 4}, 0.9},
		{"no top category", &CategoryBoostNode{Boost: 0.5}, nil, "", []int64{1, 3, 2, 4}, 0.9},
		{"large boost", &CategoryBoostNode{Boost: 2}, nil, "A", []int64{2, 4, 1, 3}, 2.45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []*core.Item{item(1, "B", 0.9), item(2, "A", 0.45), item(3, "C", 0.5), item(4, "A", 0.1)}
			rctx := &core.RecommendContext{Params: tt.params}
			if tt.topCat != "" {
				rctx.SetLabel("top_category", utils.NewLabel(tt.topCat, "recall"))
			}
			out, err := tt.node.Process(context.Background(), rctx, items)
			if err != nil {
				t.Fatal(err)
			}
			for i, id := range tt.wantIDs {
				if out[i].ID != id {
					t.Fatalf("order[%d] = %d, want %d", i, out[i].ID, id)
				}
			}
			if math.Abs(out[0].Score-tt.wantTop) > 1e-9 {
				t.Errorf("top score = %v, want %v", out[0].Score, tt.wantTop)
			}
		})
	}
}

func TestCategoryBoostAppliedOnce(t *testing.T) {
	node := &CategoryBoostNode{Boost: 0.5}
	rctx := &core.RecommendContext{}
	rctx.SetLabel("top_category", utils.NewLabel("A", "recall"))
	items := []*core.Item{item(1, "A", 0.2)}

	for i := 0; i < 2; i++ {
		if _, err := node.Process(context.Background(), rctx, items); err != nil {
			t.Fatal(err)
		}
	}
	if math.Abs(items[0].Score-0.7) > 1e-9 {
		t.Fatalf("score = %v, want 0.7", items[0].Score)
	}
	if lbl, ok := items[0].GetLabel("boosted"); !ok || lbl.Value != "0.5" {
		t.Errorf("boosted label = %+v", lbl)
	}
}

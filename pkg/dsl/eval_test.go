package dsl

import (
	"testing"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/utils"
)

func TestProgramEvaluate(t *testing.T) {
	item := core.NewDestinationItem(&core.Destination{ID: 4, Name: "Pantai Pangandaran", Category: "Pantai", City: "Pangandaran"})
	item.Score = 0.42
	item.PutLabel("boosted", utils.Label{Value: "true", Source: "rank"})
	rctx := &core.RecommendContext{Scene: core.SceneFeed, History: []int64{1, 2, 3, 4}}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"category", `item.category == "Pantai"`, true},
		{"city in list", `item.city in ["Bandung", "Garut"]`, false},
		{"score", `item.score > 0.4`, true},
		{"label present", `has(label.boosted) && label.boosted == "true"`, true},
		{"label missing", `has(label.filtered)`, false},
		{"history size", `rctx.scene == "feed" && size(rctx.history) > 3`, true},
		{"id", `item.id == 4`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.expr, err)
			}
			got, err := p.Evaluate(item, rctx)
			if err != nil {
				t.Fatalf("Evaluate error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompileError(t *testing.T) {
	if _, err := Compile(`item.category ==`); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestEvalNonBoolean(t *testing.T) {
	item := core.NewItem(1)
	if _, err := Eval(`item.score + 1.0`, item, nil); err == nil {
		t.Fatal("expected error for non-boolean expression")
	}
	ok, err := Eval("", item, nil)
	if err != nil || !ok {
		t.Fatalf("empty expression should be true, got %v %v", ok, err)
	}
}

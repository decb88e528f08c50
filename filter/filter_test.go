package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/store"
)

func items() []*core.Item {
	mk := func(id int64, cat string, score float64) *core.Item {
		it := core.NewDestinationItem(&core.Destination{ID: id, Name: "d", Category: cat})
		it.Score = score
		return it
	}
	return []*core.Item{mk(1, "Alam", 0.9), mk(2, "Kota", 0.8), mk(3, "Alam", 0.3), mk(4, "Budaya", 0.1)}
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type failingFilter struct{}

func (failingFilter) Name() string { return "failing" }
func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("boom")
}

func TestFilterNode(t *testing.T) {
	exprFilter, err := NewExprFilter(`item.category == "Budaya"`)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		filters []Filter
		history []int64
		want    []int64
	}{
		{"no filters", nil, nil, []int64{1, 2, 3, 4}},
		{"history", []Filter{NewHistoryFilter()}, []int64{3, 1, 99}, []int64{2, 4}},
		{"blacklist", []Filter{NewBlacklistFilter([]int64{2}, nil, "")}, nil, []int64{1, 3, 4}},
		{"expr", []Filter{exprFilter}, nil, []int64{1, 2, 3}},
		{"combined", []Filter{NewHistoryFilter(), exprFilter}, []int64{1}, []int64{2, 3}},
		{"error keeps item", []Filter{failingFilter{}}, nil, []int64{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &FilterNode{Filters: tt.filters}
			out, err := node.Process(context.Background(), &core.RecommendContext{History: tt.history}, items())
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !equal(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlacklistFromStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()

	f := NewBlacklistFilter(nil, mem, "blacklist:destinations")
	node := &FilterNode{Filters: []Filter{f}}

	out, _ := node.Process(ctx, &core.RecommendContext{}, items())
	if len(out) != 4 {
		t.Fatalf("missing key should filter nothing, got %v", ids(out))
	}

	if err := mem.Set(ctx, "blacklist:destinations", []byte("[1, 4]")); err != nil {
		t.Fatal(err)
	}
	out, _ = node.Process(ctx, &core.RecommendContext{}, items())
	if got := ids(out); !equal(got, []int64{2, 3}) {
		t.Fatalf("ids = %v, want [2 3]", got)
	}
}

func TestExprFilterInvalid(t *testing.T) {
	if _, err := NewExprFilter("item.category =="); err == nil {
		t.Fatal("expected compile error")
	}
}

type countingStore struct {
	core.Store
	gets int
}

func (s *countingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.gets++
	return s.Store.Get(ctx, key)
}

func TestBlacklistLoadedOncePerRequest(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()
	if err := mem.Set(ctx, "bl", []byte("[3]")); err != nil {
		t.Fatal(err)
	}

	cs := &countingStore{Store: mem}
	node := &FilterNode{Filters: []Filter{NewBlacklistFilter([]int64{1}, cs, "bl")}}
	out, err := node.Process(ctx, &core.RecommendContext{}, items())
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !equal(got, []int64{2, 4}) {
		t.Fatalf("ids = %v, want [2 4]", got)
	}
	if cs.gets != 1 {
		t.Errorf("store gets = %d, want 1", cs.gets)
	}
}

func TestBlacklistCorruptValueKeepsStatic(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()
	if err := mem.Set(ctx, "bl", []byte("not json")); err != nil {
		t.Fatal(err)
	}

	node := &FilterNode{Filters: []Filter{NewBlacklistFilter([]int64{2}, mem, "bl")}}
	out, _ := node.Process(ctx, &core.RecommendContext{}, items())
	if got := ids(out); !equal(got, []int64{1, 3, 4}) {
		t.Fatalf("ids = %v, want [1 3 4]", got)
	}
}

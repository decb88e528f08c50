package recall

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/corpus"
	"github.com/rushteam/jembertrip/store"
)

type stubEncoder struct {
	vectors map[string][]float64
	calls   int
}

func (e *stubEncoder) Name() string   { return "stub" }
func (e *stubEncoder) Dimension() int { return 3 }
func (e *stubEncoder) Encode(_ context.Context, text string) ([]float64, error) {
	e.calls++
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float64{0, 0, 1}, nil
}

func fixture(t *testing.T) (*corpus.Corpus, *store.MemoryVectorService) {
	t.Helper()
	c, err := corpus.New([]*core.Destination{
		{ID: 1, Name: "Kawah Putih", Category: "Alam", Embedding: []float64{1, 0, 0}},
		{ID: 2, Name: "Tangkuban Perahu", Category: "Alam", Embedding: []float64{0.9, 0.1, 0}},
		{ID: 3, Name: "Braga", Category: "Kota", Embedding: []float64{0, 1, 0}},
		{ID: 4, Name: "Alun-Alun", Category: "Kota", Embedding: []float64{0.2, 0.8, 0}},
		{ID: 5, Name: "Museum Geologi", Category: "Budaya", Embedding: []float64{0, 0, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	svc := store.NewMemoryVectorService()
	if err := c.Index(context.Background(), svc, ""); err != nil {
		t.Fatal(err)
	}
	return c, svc
}

func ids(items []*core.Item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestANNBlankQuery(t *testing.T) {
	c, svc := fixture(t)
	enc := &stubEncoder{}
	r := &ANN{Encoder: enc, Vectors: svc, Catalog: c}

	for _, q := range []string{"", "   ", "\t\n"} {
		items, err := r.Recall(context.Background(), &core.RecommendContext{Query: q})
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 0 {
			t.Fatalf("query %q returned %d items", q, len(items))
		}
	}
	if enc.calls != 0 {
		t.Fatalf("encoder called %d times for blank queries", enc.calls)
	}
}

func TestANNRecall(t *testing.T) {
	c, svc := fixture(t)
	enc := &stubEncoder{vectors: map[string][]float64{"kawah": {1, 0, 0}}}
	r := &ANN{Encoder: enc, Vectors: svc, Catalog: c}

	items, err := r.Recall(context.Background(), &core.RecommendContext{Query: "kawah"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 5 {
		t.Fatalf("got %d items, want full corpus", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Score > items[i-1].Score {
			t.Fatalf("scores not sorted: %v", ids(items))
		}
	}
	if items[0].ID != 1 || items[0].Destination == nil {
		t.Fatalf("top item = %+v", items[0])
	}
	if lbl, _ := items[0].GetLabel("recall_source"); lbl.Value != "ann" {
		t.Errorf("recall_source = %q", lbl.Value)
	}

	items, err = r.Recall(context.Background(), &core.RecommendContext{
		Query:  "kawah",
		Params: map[string]any{"top_k": 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(items); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Fatalf("top_k=2 ids = %v", got)
	}
}

func TestANNTiesKeepCorpusOrder(t *testing.T) {
	c, svc := fixture(t)
	// 与 Alam/Kota 两类均正交，前四个目的地同分为 0
	enc := &stubEncoder{vectors: map[string][]float64{"museum": {0, 0, 1}}}
	r := &ANN{Encoder: enc, Vectors: svc, Catalog: c}

	items, err := r.Recall(context.Background(), &core.RecommendContext{Query: "museum"})
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(items); !reflect.DeepEqual(got, []int64{5, 1, 2, 3, 4}) {
		t.Fatalf("ids = %v, want [5 1 2 3 4]", got)
	}
}

func TestResolveHistory(t *testing.T) {
	c, _ := fixture(t)
	resolved, dropped := ResolveHistory(c, []int64{3, 99, 1, 3, 98, 99})
	if len(resolved) != 2 || resolved[0].ID != 3 || resolved[1].ID != 1 {
		t.Fatalf("resolved = %+v", resolved)
	}
	if !reflect.DeepEqual(dropped, []int64{99, 98}) {
		t.Fatalf("dropped = %v", dropped)
	}
}

func TestTopCategory(t *testing.T) {
	d := func(cat string) *core.Destination { return &core.Destination{Category: cat} }
	tests := []struct {
		name  string
		dests []*core.Destination
		want  string
	}{
		{"single", []*core.Destination{d("Alam")}, "Alam"},
		{"majority", []*core.Destination{d("Kota"), d("Alam"), d("Alam")}, "Alam"},
		{"tie keeps first seen", []*core.Destination{d("Kota"), d("Alam"), d("Alam"), d("Kota")}, "Kota"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TopCategory(tt.dests); got != tt.want {
				t.Errorf("TopCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserInterest(t *testing.T) {
	c, svc := fixture(t)
	r := &UserInterest{Vectors: svc, Catalog: c}

	rctx := &core.RecommendContext{History: []int64{1, 2, 404}}
	items, err := r.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 5 {
		t.Fatalf("got %d items, want 5", len(items))
	}
	if lbl, ok := rctx.GetLabel(LabelTopCategory); !ok || lbl.Value != "Alam" {
		t.Fatalf("top_category = %+v", lbl)
	}
	if lbl, _ := rctx.GetLabel(LabelHistoryResolved); lbl.Value != "2" {
		t.Errorf("history_resolved = %q", lbl.Value)
	}
}

func TestUserInterestNoHistory(t *testing.T) {
	c, svc := fixture(t)
	r := &UserInterest{Vectors: svc, Catalog: c}

	for _, h := range [][]int64{nil, {404, 405}} {
		_, err := r.Recall(context.Background(), &core.RecommendContext{History: h})
		if !errors.Is(err, ErrNoInterest) {
			t.Fatalf("history %v: err = %v, want ErrNoInterest", h, err)
		}
	}
}

func TestSampleIndices(t *testing.T) {
	a := SampleIndices(10, 4, DefaultSeed)
	b := SampleIndices(10, 4, DefaultSeed)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed gave %v and %v", a, b)
	}
	seen := map[int]bool{}
	for _, i := range a {
		if i < 0 || i >= 10 || seen[i] {
			t.Fatalf("invalid or duplicate index in %v", a)
		}
		seen[i] = true
	}
	if got := SampleIndices(3, 9, DefaultSeed); len(got) != 3 {
		t.Fatalf("k > n returned %d indices", len(got))
	}
	if got := SampleIndices(0, 9, DefaultSeed); len(got) != 0 {
		t.Fatalf("empty population returned %v", got)
	}
}

func TestColdStart(t *testing.T) {
	c, _ := fixture(t)
	r := &ColdStart{Catalog: c, Seed: DefaultSeed, N: 9}

	first, err := r.Recall(context.Background(), &core.RecommendContext{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 5 {
		t.Fatalf("got %d items, want whole corpus", len(first))
	}
	second, _ := r.Recall(context.Background(), &core.RecommendContext{})
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Fatalf("cold start not reproducible: %v vs %v", ids(first), ids(second))
	}

	three, _ := r.Recall(context.Background(), &core.RecommendContext{Params: map[string]any{"top_n": 3}})
	if len(three) != 3 {
		t.Fatalf("top_n=3 returned %d items", len(three))
	}
}

func TestSimilar(t *testing.T) {
	c, svc := fixture(t)
	r := &Similar{Vectors: svc, Catalog: c}

	items, err := r.Recall(context.Background(), &core.RecommendContext{
		Params: map[string]any{ParamAnchorID: int64(1)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	for _, it := range items {
		if it.ID == 1 {
			t.Fatal("anchor must not be in its own similar list")
		}
	}
	if items[0].ID != 2 {
		t.Errorf("most similar = %d, want 2", items[0].ID)
	}

	_, err = r.Recall(context.Background(), &core.RecommendContext{
		Params: map[string]any{ParamAnchorID: int64(404)},
	})
	if !core.IsNotFound(err) {
		t.Fatalf("unknown anchor: err = %v", err)
	}
}

type stubSource struct {
	name  string
	ids   []int64
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*core.Item, len(s.ids))
	for i, id := range s.ids {
		out[i] = core.NewItem(id)
	}
	return out, nil
}

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		fanout  *Fanout
		want    []int64
		wantErr error
	}{
		{
			name: "priority merge keeps source order",
			fanout: &Fanout{Sources: []Source{
				&stubSource{name: "a", ids: []int64{3, 1}, delay: 20 * time.Millisecond},
				&stubSource{name: "b", ids: []int64{1, 2, 4}},
			}},
			want: []int64{3, 1, 2, 4},
		},
		{
			name: "union keeps duplicates",
			fanout: &Fanout{MergeStrategy: MergeUnion, Sources: []Source{
				&stubSource{name: "a", ids: []int64{1}},
				&stubSource{name: "b", ids: []int64{1, 2}},
			}},
			want: []int64{1, 1, 2},
		},
		{
			name: "secondary failure is skipped",
			fanout: &Fanout{MaxConcurrent: 1, Sources: []Source{
				&stubSource{name: "a", ids: []int64{2}},
				&stubSource{name: "b", err: boom},
			}},
			want: []int64{2},
		},
		{
			name: "secondary timeout is skipped",
			fanout: &Fanout{Timeout: 10 * time.Millisecond, Sources: []Source{
				&stubSource{name: "a", ids: []int64{5}},
				&stubSource{name: "slow", ids: []int64{6}, delay: time.Second},
			}},
			want: []int64{5},
		},
		{
			name: "primary failure aborts",
			fanout: &Fanout{Sources: []Source{
				&stubSource{name: "a", err: boom},
				&stubSource{name: "b", ids: []int64{1}},
			}},
			wantErr: boom,
		},
		{
			name:   "no sources",
			fanout: &Fanout{},
			want:   []int64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.fanout.Recall(context.Background(), &core.RecommendContext{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFanoutLabels(t *testing.T) {
	f := &Fanout{Sources: []Source{
		&stubSource{name: "a", ids: []int64{1}},
		&stubSource{name: "b", ids: []int64{1, 2}},
	}}
	out, err := f.Recall(context.Background(), &core.RecommendContext{})
	if err != nil {
		t.Fatal(err)
	}
	src, _ := out[0].GetLabel("recall_source")
	prio, _ := out[0].GetLabel("recall_priority")
	if src.Value != "a" || prio.Value != "0" {
		t.Errorf("item 1 labels = %q/%q, want a/0", src.Value, prio.Value)
	}
	prio, _ = out[1].GetLabel("recall_priority")
	if prio.Value != "1" {
		t.Errorf("item 2 priority = %q, want 1", prio.Value)
	}
}

type panicSource struct{ name string }

func (s panicSource) Name() string { return s.name }
func (s panicSource) Recall(context.Context, *core.RecommendContext) ([]*core.Item, error) {
	var m map[string]int
	m["x"] = 1
	return nil, nil
}

func TestFanoutSourcePanic(t *testing.T) {
	secondary := &Fanout{Sources: []Source{
		&stubSource{name: "a", ids: []int64{1, 2}},
		panicSource{name: "broken"},
	}}
	out, err := secondary.Recall(context.Background(), &core.RecommendContext{})
	if err != nil {
		t.Fatalf("secondary panic should be skipped, got %v", err)
	}
	if got := ids(out); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Fatalf("ids = %v, want [1 2]", got)
	}

	primary := &Fanout{Sources: []Source{
		panicSource{name: "broken"},
		&stubSource{name: "b", ids: []int64{3}},
	}}
	if _, err := primary.Recall(context.Background(), &core.RecommendContext{}); err == nil {
		t.Fatal("primary panic should surface as an error")
	}
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/jembertrip/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("expected store not found, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "short", []byte("1"), 10)
	_ = s.BatchSet(ctx, map[string][]byte{"a": []byte("a"), "b": []byte("b")}, 60)

	now = now.Add(30 * time.Second)
	if _, err := s.Get(ctx, "short"); err != ErrNotFound {
		t.Fatalf("expected expired key, got %v", err)
	}

	got, err := s.BatchGet(ctx, []string{"a", "b", "short", "none"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || string(got["a"]) != "a" {
		t.Fatalf("BatchGet = %v", got)
	}
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func newTestIndex(t *testing.T) *MemoryVectorService {
	t.Helper()
	ctx := context.Background()
	svc := NewMemoryVectorService()
	if err := svc.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "items", Dimension: 2}); err != nil {
		t.Fatal(err)
	}
	err := svc.Insert(ctx, &core.VectorInsertRequest{
		Collection: "items",
		IDs:        []int64{10, 20, 30, 40},
		Vectors:    [][]float64{{1, 0}, {0, 1}, {1, 0}, {1, 1}},
		Metadata: []map[string]interface{}{
			{"category": "A"}, {"category": "B"}, {"category": "A"}, {"category": "B"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestMemoryVectorServiceSearch(t *testing.T) {
	svc := newTestIndex(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *core.VectorSearchRequest
		wantIDs []int64
	}{
		{
			name:    "all rows stable ties",
			req:     &core.VectorSearchRequest{Collection: "items", Vector: []float64{1, 0}},
			wantIDs: []int64{10, 30, 40, 20},
		},
		{
			name:    "topk",
			req:     &core.VectorSearchRequest{Collection: "items", Vector: []float64{1, 0}, TopK: 2},
			wantIDs: []int64{10, 30},
		},
		{
			name:    "exclude",
			req:     &core.VectorSearchRequest{Collection: "items", Vector: []float64{1, 0}, Exclude: []int64{10}},
			wantIDs: []int64{30, 40, 20},
		},
		{
			name:    "filter",
			req:     &core.VectorSearchRequest{Collection: "items", Vector: []float64{1, 0}, Filter: map[string]interface{}{"category": "B"}},
			wantIDs: []int64{40, 20},
		},
		{
			name:    "unknown collection",
			req:     &core.VectorSearchRequest{Collection: "nope", Vector: []float64{1, 0}},
			wantIDs: []int64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Search(ctx, tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Items) != len(tt.wantIDs) {
				t.Fatalf("got %d items, want %d", len(res.Items), len(tt.wantIDs))
			}
			for i, it := range res.Items {
				if it.ID != tt.wantIDs[i] {
					t.Errorf("item[%d] = %d, want %d", i, it.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestMemoryVectorServiceErrors(t *testing.T) {
	svc := newTestIndex(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, &core.VectorSearchRequest{Collection: "items", Vector: []float64{1, 0, 0}})
	if !core.IsInvalidInput(err) {
		t.Fatalf("expected invalid input for dimension mismatch, got %v", err)
	}

	err = svc.Insert(ctx, &core.VectorInsertRequest{Collection: "missing", IDs: []int64{1}, Vectors: [][]float64{{1, 1}}})
	if !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	err = svc.CreateCollection(ctx, &core.VectorCreateCollectionRequest{Name: "items", Dimension: 2})
	if err == nil {
		t.Fatal("expected duplicate collection error")
	}
}

func TestMemoryVectorServiceOverwriteKeepsOrder(t *testing.T) {
	svc := newTestIndex(t)
	ctx := context.Background()

	err := svc.Insert(ctx, &core.VectorInsertRequest{Collection: "items", IDs: []int64{10}, Vectors: [][]float64{{0, 1}}})
	if err != nil {
		t.Fatal(err)
	}
	res, err := svc.Search(ctx, &core.VectorSearchRequest{Collection: "items", Vector: []float64{0, 1}, TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	// 10 已被覆盖为 {0,1}，与 20 同分，但 10 插入更早
	if res.Items[0].ID != 10 || res.Items[1].ID != 20 {
		t.Fatalf("unexpected order: %+v", res.Items)
	}
}

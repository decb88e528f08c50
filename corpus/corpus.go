// Package corpus 持有目的地语料：条目列表 + 平行向量矩阵 + ID/名称索引。
//
// Corpus 在启动时构建一次，之后只读，可被所有请求无锁共享。
package corpus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rushteam/jembertrip/core"
)

// DefaultCollection 是语料在向量服务中的集合名
const DefaultCollection = "destinations"

var (
	// ErrEmptyCorpus 表示数据源没有任何目的地
	ErrEmptyCorpus = core.NewDomainError(core.ModuleCorpus, core.ErrorCodeInvalidInput, "corpus: no destinations loaded")
)

// Corpus 是只读语料。第 i 行向量属于第 i 个目的地。
type Corpus struct {
	items  []*core.Destination
	matrix [][]float64
	byID   map[int64]int
	byName map[string]int
	dim    int
}

// New 校验并构建语料：非空、向量同维且非空、ID 唯一、名称唯一。
// 传入切片的顺序即语料顺序。
func New(dests []*core.Destination) (*Corpus, error) {
	if len(dests) == 0 {
		return nil, ErrEmptyCorpus
	}

	c := &Corpus{
		items:  make([]*core.Destination, 0, len(dests)),
		matrix: make([][]float64, 0, len(dests)),
		byID:   make(map[int64]int, len(dests)),
		byName: make(map[string]int, len(dests)),
		dim:    len(dests[0].Embedding),
	}
	if c.dim == 0 {
		return nil, invalid("destination %d has no embedding", dests[0].ID)
	}

	for i, d := range dests {
		if d == nil {
			return nil, invalid("destination at row %d is nil", i)
		}
		if len(d.Embedding) != c.dim {
			return nil, invalid("destination %d embedding dimension %d, want %d", d.ID, len(d.Embedding), c.dim)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, invalid("duplicate destination id %d", d.ID)
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, invalid("duplicate destination name %q", d.Name)
		}
		c.byID[d.ID] = i
		c.byName[d.Name] = i
		c.items = append(c.items, d)
		c.matrix = append(c.matrix, d.Embedding)
	}
	return c, nil
}

func invalid(format string, args ...any) error {
	return core.NewDomainError(core.ModuleCorpus, core.ErrorCodeInvalidInput, "corpus: "+fmt.Sprintf(format, args...))
}

// Len 返回目的地数量
func (c *Corpus) Len() int { return len(c.items) }

// Dimension 返回向量维度
func (c *Corpus) Dimension() int { return c.dim }

// Items 返回语料顺序的目的地列表（浅拷贝切片，调用方不得修改元素）
func (c *Corpus) Items() []*core.Destination {
	out := make([]*core.Destination, len(c.items))
	copy(out, c.items)
	return out
}

// At 返回第 i 行目的地
func (c *Corpus) At(i int) *core.Destination { return c.items[i] }

// Row 返回第 i 行向量
func (c *Corpus) Row(i int) []float64 { return c.matrix[i] }

// RowOf 返回 ID 对应的行号
func (c *Corpus) RowOf(id int64) (int, bool) {
	i, ok := c.byID[id]
	return i, ok
}

// ByID 按 ID 查找
func (c *Corpus) ByID(id int64) (*core.Destination, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

// ByName 按名称精确查找
func (c *Corpus) ByName(name string) (*core.Destination, bool) {
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.items[i], true
}

// Lookup 先按名称查找，找不到且 key 是整数时再按 ID 查找。
func (c *Corpus) Lookup(key string) (*core.Destination, bool) {
	if d, ok := c.ByName(key); ok {
		return d, true
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64); err == nil {
		return c.ByID(id)
	}
	return nil, false
}

// Index 把语料按顺序写入向量服务，元数据包含 category 与 city。
func (c *Corpus) Index(ctx context.Context, svc core.VectorDatabaseService, collection string) error {
	if collection == "" {
		collection = DefaultCollection
	}
	exists, err := svc.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if !exists {
		err = svc.CreateCollection(ctx, &core.VectorCreateCollectionRequest{
			Name:      collection,
			Dimension: c.dim,
			Metric:    string(core.MetricCosine),
		})
		if err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}

	ids := make([]int64, len(c.items))
	meta := make([]map[string]interface{}, len(c.items))
	for i, d := range c.items {
		ids[i] = d.ID
		meta[i] = map[string]interface{}{
			core.MetaCategory: d.Category,
			core.MetaCity:     d.City,
		}
	}
	err = svc.Insert(ctx, &core.VectorInsertRequest{
		Collection: collection,
		IDs:        ids,
		Vectors:    c.matrix,
		Metadata:   meta,
	})
	if err != nil {
		return fmt.Errorf("insert vectors: %w", err)
	}
	return nil
}

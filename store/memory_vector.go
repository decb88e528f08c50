package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/vecmath"
)

// MemoryVectorService 是内存实现的向量服务，精确暴力检索。
//
// 特点：
//   - 每个集合按插入顺序保存向量，同分结果保持插入顺序（稳定排序）
//   - TopK <= 0 时返回集合内全部结果
//   - 支持余弦相似度、欧氏距离、内积
//   - 线程安全；建索引后只读的场景下检索之间无写锁竞争
type MemoryVectorService struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	name      string
	dimension int
	metric    string
	ids       []int64
	vectors   [][]float64
	metadata  []map[string]interface{}
	pos       map[int64]int // item ID -> 下标
}

// NewMemoryVectorService 创建内存向量服务实例。
func NewMemoryVectorService() *MemoryVectorService {
	return &MemoryVectorService{
		collections: make(map[string]*collection),
	}
}

func (m *MemoryVectorService) Name() string { return "memory_vector" }

// Search 实现 core.VectorService 接口
func (m *MemoryVectorService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector search request is nil")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return &core.VectorSearchResult{Items: []core.VectorSearchItem{}}, nil
	}

	if len(req.Vector) != col.dimension {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector dimension mismatch")
	}

	metric := req.Metric
	if metric == "" {
		metric = col.metric
	}
	score := scorer(metric)

	exclude := make(map[int64]struct{}, len(req.Exclude))
	for _, id := range req.Exclude {
		exclude[id] = struct{}{}
	}

	items := make([]core.VectorSearchItem, 0, len(col.ids))
	for i, id := range col.ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, skip := exclude[id]; skip {
			continue
		}
		if req.Filter != nil && !matchFilter(req.Filter, col.metadata[i]) {
			continue
		}
		items = append(items, core.VectorSearchItem{
			ID:    id,
			Score: score(req.Vector, col.vectors[i]),
		})
	}

	// 按分数降序，同分保持插入顺序
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	if req.TopK > 0 && len(items) > req.TopK {
		items = items[:req.TopK]
	}

	return &core.VectorSearchResult{Items: items}, nil
}

// Close 实现 core.VectorService 接口
func (m *MemoryVectorService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*collection)
	return nil
}

// CreateCollection 实现 core.VectorDatabaseService 接口
func (m *MemoryVectorService) CreateCollection(ctx context.Context, req *core.VectorCreateCollectionRequest) error {
	if req == nil {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "create collection request is nil")
	}
	if req.Name == "" {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection name is required")
	}
	if req.Dimension <= 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "dimension must be greater than 0")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.collections[req.Name]; exists {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "collection already exists: "+req.Name)
	}

	metric := req.Metric
	if !core.ValidateVectorMetric(metric) {
		metric = string(core.MetricCosine)
	}

	m.collections[req.Name] = &collection{
		name:      req.Name,
		dimension: req.Dimension,
		metric:    metric,
		pos:       make(map[int64]int),
	}
	return nil
}

// HasCollection 实现 core.VectorDatabaseService 接口
func (m *MemoryVectorService) HasCollection(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.collections[name]
	return exists, nil
}

// Insert 实现 core.VectorDatabaseService 接口。
// 已存在的 ID 原位覆盖，不改变其顺序。
func (m *MemoryVectorService) Insert(ctx context.Context, req *core.VectorInsertRequest) error {
	if req == nil {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "insert request is nil")
	}
	if len(req.Vectors) != len(req.IDs) {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vectors and ids length mismatch")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeNotFound, "collection not found: "+req.Collection)
	}

	for _, vector := range req.Vectors {
		if len(vector) != col.dimension {
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector dimension mismatch")
		}
	}

	for i, vector := range req.Vectors {
		var meta map[string]interface{}
		if len(req.Metadata) > i {
			meta = req.Metadata[i]
		}
		id := req.IDs[i]
		if p, exists := col.pos[id]; exists {
			col.vectors[p] = vector
			col.metadata[p] = meta
			continue
		}
		col.pos[id] = len(col.ids)
		col.ids = append(col.ids, id)
		col.vectors = append(col.vectors, vector)
		col.metadata = append(col.metadata, meta)
	}
	return nil
}

func scorer(metric string) func(a, b []float64) float64 {
	switch metric {
	case string(core.MetricEuclidean):
		// 欧氏距离转换为相似度分数（距离越小，分数越高）
		return func(a, b []float64) float64 { return 1.0 / (1.0 + vecmath.Euclidean(a, b)) }
	case string(core.MetricInnerProduct):
		return vecmath.InnerProduct
	default:
		return vecmath.Cosine
	}
}

// matchFilter 检查元数据是否匹配过滤条件（等值比较）
func matchFilter(filter map[string]interface{}, metadata map[string]interface{}) bool {
	if metadata == nil {
		return false
	}
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

var (
	_ core.VectorService         = (*MemoryVectorService)(nil)
	_ core.VectorDatabaseService = (*MemoryVectorService)(nil)
)

package core

import "context"

// VectorService 是向量检索服务的领域接口。
//
// 定义在领域层（core），由基础设施层（store）实现。
//
// 使用场景：
//   - 语义搜索：查询文本向量检索目的地
//   - 兴趣召回：用户兴趣向量对全部目的地打分
//   - 相似推荐：以物品自身向量检索
//
// 实现：
//   - store.MemoryVectorService 精确暴力检索，保持插入顺序作为同分裁决
type VectorService interface {
	// Search 向量搜索
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close 关闭连接
	Close() error
}

// VectorDatabaseService 在 VectorService 之上增加写入能力，用于启动时建索引。
type VectorDatabaseService interface {
	VectorService

	// CreateCollection 创建集合
	CreateCollection(ctx context.Context, req *VectorCreateCollectionRequest) error

	// HasCollection 检查集合是否存在
	HasCollection(ctx context.Context, collection string) (bool, error)

	// Insert 按顺序插入向量，插入顺序即同分时的输出顺序
	Insert(ctx context.Context, req *VectorInsertRequest) error
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// Collection 集合名称
	Collection string

	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最相似的结果；<= 0 表示返回全部
	TopK int

	// Metric 距离度量方式：cosine / euclidean / inner_product
	Metric string

	// Exclude 需要跳过的 ID（例如相似推荐中的物品自身）
	Exclude []int64

	// Filter 元数据等值过滤条件（可选）
	Filter map[string]interface{}
}

// VectorSearchItem 单个向量搜索结果项
type VectorSearchItem struct {
	// ID 物品 ID
	ID int64

	// Score 相似度分数
	Score float64
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	// Items 搜索结果项列表（按相似度降序，同分保持插入顺序）
	Items []VectorSearchItem
}

// VectorCreateCollectionRequest 创建集合请求
type VectorCreateCollectionRequest struct {
	Name      string
	Dimension int
	Metric    string
}

// VectorInsertRequest 插入请求
type VectorInsertRequest struct {
	Collection string
	IDs        []int64
	Vectors    [][]float64
	Metadata   []map[string]interface{}
}

// ValidateVectorMetric 验证距离度量类型
func ValidateVectorMetric(metric string) bool {
	switch metric {
	case "cosine", "euclidean", "inner_product":
		return true
	default:
		return false
	}
}

// MetricType 距离度量类型
type MetricType string

const (
	MetricCosine       MetricType = "cosine"
	MetricEuclidean    MetricType = "euclidean"
	MetricInnerProduct MetricType = "inner_product"
)

package core

// Destination 是一条旅游目的地记录，对应语料中的一行。
// Embedding 与语料中其它行维度一致，不参与 JSON 输出。
type Destination struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Category    string    `json:"category" yaml:"category"`
	City        string    `json:"city" yaml:"city"`
	Address     string    `json:"address" yaml:"address"`
	Description string    `json:"description" yaml:"description"`
	Image       string    `json:"image" yaml:"image"`
	Embedding   []float64 `json:"-" yaml:"-"`
}

// DestinationRecord 是带向量的序列化形态，用于语料快照与离线文件。
type DestinationRecord struct {
	Destination `yaml:",inline"`
	Embedding   []float64 `json:"embedding" yaml:"embedding"`
}

// ToRecord 转为可序列化记录。
func (d *Destination) ToRecord() DestinationRecord {
	return DestinationRecord{Destination: *d, Embedding: d.Embedding}
}

// ToDestination 还原为目的地；记录中的 embedding 覆盖嵌入字段。
func (r DestinationRecord) ToDestination() *Destination {
	d := r.Destination
	d.Embedding = r.Embedding
	return &d
}

// 向量集合中目的地元数据的字段名
const (
	MetaCategory = "category"
	MetaCity     = "city"
)

// Scope 把检索限定在某个类别或城市内，空字段不参与过滤。
type Scope struct {
	Category string
	City     string
}

func (s Scope) IsZero() bool { return s.Category == "" && s.City == "" }

// Filter 转为向量检索的元数据等值条件；零值返回 nil。
func (s Scope) Filter() map[string]interface{} {
	if s.IsZero() {
		return nil
	}
	f := make(map[string]interface{}, 2)
	if s.Category != "" {
		f[MetaCategory] = s.Category
	}
	if s.City != "" {
		f[MetaCity] = s.City
	}
	return f
}

package core

import "context"

// TextEncoder 是文本编码器的领域接口：把文本映射到与语料相同的向量空间。
//
// 实现：
//   - model.HTTPEncoder 调用外部 sentence-embedding 服务
//   - model.HashEncoder 本地特征哈希，用于开发/测试
//   - model.CachedEncoder 为任意实现增加读穿缓存
//
// 同一输入必须得到同一输出。
type TextEncoder interface {
	// Name 返回编码器名称（用于日志/缓存 key）
	Name() string

	// Dimension 返回输出向量维度
	Dimension() int

	// Encode 编码单条文本
	Encode(ctx context.Context, text string) ([]float64, error)
}

// BatchEncoder 是支持批量编码的扩展接口。
type BatchEncoder interface {
	TextEncoder

	// EncodeBatch 批量编码，结果与输入一一对应
	EncodeBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Initializer 由初始化代价较高的组件实现（模型加载、远端预热）。
type Initializer interface {
	Init(ctx context.Context) error
}

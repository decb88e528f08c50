package core

import "time"

// RecommendConfig 是推荐相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultTopN 返回个性化推荐默认条数
	DefaultTopN() int

	// DefaultBoostFactor 返回兴趣类别的加分
	DefaultBoostFactor() float64

	// DefaultSimilarTopK 返回相似推荐默认条数
	DefaultSimilarTopK() int

	// DefaultSeed 返回冷启动采样的随机种子
	DefaultSeed() uint64

	// DefaultTimeout 返回单次推荐的超时时间
	DefaultTimeout() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultTopN() int {
	return 9
}

func (c *DefaultRecommendConfig) DefaultBoostFactor() float64 {
	return 0.5
}

func (c *DefaultRecommendConfig) DefaultSimilarTopK() int {
	return 3
}

func (c *DefaultRecommendConfig) DefaultSeed() uint64 {
	return 42
}

func (c *DefaultRecommendConfig) DefaultTimeout() time.Duration {
	return 5 * time.Second
}

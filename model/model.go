// Package model 提供文本编码器：把查询文本映射到语料所在的向量空间。
// 具体实现可以是远程服务（HTTPEncoder）或本地实现（HashEncoder）。
package model

import (
	"fmt"
	"time"

	"github.com/rushteam/jembertrip/core"
)

// 编码器类型
const (
	ProviderHTTP = "http"
	ProviderHash = "hash"
)

// EncoderConfig 描述如何构建编码器
type EncoderConfig struct {
	Provider  string
	Endpoint  string
	Model     string
	Dimension int
	BatchSize int
	Timeout   time.Duration

	// CacheTTL > 0 且提供了 Store 时启用向量缓存（秒）
	CacheTTL int
}

// NewEncoder 按配置构建编码器；cache 为 nil 时不启用缓存。
func NewEncoder(cfg EncoderConfig, cache core.Store) (core.TextEncoder, error) {
	var enc core.TextEncoder
	switch cfg.Provider {
	case ProviderHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("embedding endpoint is required for provider %q", cfg.Provider)
		}
		enc = NewHTTPEncoder(HTTPEncoderConfig{
			Endpoint:  cfg.Endpoint,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			BatchSize: cfg.BatchSize,
			Timeout:   cfg.Timeout,
		})
	case ProviderHash, "":
		enc = NewHashEncoder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("unknown encoder provider: %s", cfg.Provider)
	}

	if cache != nil && cfg.CacheTTL > 0 {
		ce := NewCachedEncoder(enc, cache, cfg.CacheTTL)
		if cfg.Timeout > 0 {
			ce.FlightTimeout = cfg.Timeout
		}
		return ce, nil
	}
	return enc, nil
}

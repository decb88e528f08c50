// Package config 提供应用配置加载与 Pipeline Node 注册。
package config

import (
	"fmt"
	"time"

	"github.com/rushteam/jembertrip/corpus"
	"github.com/rushteam/jembertrip/model"
	"github.com/rushteam/jembertrip/store"
)

// 语料数据源
const (
	CorpusSourceFile     = "file"
	CorpusSourcePostgres = "postgres"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Corpus        CorpusConfig        `yaml:"corpus" mapstructure:"corpus"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Embedding     EmbeddingConfig     `yaml:"embedding" mapstructure:"embedding"`
	Recommend     RecommendSettings   `yaml:"recommend" mapstructure:"recommend"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig 按客户端 IP 的限流配置，只作用于推荐接口
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
	Burst   int     `yaml:"burst" mapstructure:"burst"`
}

// Addr 返回监听地址
func (c HTTPServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CorpusConfig 语料配置
type CorpusConfig struct {
	// Source 取值 file / postgres
	Source     string         `yaml:"source" mapstructure:"source"`
	Path       string         `yaml:"path" mapstructure:"path"`
	Postgres   PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
	Collection string         `yaml:"collection" mapstructure:"collection"`

	// CacheTTL > 0 且启用 Redis 时缓存语料快照
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	Table           string        `yaml:"table" mapstructure:"table"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// LoaderConfig 转换为 corpus.PostgresConfig，列名使用默认映射。
func (c PostgresConfig) LoaderConfig() corpus.PostgresConfig {
	return corpus.PostgresConfig{
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		Table:           c.Table,
		Columns:         corpus.DefaultColumns(),
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置；未启用时使用进程内存缓存
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	KeyPrefix    string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// StoreConfig 转换为 store.RedisConfig
func (c RedisConfig) StoreConfig() store.RedisConfig {
	return store.RedisConfig{
		Addr:         fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		KeyPrefix:    c.KeyPrefix,
	}
}

// EmbeddingConfig 文本编码器配置
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"`
	Endpoint  string        `yaml:"endpoint" mapstructure:"endpoint"`
	Model     string        `yaml:"model" mapstructure:"model"`
	Dimension int           `yaml:"dimension" mapstructure:"dimension"`
	BatchSize int           `yaml:"batch_size" mapstructure:"batch_size"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CacheTTL  time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// EncoderConfig 转换为 model.EncoderConfig
func (c EmbeddingConfig) EncoderConfig() model.EncoderConfig {
	return model.EncoderConfig{
		Provider:  c.Provider,
		Endpoint:  c.Endpoint,
		Model:     c.Model,
		Dimension: c.Dimension,
		BatchSize: c.BatchSize,
		Timeout:   c.Timeout,
		CacheTTL:  int(c.CacheTTL / time.Second),
	}
}

// RecommendSettings 推荐参数，实现 core.RecommendConfig
type RecommendSettings struct {
	TopN        int           `yaml:"top_n" mapstructure:"top_n"`
	BoostFactor float64       `yaml:"boost_factor" mapstructure:"boost_factor"`
	SimilarTopK int           `yaml:"similar_top_k" mapstructure:"similar_top_k"`
	Seed        uint64        `yaml:"seed" mapstructure:"seed"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// FeedPipeline 为空时使用内置 feed 链路
	FeedPipeline string `yaml:"feed_pipeline" mapstructure:"feed_pipeline"`

	// ExcludeExpr 是 CEL 表达式，命中的目的地不出现在 feed 中
	ExcludeExpr string `yaml:"exclude_expr" mapstructure:"exclude_expr"`

	// Blacklist 是下线目的地 ID
	Blacklist    []int64 `yaml:"blacklist" mapstructure:"blacklist"`
	BlacklistKey string  `yaml:"blacklist_key" mapstructure:"blacklist_key"`
}

func (r RecommendSettings) DefaultTopN() int              { return r.TopN }
func (r RecommendSettings) DefaultBoostFactor() float64   { return r.BoostFactor }
func (r RecommendSettings) DefaultSimilarTopK() int       { return r.SimilarTopK }
func (r RecommendSettings) DefaultSeed() uint64           { return r.Seed }
func (r RecommendSettings) DefaultTimeout() time.Duration { return r.Timeout }

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CORS CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}

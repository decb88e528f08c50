package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/pkg/metrics"
	"github.com/rushteam/jembertrip/pkg/tracer"
)

// DefaultModel 是语料离线编码时使用的多语种句向量模型
const DefaultModel = "paraphrase-multilingual-MiniLM-L12-v2"

// HTTPEncoderConfig 是 HTTPEncoder 的配置
type HTTPEncoderConfig struct {
	Endpoint  string
	Model     string
	Dimension int // 期望维度，0 表示以预热结果为准
	BatchSize int
	Timeout   time.Duration
}

// HTTPEncoder 调用外部 sentence-embedding 服务编码文本。
//
// 协议：POST {endpoint}/embed，请求 {"texts": [...], "model": "..."}，
// 响应 {"embeddings": [[...], ...]}。
//
// 模型必须与离线编码语料时使用的模型一致，否则查询向量与语料不在同一空间。
type HTTPEncoder struct {
	endpoint   string
	model      string
	batchSize  int
	dimension  int
	httpClient *http.Client
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// NewHTTPEncoder 创建编码器，不发起网络请求；调用 Init 完成预热。
func NewHTTPEncoder(cfg HTTPEncoderConfig) *HTTPEncoder {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEncoder{
		endpoint:  cfg.Endpoint,
		model:     model,
		batchSize: batchSize,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (e *HTTPEncoder) Name() string { return "http:" + e.model }

func (e *HTTPEncoder) Dimension() int { return e.dimension }

// Init 预热：编码一条文本，确认服务可用且维度符合预期。
func (e *HTTPEncoder) Init(ctx context.Context) error {
	vecs, err := e.doBatch(ctx, []string{"warmup"})
	if err != nil {
		return fmt.Errorf("encoder warmup: %w", err)
	}
	got := len(vecs[0])
	if e.dimension > 0 && got != e.dimension {
		return core.NewDomainError(core.ModuleEncoder, core.ErrorCodeInvalidInput,
			fmt.Sprintf("encoder: model %s returned dimension %d, want %d", e.model, got, e.dimension))
	}
	e.dimension = got
	logger.Info(ctx, "encoder ready", "encoder", e.Name(), "dimension", got)
	return nil
}

func (e *HTTPEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *HTTPEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	ctx, span := tracer.Start(ctx, "encoder.http.EncodeBatch")
	defer span.End()

	start := time.Now()
	all := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.doBatch(ctx, texts[i:end])
		if err != nil {
			span.RecordError(err)
			metrics.EncodeTotal.WithLabelValues("http", "error").Inc()
			return nil, err
		}
		all = append(all, vecs...)
	}
	metrics.EncodeTotal.WithLabelValues("http", "success").Inc()
	metrics.EncodeDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	return all, nil
}

func (e *HTTPEncoder) doBatch(ctx context.Context, texts []string) ([][]float64, error) {
	reqBody, err := json.Marshal(&embedRequest{
		Texts: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	endpoint := strings.TrimRight(e.endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("embedding endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid embedding endpoint: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/embed"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding request failed: status=%d", httpResp.StatusCode)
	}

	var resp embedResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding response size %d, want %d", len(resp.Embeddings), len(texts))
	}
	for _, v := range resp.Embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedding response contains empty vector")
		}
	}
	return resp.Embeddings, nil
}

var (
	_ core.BatchEncoder = (*HTTPEncoder)(nil)
	_ core.Initializer  = (*HTTPEncoder)(nil)
)

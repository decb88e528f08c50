package model

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/pkg/metrics"
	"github.com/rushteam/jembertrip/pkg/tracer"
)

// CachedEncoder 为任意编码器增加读穿缓存（Read-Through）。
//
// key 由编码器名称与文本摘要组成，换模型后自然失效。
// 同一文本的并发未命中通过 singleflight 合并为一次下游调用。
// 合并后的调用脱离发起者的取消信号，只受 FlightTimeout 约束；
// 每个调用方仍按自己的 ctx 返回。
// 缓存读写失败只降级为直接编码，不返回错误。
type CachedEncoder struct {
	Encoder       core.TextEncoder
	Store         core.Store
	TTL           int // 秒
	Prefix        string
	FlightTimeout time.Duration

	group singleflight.Group
}

// NewCachedEncoder 创建带缓存的编码器
func NewCachedEncoder(enc core.TextEncoder, store core.Store, ttl int) *CachedEncoder {
	return &CachedEncoder{Encoder: enc, Store: store, TTL: ttl, Prefix: "emb:", FlightTimeout: 30 * time.Second}
}

func (e *CachedEncoder) Name() string { return e.Encoder.Name() }

func (e *CachedEncoder) Dimension() int { return e.Encoder.Dimension() }

// Init 透传给下游编码器
func (e *CachedEncoder) Init(ctx context.Context) error {
	if in, ok := e.Encoder.(core.Initializer); ok {
		return in.Init(ctx)
	}
	return nil
}

func (e *CachedEncoder) cacheKey(text string) string {
	sum := sha1.Sum([]byte(text))
	return e.Prefix + e.Encoder.Name() + ":" + hex.EncodeToString(sum[:])
}

func (e *CachedEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	ctx, span := tracer.Start(ctx, "encoder.cache.Encode")
	defer span.End()

	key := e.cacheKey(text)
	if data, err := e.Store.Get(ctx, key); err == nil {
		if vec, ok := decodeVector(data); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			metrics.EncoderCacheTotal.WithLabelValues("hit").Inc()
			return vec, nil
		}
	} else if !core.IsStoreNotFound(err) {
		logger.Warn(ctx, "encoder cache read failed", "store", e.Store.Name(), "error", err.Error())
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	metrics.EncoderCacheTotal.WithLabelValues("miss").Inc()

	ch := e.group.DoChan(key, func() (interface{}, error) {
		flightCtx := context.WithoutCancel(ctx)
		if e.FlightTimeout > 0 {
			var cancel context.CancelFunc
			flightCtx, cancel = context.WithTimeout(flightCtx, e.FlightTimeout)
			defer cancel()
		}
		vec, err := e.Encoder.Encode(flightCtx, text)
		if err != nil {
			return nil, err
		}
		e.put(flightCtx, map[string][]float64{key: vec})
		return vec, nil
	})
	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			span.RecordError(r.Err)
			return nil, r.Err
		}
		return r.Val.([]float64), nil
	}
}

// EncodeBatch 批量读缓存，只对未命中的文本调用下游。
func (e *CachedEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = e.cacheKey(t)
	}
	cached, err := e.Store.BatchGet(ctx, keys)
	if err != nil {
		logger.Warn(ctx, "encoder cache batch read failed", "store", e.Store.Name(), "error", err.Error())
		cached = map[string][]byte{}
	}

	out := make([][]float64, len(texts))
	var missIdx []int
	var missTexts []string
	for i, k := range keys {
		if vec, ok := decodeVector(cached[k]); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}
	metrics.EncoderCacheTotal.WithLabelValues("hit").Add(float64(len(texts) - len(missIdx)))
	metrics.EncoderCacheTotal.WithLabelValues("miss").Add(float64(len(missIdx)))
	if len(missIdx) == 0 {
		return out, nil
	}

	var fresh [][]float64
	if be, ok := e.Encoder.(core.BatchEncoder); ok {
		fresh, err = be.EncodeBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
	} else {
		fresh = make([][]float64, len(missTexts))
		for i, t := range missTexts {
			if fresh[i], err = e.Encoder.Encode(ctx, t); err != nil {
				return nil, err
			}
		}
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}

	toStore := make(map[string][]float64, len(missIdx))
	for j, i := range missIdx {
		out[i] = fresh[j]
		toStore[keys[i]] = fresh[j]
	}
	e.put(ctx, toStore)
	return out, nil
}

func (e *CachedEncoder) put(ctx context.Context, vecs map[string][]float64) {
	kvs := make(map[string][]byte, len(vecs))
	for k, v := range vecs {
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		kvs[k] = data
	}
	if err := e.Store.BatchSet(ctx, kvs, e.TTL); err != nil {
		logger.Warn(ctx, "encoder cache write failed", "store", e.Store.Name(), "error", err.Error())
	}
}

func decodeVector(data []byte) ([]float64, bool) {
	if len(data) == 0 {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}

var (
	_ core.BatchEncoder = (*CachedEncoder)(nil)
	_ core.Initializer  = (*CachedEncoder)(nil)
)

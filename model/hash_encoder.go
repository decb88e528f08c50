package model

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/vecmath"
)

// HashEncoder 是基于特征哈希（hashing trick）的词袋编码器。
//
// 不依赖外部服务，输出确定、L2 归一化。语义能力有限，
// 用于本地开发、测试以及离线工具生成示例语料。
type HashEncoder struct {
	Dim int
}

// NewHashEncoder 创建哈希编码器，dim <= 0 时使用 384。
func NewHashEncoder(dim int) *HashEncoder {
	if dim <= 0 {
		dim = 384
	}
	return &HashEncoder{Dim: dim}
}

func (e *HashEncoder) Name() string { return "hash" }

func (e *HashEncoder) Dimension() int { return e.Dim }

func (e *HashEncoder) Encode(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.Dim)
	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.Dim))
		// 最高位决定符号，降低碰撞带来的偏差
		if sum>>63 == 1 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	return vecmath.Normalize(vec), nil
}

func (e *HashEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := e.Encode(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var _ core.BatchEncoder = (*HashEncoder)(nil)

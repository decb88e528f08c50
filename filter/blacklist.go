package filter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/jembertrip/core"
)

// BlacklistFilter 过滤暂停开放或下线的目的地。
//
// 静态名单来自配置；Key 非空时再合并 Store 中的动态名单，
// 值为 JSON 数组（例如 [12, 40]），运营可在运行期直接改写。
type BlacklistFilter struct {
	IDs   []int64
	Store core.Store
	Key   string
}

func NewBlacklistFilter(ids []int64, store core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{IDs: ids, Store: store, Key: key}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// Excluded 合并静态与动态名单。Store 读取失败时返回静态名单和错误。
func (f *BlacklistFilter) Excluded(ctx context.Context, _ *core.RecommendContext) (IDSet, error) {
	dynamic, err := f.loadDynamic(ctx)
	return newIDSet(f.IDs, dynamic), err
}

func (f *BlacklistFilter) loadDynamic(ctx context.Context) ([]int64, error) {
	if f.Store == nil || f.Key == "" {
		return nil, nil
	}
	data, err := f.Store.Get(ctx, f.Key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode blacklist %s: %w", f.Key, err)
	}
	return ids, nil
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	set, err := f.Excluded(ctx, rctx)
	return set.Has(item.ID), err
}

var _ ExclusionFilter = (*BlacklistFilter)(nil)

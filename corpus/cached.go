package corpus

import (
	"context"
	"encoding/json"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/logger"
)

// CachedLoader 为慢数据源（数据库）增加快照缓存。
//
//   - 命中快照：直接返回，不访问下游
//   - 快照损坏：删除后回源
//   - 缓存读写失败只记录日志，不影响加载
type CachedLoader struct {
	Loader Loader
	Store  core.Store
	Key    string
	TTL    int // 秒，<= 0 表示不过期
}

func (l *CachedLoader) Name() string { return "cached_" + l.Loader.Name() }

func (l *CachedLoader) key() string {
	if l.Key != "" {
		return l.Key
	}
	return "corpus:snapshot:" + l.Loader.Name()
}

func (l *CachedLoader) Load(ctx context.Context) ([]*core.Destination, error) {
	key := l.key()

	data, err := l.Store.Get(ctx, key)
	switch {
	case err == nil:
		var records []core.DestinationRecord
		if jsonErr := json.Unmarshal(data, &records); jsonErr == nil && len(records) > 0 {
			logger.Debug(ctx, "corpus snapshot hit", "store", l.Store.Name(), "key", key, "items", len(records))
			return recordsToDestinations(records), nil
		}
		logger.Warn(ctx, "corpus snapshot corrupt, reloading", "store", l.Store.Name(), "key", key)
		if delErr := l.Store.Delete(ctx, key); delErr != nil {
			logger.Warn(ctx, "failed to delete corrupt snapshot", "key", key, "error", delErr.Error())
		}
	case core.IsStoreNotFound(err):
	default:
		logger.Warn(ctx, "corpus snapshot read failed", "store", l.Store.Name(), "key", key, "error", err.Error())
	}

	dests, err := l.Loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(dests) == 0 {
		return dests, nil
	}

	payload, err := json.Marshal(destinationsToRecords(dests))
	if err != nil {
		logger.Warn(ctx, "corpus snapshot encode failed", "error", err.Error())
		return dests, nil
	}
	if err := l.Store.Set(ctx, key, payload, l.TTL); err != nil {
		logger.Warn(ctx, "corpus snapshot write failed", "store", l.Store.Name(), "key", key, "error", err.Error())
	}
	return dests, nil
}

// Package store 提供 core.Store 与 core.VectorService 的实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var cache core.Store = store.NewMemoryStore()
//	var index core.VectorDatabaseService = store.NewMemoryVectorService()
package store

import "github.com/rushteam/jembertrip/core"

// ErrNotFound 是 core.ErrStoreNotFound 的别名，便于实现内部使用
var ErrNotFound = core.ErrStoreNotFound

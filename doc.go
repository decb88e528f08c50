// Package jembertrip 是旅游目的地推荐服务。
//
// 设计要点：
// - 三种场景：有查询时语义搜索；有浏览历史时个性化 feed；两者都没有时冷启动采样
// - Pipeline-first: feed 由 Node 串联（Recall → Rank → Filter → ReRank），可通过 YAML 配置
// - 永不失败的 feed: 历史无法解析、链路出错或 panic 时都降级为冷启动
// - 语料只读: 启动时一次性加载并校验，之后所有请求并发共享
package jembertrip

import (
	"github.com/rushteam/jembertrip/pipeline"
	"github.com/rushteam/jembertrip/recommend"
)

// 轻量 facade：便于直接 import 根包使用核心抽象。
type (
	Service = recommend.Service
	Options = recommend.Options
	Request = recommend.Request
	Result  = recommend.Result

	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 构建推荐服务，见 recommend.New。
var New = recommend.New

package core

import "github.com/rushteam/jembertrip/pkg/utils"

// 场景常量，用于日志与指标区分请求模式。
const (
	SceneSearch    = "search"
	SceneFeed      = "feed"
	SceneColdStart = "cold_start"
	SceneSimilar   = "similar"
)

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// Query 是自由文本查询，非空时走语义搜索
	Query string

	// History 是用户点击过的目的地 ID（可能包含语料中不存在的 ID）
	History []int64

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	// 例如：top_category（兴趣类别）
	Labels map[string]utils.Label

	// Params 请求级参数：top_n、boost_factor 等覆盖值
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// SetLabel 覆盖写入请求级 Label，不做合并。
func (rctx *RecommendContext) SetLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// GetParam 读取请求级参数。
func (rctx *RecommendContext) GetParam(key string) (any, bool) {
	if rctx == nil || rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}

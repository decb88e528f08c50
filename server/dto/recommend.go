package dto

import (
	"time"

	"github.com/rushteam/jembertrip/core"
)

// RecommendRequest 推荐请求。history_ids 允许数字与数字字符串混用。
type RecommendRequest struct {
	Query      string       `json:"query"`
	HistoryIDs []any        `json:"history_ids"`
	Clicks     []ClickEvent `json:"clicks"`
	TopN       int          `json:"top_n" binding:"gte=0,lte=100"`
	TopK       int          `json:"top_k" binding:"gte=0,lte=1000"`

	// Category / City 限定搜索范围，仅对 query 非空的请求生效
	Category string `json:"category"`
	City     string `json:"city"`
}

// Scope 返回请求中的检索范围
func (r *RecommendRequest) Scope() core.Scope {
	return core.Scope{Category: r.Category, City: r.City}
}

// ClickEvent 是请求中携带的原始点击记录
type ClickEvent struct {
	ItemID    int64     `json:"item_id" binding:"required"`
	ClickedAt time.Time `json:"clicked_at"`
}

// ToClickHistory 转为 core.ClickHistory；没有点击时返回 nil
func (r *RecommendRequest) ToClickHistory(userID string) *core.ClickHistory {
	if len(r.Clicks) == 0 {
		return nil
	}
	h := core.NewClickHistory(userID)
	for _, ev := range r.Clicks {
		h.Add(ev.ItemID, ev.ClickedAt)
	}
	return h
}

// SimilarQuery 相似推荐查询参数
type SimilarQuery struct {
	TopK     int    `form:"top_k" binding:"gte=0,lte=100"`
	Category string `form:"category"`
	City     string `form:"city"`
}

func (q *SimilarQuery) Scope() core.Scope {
	return core.Scope{Category: q.Category, City: q.City}
}

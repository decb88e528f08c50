package core

import (
	"sort"
	"time"
)

// ClickEvent 是一次点击记录：谁在什么时候点了哪个目的地。
// 持久化由外部服务负责，这里只消费。
type ClickEvent struct {
	UserID    string    `json:"user_id"`
	ItemID    int64     `json:"item_id"`
	ClickedAt time.Time `json:"clicked_at"`
}

// ClickHistory 是某个用户的点击历史视图。
//
// 个性化推荐只关心 ID 列表；RecentUnique 把原始事件归并为
// “按最近一次点击倒序、去重”的 ID 列表。
type ClickHistory struct {
	UserID string
	Events []ClickEvent
}

// NewClickHistory 创建点击历史。
func NewClickHistory(userID string, events ...ClickEvent) *ClickHistory {
	return &ClickHistory{UserID: userID, Events: events}
}

// Add 追加一次点击。
func (h *ClickHistory) Add(itemID int64, at time.Time) {
	h.Events = append(h.Events, ClickEvent{UserID: h.UserID, ItemID: itemID, ClickedAt: at})
}

// RecentUnique 返回去重后的 ID，最近点击的在前；limit <= 0 表示不截断。
func (h *ClickHistory) RecentUnique(limit int) []int64 {
	if h == nil || len(h.Events) == 0 {
		return []int64{}
	}
	latest := make(map[int64]time.Time, len(h.Events))
	order := make([]int64, 0, len(h.Events))
	for _, ev := range h.Events {
		t, ok := latest[ev.ItemID]
		if !ok {
			order = append(order, ev.ItemID)
			latest[ev.ItemID] = ev.ClickedAt
			continue
		}
		if ev.ClickedAt.After(t) {
			latest[ev.ItemID] = ev.ClickedAt
		}
	}
	// 同一时刻的点击保持首次出现顺序
	sort.SliceStable(order, func(i, j int) bool {
		return latest[order[i]].After(latest[order[j]])
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}

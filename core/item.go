package core

import "github.com/rushteam/jembertrip/pkg/utils"

// Item 是推荐链路中的统一承载结构：目的地、分数、特征、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID          int64
	Score       float64
	Destination *Destination
	Features    map[string]float64
	Meta        map[string]any
	Labels      map[string]utils.Label
}

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewDestinationItem 以目的地构造 Item，ID 与目的地 ID 一致。
func NewDestinationItem(d *Destination) *Item {
	it := NewItem(d.ID)
	it.Destination = d
	return it
}

// Category 返回物品所属类别，未挂载目的地时返回空串。
func (it *Item) Category() string {
	if it == nil || it.Destination == nil {
		return ""
	}
	return it.Destination.Category
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// GetLabel 获取物品 Label。
func (it *Item) GetLabel(key string) (utils.Label, bool) {
	if it.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := it.Labels[key]
	return lbl, ok
}

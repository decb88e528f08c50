package filter

import (
	"context"

	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/pkg/dsl"
)

// ExprFilter 使用 CEL 表达式过滤，表达式为 true 的物品被移除。
//
// 示例：
//
//	item.category == "Taman Hiburan"
//	has(label.boosted) && item.score < 0.6
type ExprFilter struct {
	prog *dsl.Program
}

// NewExprFilter 编译表达式，语法错误时返回错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prog, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prog: prog}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.prog.Evaluate(item, rctx)
}

package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/jembertrip/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的 Label/Item 规则表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次，可在多个请求、多个 goroutine 中复用。
//
// 表达式语法（CEL 标准语法）：
//   - 类别：item.category == "Pantai"
//   - 城市：item.city in ["Bandung", "Garut"]
//   - 分数：item.score < 0.2
//   - 标签：has(label.boosted) && label.boosted == "true"
//   - 请求：rctx.scene == "feed" && size(rctx.history) > 3
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，语法错误时报错。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Evaluate 对单个物品求值，返回布尔结果。
//
// 注意：CEL 访问不存在的 key 会报错，使用 has(label.key) 检查存在性。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Eval 编译并执行一次表达式；空表达式视为 true。
func Eval(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Evaluate(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{}, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}

	item := map[string]interface{}{
		"id":       it.ID,
		"score":    it.Score,
		"features": it.Features,
		"meta":     it.Meta,
		"name":     "",
		"category": "",
		"city":     "",
	}
	if d := it.Destination; d != nil {
		item["name"] = d.Name
		item["category"] = d.Category
		item["city"] = d.City
	}

	rc := map[string]interface{}{
		"user_id": "",
		"scene":   "",
		"query":   "",
		"history": []int64{},
		"params":  map[string]interface{}{},
	}
	if rctx != nil {
		rc["user_id"] = rctx.UserID
		rc["scene"] = rctx.Scene
		rc["query"] = rctx.Query
		if rctx.History != nil {
			rc["history"] = rctx.History
		}
		if rctx.Params != nil {
			rc["params"] = rctx.Params
		}
	}

	return map[string]interface{}{
		"item":  item,
		"label": labels,
		"rctx":  rc,
	}
}

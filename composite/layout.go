package composite

import "fmt"

// LayoutRule 单个分类在画布上的固定布局：中心点与最大尺寸均为画布相对比例 [0,1]，
// StackOrder 越小越先绘制（视觉上越靠下层）
type LayoutRule struct {
	CenterX    float64
	CenterY    float64
	MaxW       float64
	MaxH       float64
	StackOrder int
}

// defaultRules 编译期写死的布局表，所有分类必须有规则（init 校验）
var defaultRules = map[Category]LayoutRule{
	Shoes:     {CenterX: 0.5, CenterY: 0.85, MaxW: 0.40, MaxH: 0.20, StackOrder: 1},
	Pants:     {CenterX: 0.5, CenterY: 0.60, MaxW: 0.70, MaxH: 0.40, StackOrder: 2},
	Dress:     {CenterX: 0.5, CenterY: 0.45, MaxW: 0.80, MaxH: 0.60, StackOrder: 2},
	Shirt:     {CenterX: 0.5, CenterY: 0.35, MaxW: 0.70, MaxH: 0.40, StackOrder: 3},
	Jacket:    {CenterX: 0.5, CenterY: 0.35, MaxW: 0.75, MaxH: 0.45, StackOrder: 4},
	Accessory: {CenterX: 0.5, CenterY: 0.15, MaxW: 0.30, MaxH: 0.20, StackOrder: 5},
}

// fallbackRule 布局表缺失时的兜底，闭集下不会触发
var fallbackRule = LayoutRule{CenterX: 0.5, CenterY: 0.5, MaxW: 0.5, MaxH: 0.5, StackOrder: 3}

func init() {
	for _, c := range Categories() {
		if _, ok := defaultRules[c]; !ok {
			panic(fmt.Sprintf("composite: missing layout rule for %s", c))
		}
	}
}

// RuleFor 返回分类的布局规则，未知分类返回兜底规则
func RuleFor(c Category) LayoutRule {
	if r, ok := defaultRules[c]; ok {
		return r
	}
	return fallbackRule
}

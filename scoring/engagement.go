// Package scoring 计算互动分和关系强度，全部为无副作用的纯函数
// 输入是存储层给出的快照，结果按需重算、不作为权威数据缓存
package scoring

import (
	"math"
	"time"

	"pulse_social/model"
)

const (
	// 衰减半衰期：一周（168 小时）
	decayHours = 168.0

	// 指数移动平均系数
	emaKeep  = 0.9
	emaBlend = 0.1

	maxEngagementScore = 100.0
)

// RecencyDecay 按距上次互动的小时数计算衰减因子 exp(-hours/168)
func RecencyDecay(hoursSince float64) float64 {
	if hoursSince < 0 {
		hoursSince = 0
	}
	return math.Exp(-hoursSince / decayHours)
}

// NextEngagementScore 把一次互动混入边上的互动分
// score' = 0.9*score + 0.1*(类型权重*调用方权重*衰减因子)，夹在 [0,100]
func NextEngagementScore(current float64, kind model.InteractionKind, weight float64, lastInteractionAt, now time.Time) float64 {
	decay := RecencyDecay(now.Sub(lastInteractionAt).Hours())
	next := current*emaKeep + kind.Weight()*weight*decay*emaBlend
	return clamp(next, 0, maxEngagementScore)
}

// NextEngagementRate 把一次互动混入关系对级别的互动率（无衰减的 EMA，>=0）
func NextEngagementRate(current float64, kind model.InteractionKind, weight float64) float64 {
	next := current*emaKeep + kind.Weight()*weight*emaBlend
	if next < 0 {
		return 0
	}
	return next
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

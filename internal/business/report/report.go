package report

import (
	"fmt"
	"sort"
	"strings"

	"crp/dptrain/internal/business/feature"
)

// SegmentSummary 单个客群的画像汇总
type SegmentSummary struct {
	Segment           int     `json:"segment"`
	Customers         int     `json:"customers"`
	AvgRecency        float64 `json:"avg_recency"`
	AvgFrequency      float64 `json:"avg_frequency"`
	AvgMonetary       float64 `json:"avg_monetary"`
	ChurnRate         float64 `json:"churn_rate"`
	AvgFutureSpend    float64 `json:"avg_future_spend"`
	RecommendedAction string  `json:"recommended_action"`
}

// BuildSegmentSummary 按簇聚合客户画像，按平均客单价降序排列
func BuildSegmentSummary(features []feature.CustomerFeatures) []SegmentSummary {
	type acc struct {
		customers   int
		recency     float64
		frequency   float64
		monetary    float64
		churn       float64
		futureSpend float64
	}

	byShard := make(map[int]*acc)
	for i := range features {
		f := &features[i]
		a, ok := byShard[f.Segment]
		if !ok {
			a = &acc{}
			byShard[f.Segment] = a
		}
		a.customers++
		a.recency += f.RecencyDays
		a.frequency += float64(f.Frequency)
		a.monetary += f.Monetary
		a.churn += float64(f.ChurnLabel)
		a.futureSpend += f.FutureSpend
	}

	out := make([]SegmentSummary, 0, len(byShard))
	for segment, a := range byShard {
		n := float64(a.customers)
		out = append(out, SegmentSummary{
			Segment:        segment,
			Customers:      a.customers,
			AvgRecency:     a.recency / n,
			AvgFrequency:   a.frequency / n,
			AvgMonetary:    a.monetary / n,
			ChurnRate:      a.churn / n,
			AvgFutureSpend: a.futureSpend / n,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMonetary != out[j].AvgMonetary {
			return out[i].AvgMonetary > out[j].AvgMonetary
		}
		return out[i].Segment < out[j].Segment
	})
	return out
}

// quantile 线性插值分位数（排序后按 (n-1)*q 取插值）
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := float64(len(sorted)-1) * q
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// RecommendActions 按客单价分位与流失率给每个客群挂运营动作
// 1. 高客单（>= 75 分位）且流失率低：VIP 维护
// 2. 中高客单（>= 中位数）且流失率偏高：定向挽留
// 3. 低客单且流失率很高：轻触达或降优先级
// 4. 其余：产品教育培育
func RecommendActions(summaries []SegmentSummary) []SegmentSummary {
	monetary := make([]float64, len(summaries))
	for i := range summaries {
		monetary[i] = summaries[i].AvgMonetary
	}
	q75 := quantile(monetary, 0.75)
	median := quantile(monetary, 0.5)

	for i := range summaries {
		s := &summaries[i]
		switch {
		case s.AvgMonetary >= q75 && s.ChurnRate < 0.4:
			s.RecommendedAction = "Offer early access + loyalty perks"
		case s.AvgMonetary >= median && s.ChurnRate >= 0.4:
			s.RecommendedAction = "Targeted retention incentives"
		case s.AvgMonetary < median && s.ChurnRate >= 0.6:
			s.RecommendedAction = "Low-touch win-back or deprioritize"
		default:
			s.RecommendedAction = "Nurture with product education"
		}
	}
	return summaries
}

// RenderStrategicReport 渲染运营策略报告（Markdown）
func RenderStrategicReport(summaries []SegmentSummary) string {
	var b strings.Builder
	b.WriteString("# Strategic Recommendation Report\n\n")
	b.WriteString("This report translates segmentation and churn outputs into actionable retention strategy.\n\n")

	for _, s := range summaries {
		fmt.Fprintf(&b, "## Segment %d\n", s.Segment)
		fmt.Fprintf(&b, "- Customers: %d\n", s.Customers)
		fmt.Fprintf(&b, "- Avg Recency (days): %.1f\n", s.AvgRecency)
		fmt.Fprintf(&b, "- Avg Frequency: %.1f\n", s.AvgFrequency)
		fmt.Fprintf(&b, "- Avg Monetary: %.2f\n", s.AvgMonetary)
		fmt.Fprintf(&b, "- Churn Rate: %.2f%%\n", s.ChurnRate*100)
		fmt.Fprintf(&b, "- Avg Future Spend: %.2f\n", s.AvgFutureSpend)
		fmt.Fprintf(&b, "- Recommended Action: %s\n", s.RecommendedAction)
		b.WriteString("\n")
	}
	return b.String()
}

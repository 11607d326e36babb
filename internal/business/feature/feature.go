package feature

import (
	"math"
	"sort"
	"time"

	"crp/dptrain/internal/business/dataset"
)

// CoreFeatureNames 七个核心数值特征（churn/LTV 模型输入，顺序固定）
var CoreFeatureNames = []string{
	"recency_days",
	"frequency",
	"monetary",
	"avg_basket_value",
	"unique_products",
	"avg_interpurchase_days",
	"purchase_span_days",
}

// SegmentFeatureNames 分群使用的六个特征（不含 purchase_span_days）
var SegmentFeatureNames = CoreFeatureNames[:6]

// CustomerFeatures 单客户特征向量
// 不变式：Frequency > 1 时 AvgInterpurchaseDays = PurchaseSpanDays/(Frequency-1)，
// 否则 AvgInterpurchaseDays = PurchaseSpanDays（单次购买客户两者均为 0，属正常情况）
type CustomerFeatures struct {
	CustomerID           int64   `json:"customer_id"`
	RecencyDays          float64 `json:"recency_days"`
	Frequency            int     `json:"frequency"`        // 去重订单数
	Monetary             float64 `json:"monetary"`         // 行总额之和
	AvgBasketValue       float64 `json:"avg_basket_value"` // 行总额均值
	UniqueProducts       int     `json:"unique_products"`
	AvgInterpurchaseDays float64 `json:"avg_interpurchase_days"`
	PurchaseSpanDays     float64 `json:"purchase_span_days"`

	// 分群结果（由 segment 训练器回填）
	Segment int `json:"segment"`

	// 前瞻标签（仅 BuildTimeSplit 填充）
	ChurnLabel  int     `json:"churn_label"`  // 1 = 流失窗口内无任何订单
	FutureSpend float64 `json:"future_spend"` // LTV 窗口内行总额之和
}

// CoreVector 返回七个核心特征（与 CoreFeatureNames 同序）
func (f *CustomerFeatures) CoreVector() []float64 {
	return []float64{
		f.RecencyDays,
		float64(f.Frequency),
		f.Monetary,
		f.AvgBasketValue,
		float64(f.UniqueProducts),
		f.AvgInterpurchaseDays,
		f.PurchaseSpanDays,
	}
}

// SegmentVector 返回分群使用的六个特征
func (f *CustomerFeatures) SegmentVector() []float64 {
	return f.CoreVector()[:6]
}

// daysBetween 整天数差（向下取整，from <= to）
func daysBetween(from, to time.Time) float64 {
	return math.Floor(to.Sub(from).Hours() / 24)
}

// Build 按快照日期聚合客户特征
// 调用方保证交易已按历史窗口过滤；snapshot 仅作为 recency 的参照点
func Build(txs []dataset.Transaction, snapshot time.Time) []CustomerFeatures {
	type agg struct {
		orders      map[string]struct{}
		products    map[string]struct{}
		monetary    float64
		lines       int
		first, last time.Time
	}

	byCustomer := make(map[int64]*agg)
	for _, tx := range txs {
		a, ok := byCustomer[tx.CustomerID]
		if !ok {
			a = &agg{
				orders:   make(map[string]struct{}),
				products: make(map[string]struct{}),
				first:    tx.Timestamp,
				last:     tx.Timestamp,
			}
			byCustomer[tx.CustomerID] = a
		}
		a.orders[tx.OrderID] = struct{}{}
		a.products[tx.ProductID] = struct{}{}
		a.monetary += tx.LineTotal
		a.lines++
		if tx.Timestamp.Before(a.first) {
			a.first = tx.Timestamp
		}
		if tx.Timestamp.After(a.last) {
			a.last = tx.Timestamp
		}
	}

	out := make([]CustomerFeatures, 0, len(byCustomer))
	for customerID, a := range byCustomer {
		frequency := len(a.orders)
		span := daysBetween(a.first, a.last)
		interpurchase := span
		if frequency > 1 {
			interpurchase = span / float64(frequency-1)
		}

		out = append(out, CustomerFeatures{
			CustomerID:           customerID,
			RecencyDays:          daysBetween(a.last, snapshot),
			Frequency:            frequency,
			Monetary:             a.monetary,
			AvgBasketValue:       a.monetary / float64(a.lines),
			UniqueProducts:       len(a.products),
			AvgInterpurchaseDays: interpurchase,
			PurchaseSpanDays:     span,
		})
	}

	// 按客户 ID 排序，保证多次运行输出顺序一致
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

// BuildTimeSplit 按截止日期切分历史/未来并计算前瞻标签
// 特征只使用 timestamp <= cutoff 的交易；标签只使用 timestamp > cutoff 的交易
// （时间泄漏防护的核心不变式）
func BuildTimeSplit(txs []dataset.Transaction, cutoff time.Time, churnWindowDays, ltvHorizonDays int) []CustomerFeatures {
	history := make([]dataset.Transaction, 0, len(txs))
	future := make([]dataset.Transaction, 0)
	for _, tx := range txs {
		if tx.Timestamp.After(cutoff) {
			future = append(future, tx)
		} else {
			history = append(history, tx)
		}
	}

	snapshot := cutoff.AddDate(0, 0, 1)
	features := Build(history, snapshot)

	churnWindowEnd := cutoff.AddDate(0, 0, churnWindowDays)
	ltvWindowEnd := cutoff.AddDate(0, 0, ltvHorizonDays)

	// 流失窗口内的去重订单数 / LTV 窗口内的消费额
	futureOrders := make(map[int64]map[string]struct{})
	futureSpend := make(map[int64]float64)
	for _, tx := range future {
		if !tx.Timestamp.After(churnWindowEnd) {
			orders, ok := futureOrders[tx.CustomerID]
			if !ok {
				orders = make(map[string]struct{})
				futureOrders[tx.CustomerID] = orders
			}
			orders[tx.OrderID] = struct{}{}
		}
		if !tx.Timestamp.After(ltvWindowEnd) {
			futureSpend[tx.CustomerID] += tx.LineTotal
		}
	}

	// 左连接标签：无未来活动 → churn_label=1，future_spend=0
	for i := range features {
		customerID := features[i].CustomerID
		if orders, ok := futureOrders[customerID]; ok && len(orders) > 0 {
			features[i].ChurnLabel = 0
		} else {
			features[i].ChurnLabel = 1
		}
		features[i].FutureSpend = futureSpend[customerID]
	}

	return features
}

// MaxTimestamp 返回交易中最大的时间戳（空切片返回零值）
func MaxTimestamp(txs []dataset.Transaction) time.Time {
	var max time.Time
	for _, tx := range txs {
		if tx.Timestamp.After(max) {
			max = tx.Timestamp
		}
	}
	return max
}

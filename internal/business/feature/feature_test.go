package feature

import (
	"math"
	"testing"
	"time"

	"crp/dptrain/internal/business/dataset"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func tx(customer int64, order string, t time.Time, product string, total float64) dataset.Transaction {
	return dataset.Transaction{
		CustomerID: customer,
		OrderID:    order,
		Timestamp:  t,
		ProductID:  product,
		Quantity:   1,
		UnitPrice:  total,
		LineTotal:  total,
	}
}

func TestBuildAggregates(t *testing.T) {
	// cust1: 三笔订单各隔 10 天，合计 300；cust2: 单笔 20
	txs := []dataset.Transaction{
		tx(1, "o1", day(0), "p1", 100),
		tx(1, "o2", day(10), "p2", 100),
		tx(1, "o3", day(20), "p1", 100),
		tx(2, "o4", day(20), "p3", 20),
	}
	snapshot := day(25)

	features := Build(txs, snapshot)
	if len(features) != 2 {
		t.Fatalf("customers = %d, want 2", len(features))
	}

	c1 := features[0]
	if c1.CustomerID != 1 {
		t.Fatalf("features not sorted by customer id: %+v", features)
	}
	if c1.Frequency != 3 {
		t.Fatalf("frequency = %d, want 3", c1.Frequency)
	}
	if math.Abs(c1.Monetary-300) > 1e-9 {
		t.Fatalf("monetary = %v, want 300", c1.Monetary)
	}
	if math.Abs(c1.AvgBasketValue-100) > 1e-9 {
		t.Fatalf("avg_basket_value = %v, want 100", c1.AvgBasketValue)
	}
	if c1.UniqueProducts != 2 {
		t.Fatalf("unique_products = %d, want 2", c1.UniqueProducts)
	}
	if math.Abs(c1.PurchaseSpanDays-20) > 1e-9 {
		t.Fatalf("purchase_span_days = %v, want 20", c1.PurchaseSpanDays)
	}
	if math.Abs(c1.AvgInterpurchaseDays-10) > 1e-9 {
		t.Fatalf("avg_interpurchase_days = %v, want 10", c1.AvgInterpurchaseDays)
	}
	if math.Abs(c1.RecencyDays-5) > 1e-9 {
		t.Fatalf("recency_days = %v, want 5", c1.RecencyDays)
	}

	c2 := features[1]
	if c2.Frequency != 1 {
		t.Fatalf("frequency = %d, want 1", c2.Frequency)
	}
	// 单次购买：跨度与间隔均为 0
	if c2.PurchaseSpanDays != 0 || c2.AvgInterpurchaseDays != 0 {
		t.Fatalf("single-purchase span/interpurchase = %v/%v, want 0/0",
			c2.PurchaseSpanDays, c2.AvgInterpurchaseDays)
	}
}

func TestInterpurchaseIdentity(t *testing.T) {
	txs := []dataset.Transaction{
		tx(1, "o1", day(0), "p1", 10),
		tx(1, "o2", day(7), "p1", 10),
		tx(1, "o3", day(9), "p1", 10),
		tx(1, "o4", day(30), "p1", 10),
	}

	f := Build(txs, day(31))[0]
	// Frequency > 1 时 AvgInterpurchaseDays * (Frequency-1) == PurchaseSpanDays
	got := f.AvgInterpurchaseDays * float64(f.Frequency-1)
	if math.Abs(got-f.PurchaseSpanDays) > 1e-9 {
		t.Fatalf("interpurchase identity violated: %v != %v", got, f.PurchaseSpanDays)
	}
}

func TestBuildTimeSplitLabels(t *testing.T) {
	cutoff := day(100)
	txs := []dataset.Transaction{
		// 历史交易（两客户各两单，保证都进特征表）
		tx(1, "h1", day(10), "p1", 50),
		tx(1, "h2", day(50), "p1", 50),
		tx(2, "h3", day(20), "p2", 30),
		tx(2, "h4", day(60), "p2", 30),
		// cust1 在流失窗口（30 天）内回购 → 非流失
		tx(1, "f1", day(125), "p1", 40),
		// cust2 窗口外（第 140 天）才回购 → 流失，但消费计入 LTV 窗口
		tx(2, "f2", day(140), "p2", 25),
	}

	features := BuildTimeSplit(txs, cutoff, 30, 180)
	if len(features) != 2 {
		t.Fatalf("customers = %d, want 2", len(features))
	}

	c1, c2 := features[0], features[1]
	if c1.ChurnLabel != 0 {
		t.Fatalf("cust1 churn_label = %d, want 0 (order on day 125)", c1.ChurnLabel)
	}
	if c2.ChurnLabel != 1 {
		t.Fatalf("cust2 churn_label = %d, want 1 (order on day 140)", c2.ChurnLabel)
	}
	if math.Abs(c1.FutureSpend-40) > 1e-9 {
		t.Fatalf("cust1 future_spend = %v, want 40", c1.FutureSpend)
	}
	if math.Abs(c2.FutureSpend-25) > 1e-9 {
		t.Fatalf("cust2 future_spend = %v, want 25 (within ltv horizon)", c2.FutureSpend)
	}
}

func TestBuildTimeSplitNoLeakage(t *testing.T) {
	cutoff := day(100)
	txs := []dataset.Transaction{
		tx(1, "h1", day(90), "p1", 50),
		tx(1, "f1", day(110), "p1", 999), // 截止后的交易不得进入特征
	}

	f := BuildTimeSplit(txs, cutoff, 30, 180)[0]
	if f.Frequency != 1 {
		t.Fatalf("frequency = %d, want 1 (future order leaked into features)", f.Frequency)
	}
	if math.Abs(f.Monetary-50) > 1e-9 {
		t.Fatalf("monetary = %v, want 50 (future spend leaked)", f.Monetary)
	}
	// recency 以截止次日为参照
	if math.Abs(f.RecencyDays-11) > 1e-9 {
		t.Fatalf("recency_days = %v, want 11", f.RecencyDays)
	}
}

func TestBuildTimeSplitCustomerOnlyInFuture(t *testing.T) {
	cutoff := day(100)
	txs := []dataset.Transaction{
		tx(1, "h1", day(50), "p1", 10),
		tx(2, "f1", day(120), "p2", 10), // 截止前无历史的客户不出现在特征表
	}

	features := BuildTimeSplit(txs, cutoff, 30, 180)
	if len(features) != 1 || features[0].CustomerID != 1 {
		t.Fatalf("features = %+v, want only customer 1", features)
	}
}

func TestMaxTimestamp(t *testing.T) {
	txs := []dataset.Transaction{
		tx(1, "a", day(5), "p", 1),
		tx(1, "b", day(9), "p", 1),
		tx(1, "c", day(2), "p", 1),
	}
	if got := MaxTimestamp(txs); !got.Equal(day(9)) {
		t.Fatalf("MaxTimestamp = %v, want %v", got, day(9))
	}
	if got := MaxTimestamp(nil); !got.IsZero() {
		t.Fatalf("MaxTimestamp(nil) = %v, want zero", got)
	}
}

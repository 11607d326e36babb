package dataset

import "time"

// CancelMarker 取消订单标记（order_id 前缀）
const CancelMarker = "C"

// Transaction 清洗后的交易记录
// 保证：关键字段无空值，Quantity/UnitPrice/LineTotal 均为正数
type Transaction struct {
	CustomerID int64     `json:"customer_id"`
	OrderID    string    `json:"order_id"`
	Timestamp  time.Time `json:"order_datetime"`
	ProductID  string    `json:"product_id"`
	Quantity   float64   `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	LineTotal  float64   `json:"line_total"` // Quantity * UnitPrice
}

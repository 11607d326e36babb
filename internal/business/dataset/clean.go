package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts 支持的时间格式（依次尝试）
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// parseTimestamp 解析时间戳，失败返回零值（视为空）
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseCustomerID 将客户 ID 强制转换为整数（"17850.0" → 17850）
// 非数值视为空
func parseCustomerID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// parseAmount 解析数量/单价
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Clean 清洗规范列表，返回交易记录
// 固定顺序：解析时间戳 → 客户 ID 数值化 → 丢弃关键字段为空的行 →
// 丢弃取消订单（order_id 以 C 开头）→ 丢弃非正数量/单价 → 去重 → 计算行总额
// 不修复问题行，只丢弃
func Clean(t *RawTable) ([]Transaction, error) {
	idxCustomer := t.colIndex(ColCustomerID)
	idxOrder := t.colIndex(ColOrderID)
	idxDatetime := t.colIndex(ColOrderDatetime)
	idxProduct := t.colIndex(ColProductID)
	idxQty := t.colIndex(ColQuantity)
	idxPrice := t.colIndex(ColUnitPrice)
	for name, idx := range map[string]int{
		ColCustomerID: idxCustomer, ColOrderID: idxOrder, ColOrderDatetime: idxDatetime,
		ColProductID: idxProduct, ColQuantity: idxQty, ColUnitPrice: idxPrice,
	} {
		if idx < 0 {
			return nil, fmt.Errorf("clean: canonical column %q missing (call Standardize first)", name)
		}
	}

	seen := make(map[string]struct{}, len(t.Rows))
	out := make([]Transaction, 0, len(t.Rows))

	for _, row := range t.Rows {
		cell := func(idx int) string {
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		// 1. 解析时间戳与客户 ID
		ts, tsOK := parseTimestamp(cell(idxDatetime))
		custID, custOK := parseCustomerID(cell(idxCustomer))
		orderID := cell(idxOrder)
		productID := cell(idxProduct)

		// 2. 丢弃关键字段为空的行
		if !tsOK || !custOK || orderID == "" || productID == "" {
			continue
		}

		// 3. 丢弃取消订单
		if strings.HasPrefix(orderID, CancelMarker) {
			continue
		}

		// 4. 丢弃非正数量/单价（含无法解析的值）
		qty, qtyOK := parseAmount(cell(idxQty))
		price, priceOK := parseAmount(cell(idxPrice))
		if !qtyOK || !priceOK || qty <= 0 || price <= 0 {
			continue
		}

		// 5. 去除完全重复的行
		key := fmt.Sprintf("%d|%s|%d|%s|%v|%v", custID, orderID, ts.UnixNano(), productID, qty, price)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		// 6. 计算行总额
		out = append(out, Transaction{
			CustomerID: custID,
			OrderID:    orderID,
			Timestamp:  ts,
			ProductID:  productID,
			Quantity:   qty,
			UnitPrice:  price,
			LineTotal:  qty * price,
		})
	}

	return out, nil
}

package dataset

import (
	"fmt"
	"sort"
	"strings"

	"crp/dptrain/pkg/errorutil"
)

// 规范列名（清洗阶段的输入契约）
const (
	ColCustomerID    = "customer_id"
	ColOrderID       = "order_id"
	ColOrderDatetime = "order_datetime"
	ColProductID     = "product_id"
	ColQuantity      = "quantity"
	ColUnitPrice     = "unit_price"
	ColOrderTotal    = "order_total"
)

// requiredKeys 映射必须提供的规范键
var requiredKeys = []string{ColCustomerID, ColOrderID, ColOrderDatetime, ColProductID}

// RawTable 原始表格数据（CSV/DB 读取器的输出契约）
// 所有单元格以字符串形式保存，解析在清洗阶段完成
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// Mapping 列名映射：规范键 → 数据源列名
type Mapping map[string]string

// colIndex 查找列下标，找不到返回 -1
func (t *RawTable) colIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Standardize 将任意列名的原始表转换为规范列表
// mapping 为空时要求表本身已是规范列；否则校验必需键并重排列
// 金额列：必须提供 quantity+unit_price，或仅提供 order_total（视为 quantity=1）
func Standardize(t *RawTable, mapping Mapping) (*RawTable, error) {
	if len(mapping) == 0 {
		// 无映射：源表必须已包含规范列
		for _, key := range append(append([]string{}, requiredKeys...), ColQuantity, ColUnitPrice) {
			if t.colIndex(key) < 0 {
				return nil, errorutil.Schema("column %q not found and no mapping supplied", key)
			}
		}
		return t, nil
	}

	// 1. 校验必需键
	missing := make([]string, 0)
	for _, key := range requiredKeys {
		if _, ok := mapping[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errorutil.Schema("missing required mappings: %s", strings.Join(missing, ", "))
	}

	// 2. 校验金额列：quantity+unit_price 或 order_total 二选一
	_, hasQty := mapping[ColQuantity]
	_, hasPrice := mapping[ColUnitPrice]
	_, hasTotal := mapping[ColOrderTotal]
	if !(hasQty && hasPrice) && !hasTotal {
		return nil, errorutil.Schema("provide quantity+unit_price or order_total in mapping")
	}

	// 3. 定位源列
	srcIdx := make(map[string]int)
	for key, srcCol := range mapping {
		idx := t.colIndex(srcCol)
		if idx < 0 {
			return nil, errorutil.Schema("mapped column %q (for %q) not found in source", srcCol, key)
		}
		srcIdx[key] = idx
	}

	// 4. 重排为固定的规范列顺序
	out := &RawTable{
		Columns: []string{ColCustomerID, ColOrderID, ColOrderDatetime, ColProductID, ColQuantity, ColUnitPrice},
		Rows:    make([][]string, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		cell := func(key string) string {
			idx, ok := srcIdx[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		qty, price := cell(ColQuantity), cell(ColUnitPrice)
		if !(hasQty && hasPrice) {
			// order_total 模式：quantity=1，单价即订单总额
			qty, price = "1", cell(ColOrderTotal)
		}

		out.Rows = append(out.Rows, []string{
			cell(ColCustomerID),
			cell(ColOrderID),
			cell(ColOrderDatetime),
			cell(ColProductID),
			qty,
			price,
		})
	}

	return out, nil
}

// String 调试输出（行数与列名）
func (t *RawTable) String() string {
	return fmt.Sprintf("RawTable{columns=%v, rows=%d}", t.Columns, len(t.Rows))
}

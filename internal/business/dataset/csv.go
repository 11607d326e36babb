package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
)

// ReadCSV 读取 CSV 文件为 RawTable（首行作为列名）
// 仅做格式转换，不做任何清洗
func ReadCSV(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv failed: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // 允许行字段数不一致，交由清洗阶段丢弃

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv failed: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty: %s", path)
	}

	return &RawTable{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

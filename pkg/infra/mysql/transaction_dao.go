package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"crp/dptrain/internal/business/dataset"
)

// TransactionDAO 交易流水数据访问对象
type TransactionDAO struct {
	db *gorm.DB
}

// NewTransactionDAO 创建 TransactionDAO 实例
func NewTransactionDAO(dsn string) (*TransactionDAO, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &TransactionDAO{
		db: db,
	}, nil
}

// NewTransactionDAOWithDB 基于已有连接创建（ArtifactDAO 共用连接时使用）
func NewTransactionDAOWithDB(db *gorm.DB) *TransactionDAO {
	return &TransactionDAO{db: db}
}

// LoadRawTable 读取租户的原始交易行
// 所有列按字符串读出，清洗阶段统一做类型解析
func (dao *TransactionDAO) LoadRawTable(ctx context.Context, table string, orgID string) (*dataset.RawTable, error) {
	rows, err := dao.db.WithContext(ctx).
		Table(table).
		Where("org_id = ?", orgID).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := &dataset.RawTable{Columns: columns}
	values := make([]sql.NullString, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return out, nil
}

// DB 返回底层连接
func (dao *TransactionDAO) DB() *gorm.DB {
	return dao.db
}

// Close 关闭数据库连接
func (dao *TransactionDAO) Close() error {
	sqlDB, err := dao.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sqlconsoleapi/config"
	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	Register(models.ConnTypeMySQL, &mysqlConnector{})
}

// mysqlConnector executes statements against remote MySQL targets. A fresh
// connection is opened per call; the console is not a pooling proxy and target
// credentials can change between requests.
type mysqlConnector struct{}

func (c *mysqlConnector) open(conn *models.Connection) (*gorm.DB, error) {
	timeout := time.Duration(config.Cfg.ConnectTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s",
		conn.Username,
		conn.Password,
		conn.Host,
		conn.Port,
		conn.Database,
		timeout,
	)
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func (c *mysqlConnector) Execute(ctx context.Context, conn *models.Connection, query string) (*Result, error) {
	db, err := c.open(conn)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	if isReadStatement(query) {
		return c.queryRows(ctx, db, query)
	}

	res := db.WithContext(ctx).Exec(query)
	if res.Error != nil {
		return nil, res.Error
	}
	return &Result{RowCount: int(res.RowsAffected)}, nil
}

func (c *mysqlConnector) queryRows(ctx context.Context, db *gorm.DB, query string) (*Result, error) {
	rows, err := db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: columns, Rows: []map[string]interface{}{}}
	values := make([]interface{}, len(columns))
	scanTargets := make([]interface{}, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}
		rowMap := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// Drivers return []byte for text columns; convert for JSON output
			if b, ok := values[i].([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result.RowCount = len(result.Rows)
	return result, nil
}

func (c *mysqlConnector) Test(ctx context.Context, conn *models.Connection) error {
	db, err := c.open(conn)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Warnf("Connection test failed for %s (%s:%d): %v", conn.Name, conn.Host, conn.Port, err)
		return err
	}
	return nil
}

// isReadStatement decides whether to fetch a result set or run an exec.
func isReadStatement(query string) bool {
	first := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "SHOW", "DESC", "DESCRIBE", "EXPLAIN", "WITH"} {
		if strings.HasPrefix(first, prefix) {
			return true
		}
	}
	return false
}

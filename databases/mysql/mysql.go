package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/melkeydev/formengine/types"
)

type MySQLConnector struct {
	db *sqlx.DB
}

func NewMySQLConnector(connectionString string) (*MySQLConnector, error) {
	cfg, err := driverConfig(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	connector := &MySQLConnector{
		db: db,
	}

	if err := connector.Ping(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return connector, nil
}

func driverConfig(connectionString string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	// DATE/DATETIME columns come back as time.Time instead of raw bytes
	cfg.ParseTime = true
	// rows affected counts matched rows, so saving an unchanged row is not a miss
	cfg.ClientFoundRows = true
	return cfg, nil
}

func (c *MySQLConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *MySQLConnector) DB() *sqlx.DB {
	return c.db
}

func (c *MySQLConnector) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (c *MySQLConnector) LabelExpr(quoted []string) string {
	parts := make([]string, len(quoted))
	for i, col := range quoted {
		parts[i] = fmt.Sprintf("COALESCE(CAST(%s AS CHAR), '')", col)
	}
	return "CONCAT(" + strings.Join(parts, ", '-', ") + ")"
}

// ListTables returns the base tables of the current database.
func (c *MySQLConnector) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := c.db.SelectContext(ctx, &tables, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		AND table_schema = DATABASE()
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	return tables, nil
}

// DescribeTable returns the columns of table in physical order. A table that
// does not exist yields no columns.
func (c *MySQLConnector) DescribeTable(ctx context.Context, table string) ([]types.Column, error) {
	tx, err := c.db.BeginTxx(ctx, &sql.TxOptions{
		ReadOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Commit()

	rows, err := tx.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = ? AND table_schema = DATABASE()
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.Column
	for rows.Next() {
		var name, dataType, isNullable string
		if err := rows.Scan(&name, &dataType, &isNullable); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		columns = append(columns, types.Column{
			Name:     name,
			Type:     dataType,
			Nullable: isNullable == "YES",
		})
	}

	return columns, rows.Err()
}

func (c *MySQLConnector) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

package databases

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/melkeydev/formengine/config"
	"github.com/melkeydev/formengine/databases/mysql"
	"github.com/melkeydev/formengine/databases/postgres"
	"github.com/melkeydev/formengine/databases/sqlite"
	"github.com/melkeydev/formengine/types"
)

// Database is a connected store plus the dialect rules needed to build
// statements against tables that are only known at runtime.
type Database interface {
	Ping(ctx context.Context) error
	DB() *sqlx.DB
	// Quote renders an already allowlisted identifier for this dialect.
	Quote(ident string) string
	// LabelExpr joins the quoted columns with '-', substituting '' for NULL.
	LabelExpr(quoted []string) string
	DescribeTable(ctx context.Context, table string) ([]types.Column, error)
	ListTables(ctx context.Context) ([]string, error)
	Close() error
}

func NewConnector(dbType, connectionString string) (Database, error) {
	switch dbType {
	case "mysql":
		return mysql.NewMySQLConnector(connectionString)
	case "postgres":
		return postgres.NewPostgresConnector(connectionString)
	case "sqlite":
		return sqlite.NewSQLiteConnector(connectionString)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// OpenerFor returns the Opener the shared Pool uses for cfg.
func OpenerFor(cfg config.DatabaseConfig) Opener {
	return func(ctx context.Context) (Database, error) {
		connStr, err := cfg.GetConnectionString()
		if err != nil {
			return nil, err
		}
		return NewConnector(cfg.DBType, connStr)
	}
}

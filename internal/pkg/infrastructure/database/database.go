package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/diwise/cheap/pkg/cheap/dialect"
	"github.com/diwise/cheap/pkg/cheap/errors"
)

type Config struct {
	driver     string
	host       string
	user       string
	password   string
	port       string
	dbname     string
	sslmode    string
	sqlitePath string
}

// LoadConfiguration reads the connection settings from environment variables
// named with the given prefix, such as MIRROR_POSTGRES_HOST for prefix MIRROR_
func LoadConfiguration(ctx context.Context, prefix string) Config {
	return Config{
		driver:     env.GetVariableOrDefault(ctx, prefix+"DATABASE_DRIVER", dialect.PostgresName),
		host:       env.GetVariableOrDefault(ctx, prefix+"POSTGRES_HOST", ""),
		user:       env.GetVariableOrDefault(ctx, prefix+"POSTGRES_USER", ""),
		password:   env.GetVariableOrDefault(ctx, prefix+"POSTGRES_PASSWORD", ""),
		port:       env.GetVariableOrDefault(ctx, prefix+"POSTGRES_PORT", "5432"),
		dbname:     env.GetVariableOrDefault(ctx, prefix+"POSTGRES_DBNAME", "cheap"),
		sslmode:    env.GetVariableOrDefault(ctx, prefix+"POSTGRES_SSLMODE", "disable"),
		sqlitePath: env.GetVariableOrDefault(ctx, prefix+"SQLITE_PATH", "cheap.db"),
	}
}

func NewSQLiteConfig(path string) Config {
	return Config{driver: dialect.SQLiteName, sqlitePath: path}
}

func (c Config) Driver() string {
	return c.driver
}

func (c Config) ConnStr() string {
	if d, err := dialect.ForName(c.driver); err == nil && d.Name() == dialect.SQLiteName {
		sep := "?"
		if strings.Contains(c.sqlitePath, "?") {
			sep = "&"
		}
		return c.sqlitePath + sep + "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.user, c.password, c.host, c.port, c.dbname, c.sslmode)
}

// Database is a connection pool together with the dialect of its backend
type Database struct {
	*sql.DB
	dialect dialect.Dialect
	pool    *pgxpool.Pool
}

func (d *Database) Dialect() dialect.Dialect {
	return d.dialect
}

func (d *Database) Close() error {
	err := d.DB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

func Open(ctx context.Context, cfg Config) (*Database, error) {
	d, err := dialect.ForName(cfg.driver)
	if err != nil {
		return nil, err
	}

	log := logging.GetFromContext(ctx).With(slog.String("driver", d.Name()))

	if d.Name() == dialect.SQLiteName {
		db, err := sql.Open("sqlite3", cfg.ConnStr())
		if err != nil {
			return nil, errors.NewPersistenceError(err, "failed to open sqlite database %s", cfg.sqlitePath)
		}

		if cfg.sqlitePath == ":memory:" {
			// every connection to :memory: is a database of its own
			db.SetMaxOpenConns(1)
		}

		if err = db.PingContext(ctx); err != nil {
			db.Close()
			return nil, errors.NewPersistenceError(err, "failed to connect to sqlite database %s", cfg.sqlitePath)
		}

		log.Debug("connected to database", slog.String("path", cfg.sqlitePath))

		return &Database{DB: db, dialect: d}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, errors.NewPersistenceError(err, "failed to create connection pool")
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.NewPersistenceError(err, "failed to connect to %s:%s/%s", cfg.host, cfg.port, cfg.dbname)
	}

	log.Debug("connected to database", slog.String("host", cfg.host), slog.String("dbname", cfg.dbname))

	return &Database{DB: stdlib.OpenDBFromPool(pool), dialect: d, pool: pool}, nil
}

package persistence

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"

	"github.com/diwise/cheap/pkg/cheap/errors"
)

type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTransaction runs fn inside a transaction that is committed when fn returns
// nil and rolled back when it returns an error or panics
func WithTransaction(ctx context.Context, db TxBeginner, fn func(tx Conn) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewPersistenceError(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.GetFromContext(ctx).Warn("failed to roll back transaction", slog.String("err", rbErr.Error()))
			}
			return
		}

		if cErr := tx.Commit(); cErr != nil {
			err = errors.NewPersistenceError(cErr, "failed to commit transaction")
		}
	}()

	return fn(tx)
}

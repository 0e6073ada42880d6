package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrTxClosed = errors.New("transaction déjà terminée")

// Transaction enveloppe pgx.Tx; commit et rollback restent à la charge du TransactionManager
type Transaction struct {
	tx   pgx.Tx
	done bool
}

type TransactionManager struct {
	client *Client
}

type TxFunc func(tx *Transaction) error

func NewTransactionManager(client *Client) *TransactionManager {
	return &TransactionManager{client: client}
}

// WithTransaction exécute fn en READ COMMITTED: commit si fn réussit, rollback sinon (panic compris)
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn TxFunc) (err error) {
	if tm.client == nil || tm.client.pool == nil {
		return errors.New("pool PostgreSQL non initialisé")
	}

	pgxTx, err := tm.client.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("ouverture transaction: %w", err)
	}
	tx := &Transaction{tx: pgxTx}

	defer func() {
		if tx.done {
			return
		}
		if rbErr := pgxTx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	tx.done = true
	if err = pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (t *Transaction) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if t.done {
		return nil, ErrTxClosed
	}
	return t.tx.Query(ctx, sql, args...)
}

func (t *Transaction) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if t.done {
		return errRow{ErrTxClosed}
	}
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t *Transaction) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.ExecTag(ctx, sql, args...)
	return err
}

// ExecTag retourne le CommandTag pour contrôler le nombre de lignes touchées
func (t *Transaction) ExecTag(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.done {
		return pgconn.CommandTag{}, ErrTxClosed
	}
	return t.tx.Exec(ctx, sql, args...)
}

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

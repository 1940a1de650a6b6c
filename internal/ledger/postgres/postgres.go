// Package postgres stores ledger records and balances in PostgreSQL. Each
// RunInTx is one SQL transaction; rows touched by a transaction are locked
// with SELECT ... FOR UPDATE so concurrent drains of a balance serialize
// under read committed isolation.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// Ledger is a PostgreSQL-backed ledger.
type Ledger struct {
	db      *sql.DB
	timeout time.Duration
}

// Open connects with the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// New wraps an open database. Call Migrate first.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, timeout: defaultTxTimeout}
}

func (l *Ledger) RunInTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	sqlTx, err := l.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return translate(fmt.Errorf("begin ledger tx: %w", err))
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return translate(fmt.Errorf("commit ledger tx: %w", err))
	}
	return nil
}

func (l *Ledger) Airdrop(ctx context.Context, to domain.Address, amount domain.Amount) error {
	return l.RunInTx(ctx, func(tx ledger.Tx) error {
		return tx.(*pgTx).credit(ctx, to, amount)
	})
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) Load(ctx context.Context, addr domain.Address, dst ledger.Record) error {
	var (
		kind string
		data []byte
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT kind, data FROM ledger_records WHERE address = $1 FOR UPDATE`, addr[:],
	).Scan(&kind, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return translate(fmt.Errorf("load record: %w", err))
	}
	return ledger.Decode(data, dst)
}

func (t *pgTx) Exists(ctx context.Context, addr domain.Address) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_records WHERE address = $1)`, addr[:],
	).Scan(&exists)
	if err != nil {
		return false, translate(fmt.Errorf("check record: %w", err))
	}
	return exists, nil
}

func (t *pgTx) Insert(ctx context.Context, addr domain.Address, rec ledger.Record) error {
	raw, err := ledger.Encode(rec)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO ledger_records (address, kind, data) VALUES ($1, $2, $3) ON CONFLICT (address) DO NOTHING`,
		addr[:], string(rec.RecordKind()), raw,
	)
	if err != nil {
		return translate(fmt.Errorf("insert record: %w", err))
	}
	return requireRow(res, sentinel.ErrConflict)
}

func (t *pgTx) Save(ctx context.Context, addr domain.Address, rec ledger.Record) error {
	raw, err := ledger.Encode(rec)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE ledger_records SET kind = $2, data = $3, updated_at = now() WHERE address = $1`,
		addr[:], string(rec.RecordKind()), raw,
	)
	if err != nil {
		return translate(fmt.Errorf("save record: %w", err))
	}
	return requireRow(res, sentinel.ErrNotFound)
}

func (t *pgTx) Balance(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	var amount string
	err := t.tx.QueryRowContext(ctx,
		`SELECT amount::text FROM ledger_balances WHERE address = $1 FOR UPDATE`, addr[:],
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, translate(fmt.Errorf("load balance: %w", err))
	}
	n, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", amount, err)
	}
	return domain.Amount(n), nil
}

func (t *pgTx) Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error {
	if amount == 0 || from == to {
		return nil
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE ledger_balances SET amount = amount - $2::numeric WHERE address = $1 AND amount >= $2::numeric`,
		from[:], strconv.FormatUint(uint64(amount), 10),
	)
	if err != nil {
		return translate(fmt.Errorf("debit balance: %w", err))
	}
	if err := requireRow(res, sentinel.ErrInsufficientFunds); err != nil {
		return err
	}
	return t.credit(ctx, to, amount)
}

func (t *pgTx) credit(ctx context.Context, to domain.Address, amount domain.Amount) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO ledger_balances (address, amount) VALUES ($1, $2::numeric)
		 ON CONFLICT (address) DO UPDATE SET amount = ledger_balances.amount + EXCLUDED.amount`,
		to[:], strconv.FormatUint(uint64(amount), 10),
	)
	if err != nil {
		return translate(fmt.Errorf("credit balance: %w", err))
	}
	return nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

// translate maps lock and serialization failures onto ErrUnavailable so
// callers can tell contention from corruption.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, pgErr.Message)
		}
	}
	return err
}

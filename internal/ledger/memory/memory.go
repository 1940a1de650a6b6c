// Package memory is an in-process ledger. Transactions are serialized under a
// single mutex and stage their writes in an overlay that is merged only when
// the callback succeeds.
package memory

import (
	"context"
	"fmt"
	"math"
	"sync"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/sentinel"
)

// Ledger stores encoded records and balances in maps.
type Ledger struct {
	mu       sync.Mutex
	records  map[domain.Address][]byte
	balances map[domain.Address]domain.Amount
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		records:  make(map[domain.Address][]byte),
		balances: make(map[domain.Address]domain.Amount),
	}
}

func (l *Ledger) RunInTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	tx := &memTx{
		base:     l,
		records:  make(map[domain.Address][]byte),
		balances: make(map[domain.Address]domain.Amount),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for addr, raw := range tx.records {
		l.records[addr] = raw
	}
	for addr, amount := range tx.balances {
		l.balances[addr] = amount
	}
	return nil
}

func (l *Ledger) Airdrop(ctx context.Context, to domain.Address, amount domain.Amount) error {
	return l.RunInTx(ctx, func(tx ledger.Tx) error {
		return tx.(*memTx).credit(to, amount)
	})
}

type memTx struct {
	base     *Ledger
	records  map[domain.Address][]byte
	balances map[domain.Address]domain.Amount
}

func (t *memTx) raw(addr domain.Address) ([]byte, bool) {
	if raw, ok := t.records[addr]; ok {
		return raw, true
	}
	raw, ok := t.base.records[addr]
	return raw, ok
}

func (t *memTx) Load(_ context.Context, addr domain.Address, dst ledger.Record) error {
	raw, ok := t.raw(addr)
	if !ok {
		return sentinel.ErrNotFound
	}
	return ledger.Decode(raw, dst)
}

func (t *memTx) Exists(_ context.Context, addr domain.Address) (bool, error) {
	_, ok := t.raw(addr)
	return ok, nil
}

func (t *memTx) Insert(_ context.Context, addr domain.Address, rec ledger.Record) error {
	if _, ok := t.raw(addr); ok {
		return sentinel.ErrConflict
	}
	return t.put(addr, rec)
}

func (t *memTx) Save(_ context.Context, addr domain.Address, rec ledger.Record) error {
	if _, ok := t.raw(addr); !ok {
		return sentinel.ErrNotFound
	}
	return t.put(addr, rec)
}

func (t *memTx) put(addr domain.Address, rec ledger.Record) error {
	raw, err := ledger.Encode(rec)
	if err != nil {
		return err
	}
	t.records[addr] = raw
	return nil
}

func (t *memTx) Balance(_ context.Context, addr domain.Address) (domain.Amount, error) {
	return t.balance(addr), nil
}

func (t *memTx) balance(addr domain.Address) domain.Amount {
	if amount, ok := t.balances[addr]; ok {
		return amount
	}
	return t.base.balances[addr]
}

func (t *memTx) Transfer(_ context.Context, from, to domain.Address, amount domain.Amount) error {
	if amount == 0 || from == to {
		return nil
	}
	available := t.balance(from)
	if available < amount {
		return fmt.Errorf("%w: need %d, have %d", sentinel.ErrInsufficientFunds, amount, available)
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	t.balances[from] = available - amount
	return nil
}

func (t *memTx) credit(to domain.Address, amount domain.Amount) error {
	current := t.balance(to)
	if current > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance overflow", sentinel.ErrInvalidState)
	}
	t.balances[to] = current + amount
	return nil
}

// Package redis keeps ledger records and balances in Redis. A lease lock
// serializes transactions. Staged writes are committed by one script that
// first checks the lease is still ours, so a failed callback or a holder
// whose lease expired leaves nothing behind.
package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	dErrors "paperledger/pkg/domain-errors"
	"paperledger/pkg/platform/sentinel"
)

const (
	defaultPrefix    = "ledger"
	defaultLockTTL   = 10 * time.Second
	defaultTxTimeout = 5 * time.Second
	lockRetryDelay   = 10 * time.Millisecond
)

// releaseScript deletes the lock only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// commitScript applies staged SETs only while KEYS[1] still holds ARGV[1].
// KEYS[i] is written with ARGV[i] for i >= 2.
var commitScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
for i = 2, #KEYS do
	redis.call("SET", KEYS[i], ARGV[i])
end
return 1
`)

// Ledger is a Redis-backed ledger.
type Ledger struct {
	client  redis.UniversalClient
	prefix  string
	lockTTL time.Duration
	timeout time.Duration
}

type Option func(*Ledger)

// WithPrefix namespaces every key.
func WithPrefix(prefix string) Option {
	return func(l *Ledger) { l.prefix = prefix }
}

// WithLockTTL bounds how long a crashed holder can block others.
func WithLockTTL(ttl time.Duration) Option {
	return func(l *Ledger) { l.lockTTL = ttl }
}

// New wraps a connected client.
func New(client redis.UniversalClient, opts ...Option) *Ledger {
	l := &Ledger{
		client:  client,
		prefix:  defaultPrefix,
		lockTTL: defaultLockTTL,
		timeout: defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Keys share a hash tag so the commit script touches a single cluster slot.
func (l *Ledger) key(parts ...string) string {
	k := "{" + l.prefix + "}"
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (l *Ledger) lockKey() string { return l.key("lock") }

func (l *Ledger) recordKey(addr domain.Address) string {
	return l.key("rec", addr.String())
}

func (l *Ledger) balanceKey(addr domain.Address) string {
	return l.key("bal", addr.String())
}

func (l *Ledger) RunInTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	lockCtx, cancelWait := context.WithTimeout(ctx, l.timeout)
	defer cancelWait()

	token, err := l.acquire(lockCtx)
	if err != nil {
		return err
	}
	// The callback and commit must finish inside the lease.
	ctx, cancel := context.WithTimeout(ctx, l.lockTTL)
	defer cancel()
	defer func() {
		// Release even if ctx expired mid-transaction.
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{l.lockKey()}, token).Err()
	}()

	tx := &redisTx{
		ledger:   l,
		token:    token,
		records:  make(map[domain.Address][]byte),
		balances: make(map[domain.Address]domain.Amount),
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

func (l *Ledger) acquire(ctx context.Context) (string, error) {
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, l.lockKey(), token, l.lockTTL).Result()
		if err != nil {
			return "", fmt.Errorf("%w: acquire ledger lock: %v", sentinel.ErrUnavailable, err)
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: ledger lock busy: %v", sentinel.ErrUnavailable, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}
}

func (l *Ledger) Airdrop(ctx context.Context, to domain.Address, amount domain.Amount) error {
	return l.RunInTx(ctx, func(tx ledger.Tx) error {
		return tx.(*redisTx).credit(ctx, to, amount)
	})
}

type redisTx struct {
	ledger   *Ledger
	token    string
	records  map[domain.Address][]byte
	balances map[domain.Address]domain.Amount
}

func (t *redisTx) raw(ctx context.Context, addr domain.Address) ([]byte, bool, error) {
	if raw, ok := t.records[addr]; ok {
		return raw, true, nil
	}
	raw, err := t.ledger.client.Get(ctx, t.ledger.recordKey(addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get record: %w", err)
	}
	return raw, true, nil
}

func (t *redisTx) Load(ctx context.Context, addr domain.Address, dst ledger.Record) error {
	raw, ok, err := t.raw(ctx, addr)
	if err != nil {
		return err
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return ledger.Decode(raw, dst)
}

func (t *redisTx) Exists(ctx context.Context, addr domain.Address) (bool, error) {
	_, ok, err := t.raw(ctx, addr)
	return ok, err
}

func (t *redisTx) Insert(ctx context.Context, addr domain.Address, rec ledger.Record) error {
	_, ok, err := t.raw(ctx, addr)
	if err != nil {
		return err
	}
	if ok {
		return sentinel.ErrConflict
	}
	return t.put(addr, rec)
}

func (t *redisTx) Save(ctx context.Context, addr domain.Address, rec ledger.Record) error {
	_, ok, err := t.raw(ctx, addr)
	if err != nil {
		return err
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return t.put(addr, rec)
}

func (t *redisTx) put(addr domain.Address, rec ledger.Record) error {
	raw, err := ledger.Encode(rec)
	if err != nil {
		return err
	}
	t.records[addr] = raw
	return nil
}

func (t *redisTx) Balance(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	if amount, ok := t.balances[addr]; ok {
		return amount, nil
	}
	val, err := t.ledger.client.Get(ctx, t.ledger.balanceKey(addr)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", val, err)
	}
	return domain.Amount(n), nil
}

func (t *redisTx) Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error {
	if amount == 0 || from == to {
		return nil
	}
	available, err := t.Balance(ctx, from)
	if err != nil {
		return err
	}
	if available < amount {
		return fmt.Errorf("%w: need %d, have %d", sentinel.ErrInsufficientFunds, amount, available)
	}
	if err := t.credit(ctx, to, amount); err != nil {
		return err
	}
	t.balances[from] = available - amount
	return nil
}

func (t *redisTx) credit(ctx context.Context, to domain.Address, amount domain.Amount) error {
	current, err := t.Balance(ctx, to)
	if err != nil {
		return err
	}
	if current > math.MaxUint64-amount {
		return fmt.Errorf("%w: balance overflow", sentinel.ErrInvalidState)
	}
	t.balances[to] = current + amount
	return nil
}

func (t *redisTx) commit(ctx context.Context) error {
	if len(t.records) == 0 && len(t.balances) == 0 {
		return nil
	}
	keys := make([]string, 0, 1+len(t.records)+len(t.balances))
	args := make([]any, 0, cap(keys))
	keys = append(keys, t.ledger.lockKey())
	args = append(args, t.token)
	for addr, raw := range t.records {
		keys = append(keys, t.ledger.recordKey(addr))
		args = append(args, raw)
	}
	for addr, amount := range t.balances {
		keys = append(keys, t.ledger.balanceKey(addr))
		args = append(args, strconv.FormatUint(uint64(amount), 10))
	}
	applied, err := commitScript.Run(ctx, t.ledger.client, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("%w: commit ledger writes: %v", sentinel.ErrUnavailable, err)
	}
	if applied == 0 {
		return fmt.Errorf("%w: ledger lease expired before commit", sentinel.ErrUnavailable)
	}
	return nil
}

//go:build integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"paperledger/internal/ledger"
	"paperledger/internal/ledger/ledgertest"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/sentinel"
	"paperledger/pkg/testutil/containers"
)

func TestRedisLedger(t *testing.T) {
	rc := containers.NewRedisContainer(t)

	suite.Run(t, &ledgertest.Suite{
		NewLedger: func() ledger.Ledger {
			if err := rc.FlushAll(context.Background()); err != nil {
				t.Fatalf("flush: %v", err)
			}
			return New(rc.Client, WithPrefix("ledgertest"))
		},
	})
}

func balanceOf(t *testing.T, l *Ledger, addr domain.Address) domain.Amount {
	t.Helper()
	var got domain.Amount
	require.NoError(t, l.RunInTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		got, err = tx.Balance(context.Background(), addr)
		return err
	}))
	return got
}

func TestRedisLedger_ExpiredLeaseDoesNotCommit(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	const ttl = 100 * time.Millisecond
	l := New(rc.Client, WithPrefix("lease"), WithLockTTL(ttl))

	buyerX := ledger.Derive(ledger.Tag("buyer-x"))
	buyerY := ledger.Derive(ledger.Tag("buyer-y"))
	seller := ledger.Derive(ledger.Tag("seller"))
	require.NoError(t, l.Airdrop(ctx, buyerX, 100))
	require.NoError(t, l.Airdrop(ctx, buyerY, 100))

	staged := make(chan struct{})
	slowErr := make(chan error, 1)
	go func() {
		slowErr <- l.RunInTx(ctx, func(tx ledger.Tx) error {
			if err := tx.Transfer(ctx, buyerX, seller, 100); err != nil {
				return err
			}
			close(staged)
			time.Sleep(3 * ttl)
			return nil
		})
	}()

	<-staged
	err := l.RunInTx(ctx, func(tx ledger.Tx) error {
		return tx.Transfer(ctx, buyerY, seller, 100)
	})
	require.NoError(t, err)

	err = <-slowErr
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable), "got %v", err)

	assert.Equal(t, domain.Amount(100), balanceOf(t, l, buyerX))
	assert.Equal(t, domain.Amount(0), balanceOf(t, l, buyerY))
	assert.Equal(t, domain.Amount(100), balanceOf(t, l, seller))
}

func TestRedisLedger_StolenLockAbortsCommit(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	l := New(rc.Client, WithPrefix("stolen"))
	wallet := ledger.Derive(ledger.Tag("wallet"))

	err := l.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.(*redisTx).credit(ctx, wallet, 50); err != nil {
			return err
		}
		return rc.Client.Set(ctx, l.lockKey(), "someone-else", time.Second).Err()
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable), "got %v", err)

	require.NoError(t, rc.Client.Del(ctx, l.lockKey()).Err())
	assert.Equal(t, domain.Amount(0), balanceOf(t, l, wallet))
}

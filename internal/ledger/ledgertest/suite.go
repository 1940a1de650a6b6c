// Package ledgertest holds the behaviour every ledger backend must share.
// Backend packages embed Suite and supply a fresh ledger per test.
package ledgertest

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/suite"

	"paperledger/internal/ledger"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/sentinel"
)

// Note is a minimal record used to exercise the substrate.
type Note struct {
	Owner domain.Identity `json:"owner"`
	Body  string          `json:"body"`
	Count uint32          `json:"count"`
}

func (Note) RecordKind() ledger.Kind { return "note" }

// Other has a different kind so mismatched loads can be checked.
type Other struct {
	Body string `json:"body"`
}

func (Other) RecordKind() ledger.Kind { return "other" }

// Suite runs the substrate contract. NewLedger must return an empty ledger.
type Suite struct {
	suite.Suite
	NewLedger func() ledger.Ledger
	ledger    ledger.Ledger
}

func (s *Suite) SetupTest() {
	s.ledger = s.NewLedger()
}

func (s *Suite) addr(tag string) domain.Address {
	return ledger.Derive(ledger.Tag("ledgertest"), ledger.Tag(tag))
}

func (s *Suite) TestInsertLoadSave() {
	ctx := context.Background()
	addr := s.addr("insert")
	owner := domain.Identity{1}

	s.Run("insert then load returns the stored record", func() {
		err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			return tx.Insert(ctx, addr, Note{Owner: owner, Body: "first"})
		})
		s.Require().NoError(err)

		var got Note
		err = s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			return tx.Load(ctx, addr, &got)
		})
		s.Require().NoError(err)
		s.Equal(owner, got.Owner)
		s.Equal("first", got.Body)
	})

	s.Run("second insert conflicts", func() {
		err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			return tx.Insert(ctx, addr, Note{Owner: owner, Body: "again"})
		})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("save replaces content", func() {
		err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			return tx.Save(ctx, addr, Note{Owner: owner, Body: "edited", Count: 2})
		})
		s.Require().NoError(err)

		var got Note
		s.Require().NoError(s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			return tx.Load(ctx, addr, &got)
		}))
		s.Equal("edited", got.Body)
		s.Equal(uint32(2), got.Count)
	})

	s.Run("save of missing address is not found", func() {
		err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			return tx.Save(ctx, s.addr("missing"), Note{Owner: owner})
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("load with the wrong kind is invalid state", func() {
		err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			var other Other
			return tx.Load(ctx, addr, &other)
		})
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})
}

func (s *Suite) TestFailedCallbackDiscardsWrites() {
	ctx := context.Background()
	addr := s.addr("rollback")
	wallet := domain.Identity{2}.Wallet()
	sink := s.addr("sink")
	s.Require().NoError(s.ledger.Airdrop(ctx, wallet, 100))

	boom := errors.New("boom")
	err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		if err := tx.Insert(ctx, addr, Note{Owner: domain.Identity{2}, Body: "staged"}); err != nil {
			return err
		}
		if err := tx.Transfer(ctx, wallet, sink, 60); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	s.Require().NoError(s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
		exists, err := tx.Exists(ctx, addr)
		s.Require().NoError(err)
		s.False(exists)

		bal, err := tx.Balance(ctx, wallet)
		s.Require().NoError(err)
		s.Equal(domain.Amount(100), bal)

		bal, err = tx.Balance(ctx, sink)
		s.Require().NoError(err)
		s.Zero(bal)
		return nil
	}))
}

func (s *Suite) TestTransfer() {
	ctx := context.Background()
	from := domain.Identity{3}.Wallet()
	to := s.addr("vault")
	s.Require().NoError(s.ledger.Airdrop(ctx, from, 1_000))

	s.Run("moves value and conserves the total", func() {
		s.Require().NoError(s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			return tx.Transfer(ctx, from, to, 400)
		}))
		s.Require().NoError(s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			a, err := tx.Balance(ctx, from)
			s.Require().NoError(err)
			b, err := tx.Balance(ctx, to)
			s.Require().NoError(err)
			s.Equal(domain.Amount(600), a)
			s.Equal(domain.Amount(400), b)
			return nil
		}))
	})

	s.Run("overdraw is rejected", func() {
		err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			return tx.Transfer(ctx, from, to, 601)
		})
		s.Require().ErrorIs(err, sentinel.ErrInsufficientFunds)
	})

	s.Run("reads inside a transaction see its own writes", func() {
		s.Require().NoError(s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
			s.Require().NoError(tx.Transfer(ctx, to, from, 400))
			bal, err := tx.Balance(ctx, to)
			s.Require().NoError(err)
			s.Zero(bal)
			return nil
		}))
	})
}

// TestConcurrentDrain checks that two transactions draining the same balance
// cannot both move funds.
func (s *Suite) TestConcurrentDrain() {
	ctx := context.Background()
	vault := s.addr("drain")
	s.Require().NoError(s.ledger.Airdrop(ctx, vault, 500))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range 2 {
		wg.Add(1)
		go func(dest domain.Address) {
			defer wg.Done()
			err := s.ledger.RunInTx(ctx, func(tx ledger.Tx) error {
				bal, err := tx.Balance(ctx, vault)
				if err != nil {
					return err
				}
				if bal == 0 {
					return sentinel.ErrInsufficientFunds
				}
				return tx.Transfer(ctx, vault, dest, bal)
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(domain.Identity{byte(10 + i)}.Wallet())
	}
	wg.Wait()

	s.Equal(1, successes)
}

func (s *Suite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.ledger.RunInTx(ctx, func(ledger.Tx) error {
		called = true
		return nil
	})
	s.Require().Error(err)
	s.False(called)
}

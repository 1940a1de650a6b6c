package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"paperledger/internal/ledger"
	"paperledger/internal/ledger/ledgertest"
)

func TestMemoryLedger(t *testing.T) {
	suite.Run(t, &ledgertest.Suite{
		NewLedger: func() ledger.Ledger { return New() },
	})
}

// Package ledger defines the record substrate every marketplace operation
// runs against: addressed records, value balances, and a single atomic
// transaction boundary.
package ledger

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"paperledger/internal/ledger/codec"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/sentinel"
)

// Kind names the record type stored at an address. Loading an address into a
// record of another kind fails with sentinel.ErrInvalidState.
type Kind string

// Record is any value that can be stored at a ledger address.
type Record interface {
	RecordKind() Kind
}

// Tx is the view an operation gets inside RunInTx. Writes become visible to
// other transactions only when the callback returns nil.
//
// Errors are sentinel values from pkg/platform/sentinel:
//   - Load, Save: ErrNotFound when nothing is stored at the address
//   - Insert: ErrConflict when a record already exists
//   - Transfer: ErrInsufficientFunds when the source cannot cover the amount
type Tx interface {
	Load(ctx context.Context, addr domain.Address, dst Record) error
	Exists(ctx context.Context, addr domain.Address) (bool, error)
	Insert(ctx context.Context, addr domain.Address, rec Record) error
	Save(ctx context.Context, addr domain.Address, rec Record) error
	Balance(ctx context.Context, addr domain.Address) (domain.Amount, error)
	Transfer(ctx context.Context, from, to domain.Address, amount domain.Amount) error
}

// Ledger runs transactions. Implementations commit all writes of a successful
// callback together and discard every write of a failed one.
type Ledger interface {
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	// Airdrop credits a spendable balance. It stands in for funding that
	// arrives from outside the marketplace.
	Airdrop(ctx context.Context, to domain.Address, amount domain.Amount) error
}

// addressDomainKey is the BLAKE3 key for address derivation: the ASCII name
// of the domain, exactly 32 bytes.
var addressDomainKey = [32]byte{
	'p', 'a', 'p', 'e', 'r', 'l', 'e', 'd', 'g', 'e', 'r', '/',
	'a', 'd', 'd', 'r', 'e', 's', 's', '-', 'd', 'e', 'r', 'i', 'v', 'a', 't', 'i', 'o', 'n',
	'/', '1',
}

// Derive computes the address for a seed tuple. The seeds are encoded as a
// deterministic CBOR array of byte strings, so ("ab","c") and ("a","bc")
// never collide.
func Derive(seeds ...[]byte) domain.Address {
	encoded, err := codec.Marshal(seeds)
	if err != nil {
		// [][]byte always encodes.
		panic(fmt.Sprintf("ledger: encode seeds: %v", err))
	}
	h, err := blake3.NewKeyed(addressDomainKey[:])
	if err != nil {
		panic(fmt.Sprintf("ledger: keyed hasher: %v", err))
	}
	_, _ = h.Write(encoded)
	var out domain.Address
	copy(out[:], h.Sum(nil))
	return out
}

// Seed helpers keep call sites readable.

func Tag(s string) []byte { return []byte(s) }

func IdentitySeed(id domain.Identity) []byte { return id[:] }

func AddressSeed(addr domain.Address) []byte { return addr[:] }

// U64Seed encodes n as 8 little-endian bytes.
func U64Seed(n uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, n)
}

// U32Seed encodes n as 4 little-endian bytes.
func U32Seed(n uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, n)
}

// Envelope is the stored form of a record.
type Envelope struct {
	Kind Kind   `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint"`
}

// Encode wraps rec into its stored bytes.
func Encode(rec Record) ([]byte, error) {
	data, err := codec.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", rec.RecordKind(), err)
	}
	return codec.Marshal(Envelope{Kind: rec.RecordKind(), Data: data})
}

// Decode unpacks stored bytes into dst, checking the kind.
func Decode(raw []byte, dst Record) error {
	var env Envelope
	if err := codec.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Kind != dst.RecordKind() {
		return fmt.Errorf("%w: stored %s, requested %s", sentinel.ErrInvalidState, env.Kind, dst.RecordKind())
	}
	if err := codec.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode %s record: %w", env.Kind, err)
	}
	return nil
}

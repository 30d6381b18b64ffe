package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

const (
	// DefaultEVMChainID matches the chain's EVM chain id
	DefaultEVMChainID uint64 = 7777

	// DefaultNativeDenom is the bank denom backing the native asset (token 0x0)
	DefaultNativeDenom = "acompact"

	// CompactAddress is the precompile address and the default verifying contract
	CompactAddress = "0x0000000000000000000000000000000000000103"

	// TokenDenomPrefix prefixes bank denoms of ERC20-backed locks
	TokenDenomPrefix = "erc20/"
)

// Params defines the module parameters
type Params struct {
	EVMChainID        uint64         `json:"evm_chain_id"`
	NativeDenom       string         `json:"native_denom"`
	VerifyingContract common.Address `json:"verifying_contract"`
}

// DefaultParams returns the default module parameters
func DefaultParams() Params {
	return Params{
		EVMChainID:        DefaultEVMChainID,
		NativeDenom:       DefaultNativeDenom,
		VerifyingContract: common.HexToAddress(CompactAddress),
	}
}

// Validate checks the parameters for consistency
func (p Params) Validate() error {
	if p.EVMChainID == 0 {
		return fmt.Errorf("%w: evm chain id must be positive", ErrInvalidParams)
	}
	if err := sdk.ValidateDenom(p.NativeDenom); err != nil {
		return fmt.Errorf("%w: native denom: %v", ErrInvalidParams, err)
	}
	if p.VerifyingContract == (common.Address{}) {
		return fmt.Errorf("%w: verifying contract must be set", ErrInvalidParams)
	}
	return nil
}

// DenomFor returns the bank denom holding the underlying asset of token.
func (p Params) DenomFor(token common.Address) string {
	if token == (common.Address{}) {
		return p.NativeDenom
	}
	return TokenDenomPrefix + token.Hex()
}

// BalanceRecord is one owner's ERC6909 balance of a lock.
type BalanceRecord struct {
	Owner  common.Address `json:"owner"`
	ID     LockID         `json:"id"`
	Amount *uint256.Int   `json:"amount"`
}

// NonceBitmapRecord is one 256-nonce bucket of an allocator's consumed
// nonces. Bucket holds nonce >> 8 (31 bytes) and Bitmap the 32-byte bitmap.
type NonceBitmapRecord struct {
	Allocator common.Address `json:"allocator"`
	Bucket    hexutil.Bytes  `json:"bucket"`
	Bitmap    hexutil.Bytes  `json:"bitmap"`
}

// RegistrationRecord is an active registration of a sponsor.
type RegistrationRecord struct {
	Sponsor   common.Address `json:"sponsor"`
	ClaimHash common.Hash    `json:"claim_hash"`
	Typehash  common.Hash    `json:"typehash"`
}

// EmissaryRecord is a sponsor's emissary configuration for a lock tag.
// AssignableAt is math.MaxUint64 when no reassignment is scheduled.
type EmissaryRecord struct {
	Sponsor      common.Address `json:"sponsor"`
	LockTag      LockTag        `json:"lock_tag"`
	Emissary     common.Address `json:"emissary"`
	AssignableAt uint64         `json:"assignable_at"`
}

// ForcedWithdrawalRecord is an owner's armed forced withdrawal from a lock.
type ForcedWithdrawalRecord struct {
	Owner          common.Address `json:"owner"`
	ID             LockID         `json:"id"`
	WithdrawableAt uint64         `json:"withdrawable_at"`
}

// GenesisState defines the compact module's genesis state. Total supplies
// are not exported; they are the sums of Balances.
type GenesisState struct {
	Params            Params                   `json:"params"`
	Allocators        []common.Address         `json:"allocators"`
	Balances          []BalanceRecord          `json:"balances,omitempty"`
	NonceBitmaps      []NonceBitmapRecord      `json:"nonce_bitmaps,omitempty"`
	Registrations     []RegistrationRecord     `json:"registrations,omitempty"`
	Emissaries        []EmissaryRecord         `json:"emissaries,omitempty"`
	ForcedWithdrawals []ForcedWithdrawalRecord `json:"forced_withdrawals,omitempty"`
}

// NewGenesisState creates a new GenesisState object
func NewGenesisState(params Params, allocators []common.Address) *GenesisState {
	return &GenesisState{
		Params:     params,
		Allocators: allocators,
	}
}

// DefaultGenesisState returns a default genesis state
func DefaultGenesisState() *GenesisState {
	return NewGenesisState(DefaultParams(), nil)
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return err
	}
	seen := make(map[AllocatorID]common.Address, len(gs.Allocators))
	for _, a := range gs.Allocators {
		if a == (common.Address{}) {
			return fmt.Errorf("%w: zero allocator address", ErrInvalidAllocatorRegistration)
		}
		id := AllocatorIDFor(a)
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s and %s share allocator id %s", ErrInvalidAllocatorRegistration, prev.Hex(), a.Hex(), id)
		}
		seen[id] = a
	}

	type holding struct {
		owner common.Address
		id    LockID
	}
	held := make(map[holding]struct{}, len(gs.Balances))
	for _, b := range gs.Balances {
		if b.Amount == nil || b.Amount.IsZero() {
			return fmt.Errorf("%w: zero balance of %s for %s", ErrInvalidAmount, b.ID, b.Owner.Hex())
		}
		if _, ok := seen[b.ID.AllocatorID()]; !ok {
			return fmt.Errorf("%w: balance of %s", ErrAllocatorNotRegistered, b.ID)
		}
		key := holding{b.Owner, b.ID}
		if _, ok := held[key]; ok {
			return fmt.Errorf("%w: duplicate balance of %s for %s", ErrInvalidAmount, b.ID, b.Owner.Hex())
		}
		held[key] = struct{}{}
	}

	for _, n := range gs.NonceBitmaps {
		if len(n.Bucket) != 31 || len(n.Bitmap) != 32 {
			return fmt.Errorf("%w: nonce bitmap of %s must be a 31-byte bucket and a 32-byte bitmap", ErrInvalidNonce, n.Allocator.Hex())
		}
	}
	for _, w := range gs.ForcedWithdrawals {
		if w.WithdrawableAt == 0 {
			return fmt.Errorf("%w: forced withdrawal of %s for %s has no start", ErrForcedWithdrawalUnavailable, w.ID, w.Owner.Hex())
		}
	}
	return nil
}

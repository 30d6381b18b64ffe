package types

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
)

// BankKeeper defines the expected interface for the Bank module
// Method signatures must match cosmos-sdk/x/bank/keeper exactly
type BankKeeper interface {
	// SendCoinsFromAccountToModule transfers coins from an account to a module account
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error

	// SendCoinsFromModuleToAccount transfers coins from a module account to an account
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error

	// GetBalance returns the balance of a specific denom for an account
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
}

// ContractCaller reaches external contracts (allocators, emissaries and
// ERC-1271 sponsors). Call returns the raw return data; a callee revert is
// reported as *RevertError.
type ContractCaller interface {
	// HasCode reports whether addr is a contract.
	HasCode(ctx context.Context, addr common.Address) (bool, error)

	// Call executes input against to on behalf of from.
	Call(ctx context.Context, from, to common.Address, input []byte) ([]byte, error)
}

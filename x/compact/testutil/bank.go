package testutil

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"compactvault/x/compact/types"
)

var _ types.BankKeeper = (*MockBank)(nil)

// MockBank is an in-memory bank keeper. Balances live outside the store, so
// they are not rolled back with a failed cache context.
type MockBank struct {
	balances map[string]sdk.Coins
}

// NewMockBank creates an empty MockBank
func NewMockBank() *MockBank {
	return &MockBank{balances: make(map[string]sdk.Coins)}
}

// Fund credits coins to addr.
func (b *MockBank) Fund(addr sdk.AccAddress, coins sdk.Coins) {
	b.balances[string(addr)] = b.balances[string(addr)].Add(coins...)
}

func (b *MockBank) send(from, to sdk.AccAddress, amt sdk.Coins) error {
	have := b.balances[string(from)]
	if !have.IsAllGTE(amt) {
		return errorsmod.Wrapf(sdkerrors.ErrInsufficientFunds, "%s is smaller than %s", have, amt)
	}
	b.balances[string(from)] = have.Sub(amt...)
	b.balances[string(to)] = b.balances[string(to)].Add(amt...)
	return nil
}

func (b *MockBank) SendCoinsFromAccountToModule(_ context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return b.send(senderAddr, authtypes.NewModuleAddress(recipientModule), amt)
}

func (b *MockBank) SendCoinsFromModuleToAccount(_ context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return b.send(authtypes.NewModuleAddress(senderModule), recipientAddr, amt)
}

func (b *MockBank) GetBalance(_ context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	return sdk.NewCoin(denom, b.balances[string(addr)].AmountOf(denom))
}

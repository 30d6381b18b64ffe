package keeper

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/utils"
	"compactvault/x/compact/types"
)

func (k Keeper) coinsFor(ctx sdk.Context, token common.Address, amount *uint256.Int) sdk.Coins {
	denom := k.GetParams(ctx).DenomFor(token)
	return sdk.NewCoins(sdk.NewCoin(denom, sdkmath.NewIntFromBigInt(amount.ToBig())))
}

// collect moves the underlying asset of token from depositor into the
// module account.
func (k Keeper) collect(ctx sdk.Context, depositor, token common.Address, amount *uint256.Int) error {
	coins := k.coinsFor(ctx, token, amount)
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, utils.EthToAccAddress(depositor), types.ModuleName, coins); err != nil {
		return fmt.Errorf("failed to collect deposit: %w", err)
	}
	return nil
}

// release pays the underlying asset of token out of the module account.
func (k Keeper) release(ctx sdk.Context, token, recipient common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	coins := k.coinsFor(ctx, token, amount)
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, utils.EthToAccAddress(recipient), coins); err != nil {
		return fmt.Errorf("failed to release withdrawal: %w", err)
	}
	return nil
}

// withdraw burns from's balance of id and releases the underlying asset to
// recipient.
func (k Keeper) withdraw(ctx sdk.Context, from, recipient common.Address, id types.LockID, amount *uint256.Int) error {
	if err := k.burn(ctx, from, id, amount); err != nil {
		return err
	}
	return k.release(ctx, id.Token, recipient, amount)
}

// UnderlyingBalance returns the module account's holding of token.
func (k Keeper) UnderlyingBalance(ctx sdk.Context, token common.Address) *uint256.Int {
	moduleAddr := utils.ModuleEthAddress(types.ModuleName)
	coin := k.bankKeeper.GetBalance(ctx, utils.EthToAccAddress(moduleAddr), k.GetParams(ctx).DenomFor(token))
	v, overflow := uint256.FromBig(coin.Amount.BigInt())
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return v
}

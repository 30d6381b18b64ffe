package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// Transfer moves amount of id from caller to to once the lock's allocator
// attests to it.
func (k Keeper) Transfer(ctx sdk.Context, caller, to common.Address, id types.LockID, amount *uint256.Int) error {
	if amount == nil {
		amount = new(uint256.Int)
	}
	return k.guarded(ctx, func(ctx sdk.Context) error {
		allocator, err := k.allocatorFor(ctx, id.Tag)
		if err != nil {
			return err
		}
		req := types.AttestRequest{Operator: caller, From: caller, To: to, ID: id, Amount: amount}
		if err := k.attest(ctx, allocator, req); err != nil {
			return err
		}
		return k.move(ctx, caller, caller, to, id, amount)
	})
}

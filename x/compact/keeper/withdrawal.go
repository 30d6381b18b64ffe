package keeper

import (
	"encoding/binary"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// ForcedWithdrawalStatus tracks an owner's unilateral exit from a lock.
type ForcedWithdrawalStatus uint8

const (
	ForcedWithdrawalDisabled ForcedWithdrawalStatus = iota
	ForcedWithdrawalPending
	ForcedWithdrawalEnabled
)

func (s ForcedWithdrawalStatus) String() string {
	switch s {
	case ForcedWithdrawalDisabled:
		return "disabled"
	case ForcedWithdrawalPending:
		return "pending"
	case ForcedWithdrawalEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

func (k Keeper) withdrawableAt(ctx sdk.Context, owner common.Address, id types.LockID) uint64 {
	bz := ctx.KVStore(k.storeKey).Get(types.ForcedWithdrawalStoreKey(owner, id))
	if len(bz) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(bz)
}

// GetForcedWithdrawalStatus returns the status of owner's forced withdrawal
// from id and the time it becomes (or became) available.
func (k Keeper) GetForcedWithdrawalStatus(ctx sdk.Context, owner common.Address, id types.LockID) (ForcedWithdrawalStatus, uint64) {
	at := k.withdrawableAt(ctx, owner, id)
	switch {
	case at == 0:
		return ForcedWithdrawalDisabled, 0
	case blockTimestamp(ctx) < at:
		return ForcedWithdrawalPending, at
	default:
		return ForcedWithdrawalEnabled, at
	}
}

// EnableForcedWithdrawal starts the reset period of id for owner and
// returns when the withdrawal becomes available. Enabling again restarts it.
func (k Keeper) EnableForcedWithdrawal(ctx sdk.Context, owner common.Address, id types.LockID) uint64 {
	at := blockTimestamp(ctx) + id.ResetPeriod().Seconds()
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, at)
	ctx.KVStore(k.storeKey).Set(types.ForcedWithdrawalStoreKey(owner, id), bz)

	k.emitForcedWithdrawalStatus(ctx, owner, id, true, at)
	k.Logger(ctx).Info("enabled forced withdrawal", "account", owner.Hex(), "id", id.String(), "withdrawable_at", at)
	return at
}

// DisableForcedWithdrawal cancels a pending or enabled forced withdrawal.
func (k Keeper) DisableForcedWithdrawal(ctx sdk.Context, owner common.Address, id types.LockID) error {
	key := types.ForcedWithdrawalStoreKey(owner, id)
	store := ctx.KVStore(k.storeKey)
	if !store.Has(key) {
		return types.ErrForcedWithdrawalUnavailable.Wrapf("not enabled for %s", id)
	}
	store.Delete(key)

	k.emitForcedWithdrawalStatus(ctx, owner, id, false, 0)
	k.Logger(ctx).Info("disabled forced withdrawal", "account", owner.Hex(), "id", id.String())
	return nil
}

// ForcedWithdrawal burns amount of id from owner and releases the
// underlying asset to recipient without the allocator.
func (k Keeper) ForcedWithdrawal(ctx sdk.Context, owner common.Address, id types.LockID, recipient common.Address, amount *uint256.Int) error {
	if recipient == (common.Address{}) {
		recipient = owner
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	return k.guarded(ctx, func(ctx sdk.Context) error {
		status, at := k.GetForcedWithdrawalStatus(ctx, owner, id)
		if status != ForcedWithdrawalEnabled {
			return types.ErrForcedWithdrawalUnavailable.Wrapf("%s for %s, withdrawable at %d", status, id, at)
		}
		if err := k.withdraw(ctx, owner, recipient, id, amount); err != nil {
			return err
		}
		k.Logger(ctx).Info("forced withdrawal",
			"account", owner.Hex(),
			"recipient", recipient.Hex(),
			"id", id.String(),
			"amount", amount.Dec(),
		)
		return nil
	})
}

func (k Keeper) emitForcedWithdrawalStatus(ctx sdk.Context, owner common.Address, id types.LockID, activating bool, at uint64) {
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeForcedWithdrawalStatus,
		sdk.NewAttribute(types.AttributeKeyAccount, owner.Hex()),
		sdk.NewAttribute(types.AttributeKeyID, id.String()),
		sdk.NewAttribute(types.AttributeKeyActivating, strconv.FormatBool(activating)),
		sdk.NewAttribute(types.AttributeKeyWithdrawableAt, strconv.FormatUint(at, 10)),
	))
}

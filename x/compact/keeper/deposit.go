package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// Deposit locks amount of token held by depositor under tag and credits the
// resulting id to recipient (the depositor when recipient is zero).
func (k Keeper) Deposit(ctx sdk.Context, depositor, token common.Address, tag types.LockTag, amount *uint256.Int, recipient common.Address) (types.LockID, error) {
	var id types.LockID
	err := k.guarded(ctx, func(ctx sdk.Context) error {
		var err error
		id, err = k.deposit(ctx, depositor, token, tag, amount, recipient)
		return err
	})
	return id, err
}

// DepositAndRegister deposits and registers claimHash for the recipient in
// one step.
func (k Keeper) DepositAndRegister(
	ctx sdk.Context,
	depositor, token common.Address,
	tag types.LockTag,
	amount *uint256.Int,
	recipient common.Address,
	claimHash, typehash common.Hash,
) (types.LockID, error) {
	var id types.LockID
	err := k.guarded(ctx, func(ctx sdk.Context) error {
		var err error
		if id, err = k.deposit(ctx, depositor, token, tag, amount, recipient); err != nil {
			return err
		}
		if recipient == (common.Address{}) {
			recipient = depositor
		}
		k.Register(ctx, recipient, claimHash, typehash)
		return nil
	})
	return id, err
}

// RecordNativeDeposit mints for native value the caller already moved into
// the module account.
func (k Keeper) RecordNativeDeposit(ctx sdk.Context, tag types.LockTag, amount *uint256.Int, recipient common.Address) (types.LockID, error) {
	var id types.LockID
	err := k.guarded(ctx, func(ctx sdk.Context) error {
		if err := k.validateDeposit(ctx, tag, amount, recipient); err != nil {
			return err
		}
		var err error
		id, err = k.lock(ctx, common.Address{}, tag, amount, recipient)
		return err
	})
	return id, err
}

func (k Keeper) deposit(ctx sdk.Context, depositor, token common.Address, tag types.LockTag, amount *uint256.Int, recipient common.Address) (types.LockID, error) {
	if recipient == (common.Address{}) {
		recipient = depositor
	}
	if err := k.validateDeposit(ctx, tag, amount, recipient); err != nil {
		return types.LockID{}, err
	}
	if err := k.collect(ctx, depositor, token, amount); err != nil {
		return types.LockID{}, err
	}
	return k.lock(ctx, token, tag, amount, recipient)
}

func (k Keeper) validateDeposit(ctx sdk.Context, tag types.LockTag, amount *uint256.Int, recipient common.Address) error {
	if amount == nil || amount.IsZero() {
		return types.ErrInvalidAmount.Wrap("deposit amount must be positive")
	}
	if recipient == (common.Address{}) {
		return types.ErrInvalidAmount.Wrap("deposit recipient must be set")
	}
	_, err := k.allocatorFor(ctx, tag)
	return err
}

// lock mints amount of (tag, token) to recipient.
func (k Keeper) lock(ctx sdk.Context, token common.Address, tag types.LockTag, amount *uint256.Int, recipient common.Address) (types.LockID, error) {
	id := types.NewLockID(tag, token)
	if err := k.mint(ctx, recipient, id, amount); err != nil {
		return types.LockID{}, err
	}
	k.Logger(ctx).Info("deposited",
		"id", id.String(),
		"recipient", recipient.Hex(),
		"amount", amount.Dec(),
	)
	return id, nil
}

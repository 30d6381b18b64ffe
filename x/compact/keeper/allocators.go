package keeper

import (
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"compactvault/x/compact/types"
)

// RegisterAllocator registers allocator and returns its id. Only the
// allocator itself may register; registering twice returns the same id.
func (k Keeper) RegisterAllocator(ctx sdk.Context, caller, allocator common.Address) (types.AllocatorID, error) {
	if caller != allocator {
		return types.AllocatorID{}, types.ErrUnauthorized.Wrapf("%s cannot register allocator %s", caller.Hex(), allocator.Hex())
	}
	return k.registerAllocator(ctx, allocator)
}

func (k Keeper) registerAllocator(ctx sdk.Context, allocator common.Address) (types.AllocatorID, error) {
	if allocator == (common.Address{}) {
		return types.AllocatorID{}, types.ErrInvalidAllocatorRegistration.Wrap("zero address")
	}
	id := types.AllocatorIDFor(allocator)
	store := ctx.KVStore(k.storeKey)
	key := types.AllocatorStoreKey(id)

	if bz := store.Get(key); bz != nil {
		if existing := common.BytesToAddress(bz); existing != allocator {
			return types.AllocatorID{}, types.ErrInvalidAllocatorRegistration.Wrapf("id %s already held by %s", id, existing.Hex())
		}
		return id, nil
	}
	store.Set(key, allocator.Bytes())

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeAllocatorRegistered,
		sdk.NewAttribute(types.AttributeKeyAllocatorID, id.String()),
		sdk.NewAttribute(types.AttributeKeyAllocator, allocator.Hex()),
	))
	k.Logger(ctx).Info("registered allocator", "allocator", allocator.Hex(), "allocator_id", id.String())
	return id, nil
}

// GetAllocator resolves an allocator id to its registered address.
func (k Keeper) GetAllocator(ctx sdk.Context, id types.AllocatorID) (common.Address, bool) {
	bz := ctx.KVStore(k.storeKey).Get(types.AllocatorStoreKey(id))
	if bz == nil {
		return common.Address{}, false
	}
	return common.BytesToAddress(bz), true
}

// AllocatorIDOf returns the id of allocator if it is registered.
func (k Keeper) AllocatorIDOf(ctx sdk.Context, allocator common.Address) (types.AllocatorID, bool) {
	id := types.AllocatorIDFor(allocator)
	registered, ok := k.GetAllocator(ctx, id)
	if !ok || registered != allocator {
		return types.AllocatorID{}, false
	}
	return id, true
}

// allocatorFor resolves the allocator behind a lock tag.
func (k Keeper) allocatorFor(ctx sdk.Context, tag types.LockTag) (common.Address, error) {
	allocator, ok := k.GetAllocator(ctx, tag.AllocatorID())
	if !ok {
		return common.Address{}, types.ErrAllocatorNotRegistered.Wrapf("allocator id %s", tag.AllocatorID())
	}
	return allocator, nil
}

// GetAllAllocators returns every registered allocator address.
func (k Keeper) GetAllAllocators(ctx sdk.Context) []common.Address {
	iterator := storetypes.KVStorePrefixIterator(ctx.KVStore(k.storeKey), types.AllocatorKey)
	defer iterator.Close()

	var allocators []common.Address
	for ; iterator.Valid(); iterator.Next() {
		allocators = append(allocators, common.BytesToAddress(iterator.Value()))
	}
	return allocators
}

package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// nonceSlot splits a nonce into its bitmap bucket (nonce >> 8) and the byte
// index and mask of its bit (nonce & 0xff) within the 32-byte bitmap.
func nonceSlot(nonce *uint256.Int) (bucket [31]byte, index int, mask byte) {
	b := nonce.Bytes32()
	copy(bucket[:], b[:31])
	bit := b[31]
	return bucket, 31 - int(bit/8), 1 << (bit % 8)
}

// consumeNonce marks nonce as spent in account's scope, failing if it
// already was.
func (k Keeper) consumeNonce(ctx sdk.Context, scope byte, account common.Address, nonce *uint256.Int) error {
	store := ctx.KVStore(k.storeKey)
	bucket, index, mask := nonceSlot(nonce)
	key := types.NonceBitmapStoreKey(scope, account, bucket)

	bitmap := make([]byte, 32)
	copy(bitmap, store.Get(key))
	if bitmap[index]&mask != 0 {
		return &types.InvalidNonceError{Account: account, Nonce: new(uint256.Int).Set(nonce)}
	}
	bitmap[index] |= mask
	store.Set(key, bitmap)
	return nil
}

func (k Keeper) isNonceConsumed(ctx sdk.Context, scope byte, account common.Address, nonce *uint256.Int) bool {
	bucket, index, mask := nonceSlot(nonce)
	bz := ctx.KVStore(k.storeKey).Get(types.NonceBitmapStoreKey(scope, account, bucket))
	if len(bz) != 32 {
		return false
	}
	return bz[index]&mask != 0
}

// HasConsumedAllocatorNonce reports whether nonce was spent in allocator's scope.
func (k Keeper) HasConsumedAllocatorNonce(ctx sdk.Context, allocator common.Address, nonce *uint256.Int) bool {
	return k.isNonceConsumed(ctx, types.NonceScopeAllocator, allocator, nonce)
}

// ConsumeNonces lets an allocator invalidate nonces in its own scope. The
// caller must be a registered allocator; the whole batch fails if any nonce
// was already consumed.
func (k Keeper) ConsumeNonces(ctx sdk.Context, allocator common.Address, nonces []*uint256.Int) error {
	if _, ok := k.AllocatorIDOf(ctx, allocator); !ok {
		return types.ErrAllocatorNotRegistered.Wrapf("caller %s", allocator.Hex())
	}
	return atomic(ctx, func(ctx sdk.Context) error {
		for _, nonce := range nonces {
			if err := k.consumeNonce(ctx, types.NonceScopeAllocator, allocator, nonce); err != nil {
				return err
			}
			ctx.EventManager().EmitEvent(sdk.NewEvent(
				types.EventTypeNonceConsumed,
				sdk.NewAttribute(types.AttributeKeyAllocator, allocator.Hex()),
				sdk.NewAttribute(types.AttributeKeyNonce, nonce.Dec()),
			))
		}
		k.Logger(ctx).Info("allocator consumed nonces", "allocator", allocator.Hex(), "count", len(nonces))
		return nil
	})
}

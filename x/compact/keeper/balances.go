package keeper

import (
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// Balance is one ERC6909 balance entry of an owner.
type Balance struct {
	ID     types.LockID `json:"id"`
	Amount *uint256.Int `json:"amount"`
}

func readUint(store storetypes.KVStore, key []byte) *uint256.Int {
	bz := store.Get(key)
	if bz == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).SetBytes(bz)
}

func writeUint(store storetypes.KVStore, key []byte, v *uint256.Int) {
	if v.IsZero() {
		store.Delete(key)
		return
	}
	b := v.Bytes32()
	store.Set(key, b[:])
}

// BalanceOf returns owner's balance of lock id.
func (k Keeper) BalanceOf(ctx sdk.Context, owner common.Address, id types.LockID) *uint256.Int {
	return readUint(ctx.KVStore(k.storeKey), types.BalanceStoreKey(owner, id))
}

// TotalSupply returns the outstanding supply of lock id.
func (k Keeper) TotalSupply(ctx sdk.Context, id types.LockID) *uint256.Int {
	return readUint(ctx.KVStore(k.storeKey), types.TotalSupplyStoreKey(id))
}

// BalancesOf returns every non-zero balance held by owner.
func (k Keeper) BalancesOf(ctx sdk.Context, owner common.Address) []Balance {
	store := ctx.KVStore(k.storeKey)
	prefix := types.BalanceOwnerPrefix(owner)

	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var balances []Balance
	for ; iterator.Valid(); iterator.Next() {
		// Extract id from key (last 32 bytes)
		key := iterator.Key()
		id, err := types.LockIDFromBytes(key[len(key)-32:])
		if err != nil {
			continue
		}
		balances = append(balances, Balance{ID: id, Amount: new(uint256.Int).SetBytes(iterator.Value())})
	}
	return balances
}

func (k Keeper) mint(ctx sdk.Context, to common.Address, id types.LockID, amount *uint256.Int) error {
	store := ctx.KVStore(k.storeKey)

	supplyKey := types.TotalSupplyStoreKey(id)
	supply, overflow := new(uint256.Int).AddOverflow(readUint(store, supplyKey), amount)
	if overflow {
		return types.ErrArithmeticOverflow.Wrapf("supply of %s", id)
	}
	balanceKey := types.BalanceStoreKey(to, id)
	balance, overflow := new(uint256.Int).AddOverflow(readUint(store, balanceKey), amount)
	if overflow {
		return types.ErrArithmeticOverflow.Wrapf("balance of %s in %s", to.Hex(), id)
	}
	writeUint(store, supplyKey, supply)
	writeUint(store, balanceKey, balance)
	k.emitTransfer(ctx, common.Address{}, common.Address{}, to, id, amount)
	return nil
}

func (k Keeper) burn(ctx sdk.Context, from common.Address, id types.LockID, amount *uint256.Int) error {
	store := ctx.KVStore(k.storeKey)

	balanceKey := types.BalanceStoreKey(from, id)
	balance := readUint(store, balanceKey)
	if balance.Lt(amount) {
		return types.ErrInsufficientBalance.Wrapf("%s holds %s of %s, needs %s", from.Hex(), balance.Dec(), id, amount.Dec())
	}
	supplyKey := types.TotalSupplyStoreKey(id)
	writeUint(store, balanceKey, new(uint256.Int).Sub(balance, amount))
	writeUint(store, supplyKey, new(uint256.Int).Sub(readUint(store, supplyKey), amount))
	k.emitTransfer(ctx, common.Address{}, from, common.Address{}, id, amount)
	return nil
}

// move transfers amount of id between holders without touching supply.
func (k Keeper) move(ctx sdk.Context, operator, from, to common.Address, id types.LockID, amount *uint256.Int) error {
	store := ctx.KVStore(k.storeKey)

	fromKey := types.BalanceStoreKey(from, id)
	fromBalance := readUint(store, fromKey)
	if fromBalance.Lt(amount) {
		return types.ErrInsufficientBalance.Wrapf("%s holds %s of %s, needs %s", from.Hex(), fromBalance.Dec(), id, amount.Dec())
	}
	writeUint(store, fromKey, new(uint256.Int).Sub(fromBalance, amount))

	toKey := types.BalanceStoreKey(to, id)
	toBalance, overflow := new(uint256.Int).AddOverflow(readUint(store, toKey), amount)
	if overflow {
		return types.ErrArithmeticOverflow.Wrapf("balance of %s in %s", to.Hex(), id)
	}
	writeUint(store, toKey, toBalance)
	k.emitTransfer(ctx, operator, from, to, id, amount)
	return nil
}

func (k Keeper) emitTransfer(ctx sdk.Context, operator, from, to common.Address, id types.LockID, amount *uint256.Int) {
	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeTransfer,
		sdk.NewAttribute(types.AttributeKeyOperator, operator.Hex()),
		sdk.NewAttribute(types.AttributeKeyFrom, from.Hex()),
		sdk.NewAttribute(types.AttributeKeyTo, to.Hex()),
		sdk.NewAttribute(types.AttributeKeyID, id.String()),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.Dec()),
	))
}

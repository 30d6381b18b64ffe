package keeper

import (
	"encoding/binary"

	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// InitGenesis stores the params, registers the genesis allocators and
// restores the ledgers. Total supplies are rebuilt from the balances.
func (k Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}
	for _, allocator := range gs.Allocators {
		if _, err := k.registerAllocator(ctx, allocator); err != nil {
			return err
		}
	}

	store := ctx.KVStore(k.storeKey)
	for _, b := range gs.Balances {
		supplyKey := types.TotalSupplyStoreKey(b.ID)
		supply, overflow := new(uint256.Int).AddOverflow(readUint(store, supplyKey), b.Amount)
		if overflow {
			return types.ErrArithmeticOverflow.Wrapf("genesis supply of %s", b.ID)
		}
		writeUint(store, supplyKey, supply)
		writeUint(store, types.BalanceStoreKey(b.Owner, b.ID), b.Amount)
	}
	for _, n := range gs.NonceBitmaps {
		var bucket [31]byte
		copy(bucket[:], n.Bucket)
		store.Set(types.NonceBitmapStoreKey(types.NonceScopeAllocator, n.Allocator, bucket), append([]byte(nil), n.Bitmap...))
	}
	for _, r := range gs.Registrations {
		store.Set(types.RegistrationStoreKey(r.Sponsor, r.ClaimHash, r.Typehash), []byte{1})
	}
	for _, e := range gs.Emissaries {
		k.setEmissaryConfig(ctx, e.Sponsor, e.LockTag, emissaryConfig{emissary: e.Emissary, assignableAt: e.AssignableAt})
	}
	for _, w := range gs.ForcedWithdrawals {
		bz := make([]byte, 8)
		binary.BigEndian.PutUint64(bz, w.WithdrawableAt)
		store.Set(types.ForcedWithdrawalStoreKey(w.Owner, w.ID), bz)
	}
	return nil
}

// ExportGenesis returns the params, registered allocators and every ledger
// entry.
func (k Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.NewGenesisState(k.GetParams(ctx), k.GetAllAllocators(ctx))
	store := ctx.KVStore(k.storeKey)

	// Key: prefix (1) + owner (20) + id (32)
	iterate(store, types.BalanceKey, func(key, value []byte) {
		id, _ := types.LockIDFromBytes(key[20:52])
		gs.Balances = append(gs.Balances, types.BalanceRecord{
			Owner:  common.BytesToAddress(key[:20]),
			ID:     id,
			Amount: new(uint256.Int).SetBytes(value),
		})
	})

	// Key: prefix (1) + scope (1) + allocator (20) + bucket (31)
	iterate(store, append(append([]byte(nil), types.NonceBitmapKey...), types.NonceScopeAllocator), func(key, value []byte) {
		gs.NonceBitmaps = append(gs.NonceBitmaps, types.NonceBitmapRecord{
			Allocator: common.BytesToAddress(key[:20]),
			Bucket:    append([]byte(nil), key[20:51]...),
			Bitmap:    append([]byte(nil), value...),
		})
	})

	iterate(store, types.RegistrationKey, func(key, _ []byte) {
		gs.Registrations = append(gs.Registrations, types.RegistrationRecord{
			Sponsor:   common.BytesToAddress(key[:20]),
			ClaimHash: common.BytesToHash(key[20:52]),
			Typehash:  common.BytesToHash(key[52:84]),
		})
	})

	iterate(store, types.EmissaryKey, func(key, value []byte) {
		var tag types.LockTag
		copy(tag[:], key[20:32])
		gs.Emissaries = append(gs.Emissaries, types.EmissaryRecord{
			Sponsor:      common.BytesToAddress(key[:20]),
			LockTag:      tag,
			Emissary:     common.BytesToAddress(value[:20]),
			AssignableAt: binary.BigEndian.Uint64(value[20:28]),
		})
	})

	iterate(store, types.ForcedWithdrawalKey, func(key, value []byte) {
		id, _ := types.LockIDFromBytes(key[20:52])
		gs.ForcedWithdrawals = append(gs.ForcedWithdrawals, types.ForcedWithdrawalRecord{
			Owner:          common.BytesToAddress(key[:20]),
			ID:             id,
			WithdrawableAt: binary.BigEndian.Uint64(value),
		})
	})
	return gs
}

// iterate calls fn with every key under prefix, stripped of the prefix.
func iterate(store storetypes.KVStore, prefix []byte, fn func(key, value []byte)) {
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		fn(iterator.Key()[len(prefix):], iterator.Value())
	}
}

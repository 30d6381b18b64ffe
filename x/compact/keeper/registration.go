package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"compactvault/x/compact/types"
)

// Registration pairs a claim hash with the typehash it was derived under.
type Registration struct {
	ClaimHash common.Hash `json:"claimHash"`
	Typehash  common.Hash `json:"typehash"`
}

// Register marks (sponsor, claimHash, typehash) as pre-authorized.
// Registering an active entry again is a no-op.
func (k Keeper) Register(ctx sdk.Context, sponsor common.Address, claimHash, typehash common.Hash) {
	store := ctx.KVStore(k.storeKey)
	store.Set(types.RegistrationStoreKey(sponsor, claimHash, typehash), []byte{1})

	ctx.EventManager().EmitEvent(sdk.NewEvent(
		types.EventTypeCompactRegistered,
		sdk.NewAttribute(types.AttributeKeySponsor, sponsor.Hex()),
		sdk.NewAttribute(types.AttributeKeyClaimHash, claimHash.Hex()),
		sdk.NewAttribute(types.AttributeKeyTypehash, typehash.Hex()),
	))
	k.Logger(ctx).Info("registered compact",
		"sponsor", sponsor.Hex(),
		"claim_hash", claimHash.Hex(),
		"typehash", typehash.Hex(),
	)
}

// RegisterBatch registers each pair for sponsor.
func (k Keeper) RegisterBatch(ctx sdk.Context, sponsor common.Address, registrations []Registration) {
	for _, r := range registrations {
		k.Register(ctx, sponsor, r.ClaimHash, r.Typehash)
	}
}

// IsRegistered reports whether the entry is active.
func (k Keeper) IsRegistered(ctx sdk.Context, sponsor common.Address, claimHash, typehash common.Hash) bool {
	return ctx.KVStore(k.storeKey).Has(types.RegistrationStoreKey(sponsor, claimHash, typehash))
}

// consumeRegistration clears the entry and reports whether it was active.
func (k Keeper) consumeRegistration(ctx sdk.Context, sponsor common.Address, claimHash, typehash common.Hash) bool {
	store := ctx.KVStore(k.storeKey)
	key := types.RegistrationStoreKey(sponsor, claimHash, typehash)
	if !store.Has(key) {
		return false
	}
	store.Delete(key)
	return true
}

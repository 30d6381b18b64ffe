package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// ProcessClaim validates payload submitted by caller and settles it,
// returning the claim hash. Nothing is written unless every step succeeds.
//
// For sponsor-signed shapes caller is the arbiter; for allocated transfers
// caller is both arbiter and sponsor and no sponsor authorization is needed.
func (k Keeper) ProcessClaim(ctx sdk.Context, caller common.Address, payload types.Payload) (common.Hash, error) {
	var claimHash common.Hash
	err := k.guarded(ctx, func(ctx sdk.Context) error {
		env, err := payload.Open(caller, k.ChainID(ctx))
		if err != nil {
			return err
		}
		allocator, err := k.validateClaim(ctx, env)
		if err != nil {
			return err
		}
		if err := k.distribute(ctx, env); err != nil {
			return err
		}

		ctx.EventManager().EmitEvent(sdk.NewEvent(
			types.EventTypeClaim,
			sdk.NewAttribute(types.AttributeKeySponsor, env.Sponsor.Hex()),
			sdk.NewAttribute(types.AttributeKeyAllocator, allocator.Hex()),
			sdk.NewAttribute(types.AttributeKeyArbiter, env.Arbiter.Hex()),
			sdk.NewAttribute(types.AttributeKeyClaimHash, env.ClaimHash.Hex()),
			sdk.NewAttribute(types.AttributeKeyNonce, env.Nonce.Dec()),
			sdk.NewAttribute(types.AttributeKeyKind, env.Kind.String()),
		))
		k.Logger(ctx).Info("processed claim",
			"kind", env.Kind.String(),
			"claim_hash", env.ClaimHash.Hex(),
			"sponsor", env.Sponsor.Hex(),
			"arbiter", env.Arbiter.Hex(),
			"allocator", allocator.Hex(),
			"nonce", env.Nonce.Dec(),
		)
		claimHash = env.ClaimHash
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	return claimHash, nil
}

// validateClaim runs the checks preceding distribution and returns the
// allocator that authorized the claim. The nonce is consumed before any
// authorization is attempted.
func (k Keeper) validateClaim(ctx sdk.Context, env types.Envelope) (common.Address, error) {
	allocator, err := k.claimAllocator(ctx, env)
	if err != nil {
		return common.Address{}, err
	}

	if env.Expires.Cmp(uint256.NewInt(blockTimestamp(ctx))) <= 0 {
		return common.Address{}, &types.ExpiredError{Expiration: new(uint256.Int).Set(env.Expires)}
	}

	if err := k.consumeNonce(ctx, types.NonceScopeAllocator, allocator, env.Nonce); err != nil {
		return common.Address{}, err
	}

	if !env.Kind.IsTransfer() {
		if err := k.authorizeSponsor(ctx, env, k.domainSeparatorFor(ctx, env.NotarizedChainID)); err != nil {
			return common.Address{}, err
		}
	}

	if err := k.authorizeAllocator(ctx, allocator, env); err != nil {
		return common.Address{}, err
	}
	return allocator, nil
}

// claimAllocator checks that every lock shares one allocator and, for
// claims notarized elsewhere, is multichain scoped.
func (k Keeper) claimAllocator(ctx sdk.Context, env types.Envelope) (common.Address, error) {
	if len(env.Settlements) == 0 {
		return common.Address{}, types.ErrNoIdsAndAmountsProvided
	}
	allocatorID := env.Settlements[0].ID.AllocatorID()
	for _, s := range env.Settlements {
		if s.ID.AllocatorID() != allocatorID {
			return common.Address{}, &types.InvalidBatchAllocationError{ID: s.ID}
		}
		if env.Exogenous() && s.ID.Scope() == types.ScopeChainSpecific {
			return common.Address{}, &types.InvalidScopeError{ID: s.ID}
		}
	}
	allocator, ok := k.GetAllocator(ctx, allocatorID)
	if !ok {
		return common.Address{}, types.ErrAllocatorNotRegistered.Wrapf("allocator id %s", allocatorID)
	}
	return allocator, nil
}

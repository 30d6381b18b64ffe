package keeper

import (
	"errors"
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"

	"compactvault/x/compact/types"
)

// callMagic invokes an external endpoint and reports whether it answered
// with the magic value of sel. A revert carrying data is returned as-is;
// a bare revert counts as denial.
func (k Keeper) callMagic(ctx sdk.Context, to common.Address, input []byte, sel [4]byte) (bool, error) {
	ret, err := k.contracts.Call(ctx, k.GetParams(ctx).VerifyingContract, to, input)
	if err != nil {
		var revert *types.RevertError
		if errors.As(err, &revert) {
			if revert.HasData() {
				return false, revert
			}
			return false, nil
		}
		return false, fmt.Errorf("call to %s failed: %w", to.Hex(), err)
	}
	return types.IsMagicValue(ret, sel), nil
}

// authorizeAllocator asks the allocator to countersign the claim.
func (k Keeper) authorizeAllocator(ctx sdk.Context, allocator common.Address, env types.Envelope) error {
	input, err := types.AuthorizeClaimRequest{
		ClaimHash:     env.ClaimHash,
		Arbiter:       env.Arbiter,
		Sponsor:       env.Sponsor,
		Nonce:         env.Nonce,
		Expires:       env.Expires,
		IdsAndAmounts: env.IdsAndAmounts(),
		AllocatorData: env.AllocatorData,
	}.Pack()
	if err != nil {
		return err
	}
	ok, err := k.callMagic(ctx, allocator, input, types.AuthorizeClaimSelector)
	if err != nil {
		return err
	}
	if !ok {
		return &types.InvalidAllocationError{Allocator: allocator}
	}
	return nil
}

// attest asks the allocator to approve a direct transfer of a locked balance.
func (k Keeper) attest(ctx sdk.Context, allocator common.Address, req types.AttestRequest) error {
	input, err := req.Pack()
	if err != nil {
		return err
	}
	ok, err := k.callMagic(ctx, allocator, input, types.AttestSelector)
	if err != nil {
		return err
	}
	if !ok {
		return &types.InvalidAllocationError{Allocator: allocator}
	}
	return nil
}

// authorizeSponsor accepts, in order: a registration when no signature was
// supplied, an ECDSA signature by the sponsor, an ERC-1271 approval from a
// sponsor contract, and finally the sponsor's emissary.
func (k Keeper) authorizeSponsor(ctx sdk.Context, env types.Envelope, domainSeparator common.Hash) error {
	if len(env.SponsorSignature) == 0 && k.consumeRegistration(ctx, env.Sponsor, env.ClaimHash, env.Typehash) {
		return nil
	}

	digest := types.Digest(domainSeparator, env.ClaimHash)
	if signer, ok := types.RecoverSigner(digest, env.SponsorSignature); ok && signer == env.Sponsor {
		return nil
	}

	hasCode, err := k.contracts.HasCode(ctx, env.Sponsor)
	if err != nil {
		return fmt.Errorf("failed to inspect sponsor %s: %w", env.Sponsor.Hex(), err)
	}
	if hasCode {
		input, err := types.IsValidSignatureRequest{Hash: digest, Signature: env.SponsorSignature}.Pack()
		if err != nil {
			return err
		}
		// A rejecting sponsor contract still leaves the emissary path open.
		if ok, _ := k.callMagic(ctx, env.Sponsor, input, types.IsValidSignatureSelector); ok {
			return nil
		}
	}

	return k.verifyWithEmissary(ctx, env, digest)
}

func (k Keeper) verifyWithEmissary(ctx sdk.Context, env types.Envelope, digest common.Hash) error {
	tag, err := sharedLockTag(env.Settlements)
	if err != nil {
		return err
	}
	cfg := k.getEmissaryConfig(ctx, env.Sponsor, tag)
	if cfg.emissary == (common.Address{}) {
		return types.ErrInvalidSignature.Wrapf("sponsor %s", env.Sponsor.Hex())
	}

	input, err := types.VerifyClaimRequest{
		Sponsor:   env.Sponsor,
		Digest:    digest,
		ClaimHash: env.ClaimHash,
		Signature: env.SponsorSignature,
		LockTag:   tag,
	}.Pack()
	if err != nil {
		return err
	}
	ok, err := k.callMagic(ctx, cfg.emissary, input, types.VerifyClaimSelector)
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrInvalidSignature.Wrapf("emissary %s rejected sponsor %s", cfg.emissary.Hex(), env.Sponsor.Hex())
	}
	return nil
}

// sharedLockTag returns the lock tag common to every settlement.
func sharedLockTag(settlements []types.Settlement) (types.LockTag, error) {
	if len(settlements) == 0 {
		return types.LockTag{}, types.ErrNoIdsAndAmountsProvided
	}
	tag := settlements[0].ID.Tag
	for _, s := range settlements[1:] {
		if s.ID.Tag != tag {
			return types.LockTag{}, types.ErrInvalidLockTag.Wrapf("%s differs from %s", s.ID.Tag, tag)
		}
	}
	return tag, nil
}

package keeper_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"compactvault/x/compact/testutil"
	"compactvault/x/compact/types"
)

var (
	token   = common.HexToAddress("0x000000000000000000000000000000000000704b")
	arbiter = common.HexToAddress("0x000000000000000000000000000000000000a2b1")
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

// signedClaim builds a single-lock claim for arbiter and signs it with key.
func signedClaim(t *testing.T, f *testutil.Fixture, key *ecdsa.PrivateKey, sponsor common.Address, id types.LockID, allocated uint64, nonce uint64, claimants ...types.Component) *types.Claim {
	t.Helper()
	claim := &types.Claim{
		Sponsorship: types.Sponsorship{
			Sponsor: sponsor,
			Nonce:   u(nonce),
			Expires: u(f.Now() + 600),
		},
		ID:              id,
		AllocatedAmount: u(allocated),
		Claimants:       claimants,
	}
	env, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)
	if key != nil {
		claim.SponsorSignature = f.Sign(key, env.ClaimHash)
	}
	return claim
}

func lastEvent(ctx sdk.Context, eventType string) (sdk.Event, bool) {
	events := ctx.EventManager().Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == eventType {
			return events[i], true
		}
	}
	return sdk.Event{}, false
}

func attribute(event sdk.Event, key string) string {
	for _, attr := range event.Attributes {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

func TestSimpleClaim(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := signedClaim(t, f, key, sponsor, id, 1000, 7, types.NewComponent(f.LockTag, recipient, u(1000)))
	env, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)

	claimHash, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
	require.Equal(t, env.ClaimHash, claimHash)

	require.True(t, f.Keeper.BalanceOf(f.Ctx, sponsor, id).IsZero())
	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, recipient, id))
	require.Equal(t, u(1000), f.Keeper.TotalSupply(f.Ctx, id))
	require.True(t, f.Keeper.HasConsumedAllocatorNonce(f.Ctx, testutil.AllocatorAddress, u(7)))

	event, ok := lastEvent(f.Ctx, types.EventTypeClaim)
	require.True(t, ok)
	require.Equal(t, sponsor.Hex(), attribute(event, types.AttributeKeySponsor))
	require.Equal(t, testutil.AllocatorAddress.Hex(), attribute(event, types.AttributeKeyAllocator))
	require.Equal(t, arbiter.Hex(), attribute(event, types.AttributeKeyArbiter))
	require.Equal(t, claimHash.Hex(), attribute(event, types.AttributeKeyClaimHash))
	require.Equal(t, "7", attribute(event, types.AttributeKeyNonce))

	require.Len(t, f.Allocator.Authorizations, 1)
	req := f.Allocator.Authorizations[0]
	require.Equal(t, claimHash, req.ClaimHash)
	require.Equal(t, arbiter, req.Arbiter)
	require.Equal(t, sponsor, req.Sponsor)
	require.Equal(t, u(7), req.Nonce)
	require.Len(t, req.IdsAndAmounts, 1)
	require.Equal(t, id.Uint256(), req.IdsAndAmounts[0][0])
	require.Equal(t, u(1000), req.IdsAndAmounts[0][1])
}

func TestClaimOverAllocationRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := signedClaim(t, f, key, sponsor, id, 1000, 7, types.NewComponent(f.LockTag, recipient, u(1001)))
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)

	var exceeded *types.AllocatedAmountExceededError
	require.ErrorAs(t, err, &exceeded)
	require.Equal(t, u(1000), exceeded.Allocated)
	require.Equal(t, u(1001), exceeded.Spent)
	require.ErrorIs(t, err, types.ErrAllocatedAmountExceeded)

	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, sponsor, id))
	require.True(t, f.Keeper.BalanceOf(f.Ctx, recipient, id).IsZero())
	require.False(t, f.Keeper.HasConsumedAllocatorNonce(f.Ctx, testutil.AllocatorAddress, u(7)))
}

func TestClaimSplitAcrossClaimants(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, first := testutil.NewAccount(t)
	_, second := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := signedClaim(t, f, key, sponsor, id, 900, 1,
		types.NewComponent(f.LockTag, first, u(300)),
		types.NewComponent(f.LockTag, second, u(500)),
	)
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)

	require.Equal(t, u(200), f.Keeper.BalanceOf(f.Ctx, sponsor, id))
	require.Equal(t, u(300), f.Keeper.BalanceOf(f.Ctx, first, id))
	require.Equal(t, u(500), f.Keeper.BalanceOf(f.Ctx, second, id))
}

func TestClaimNonceReplayRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 2000)

	claim := signedClaim(t, f, key, sponsor, id, 1000, 7, types.NewComponent(f.LockTag, recipient, u(1000)))
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)

	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	var invalid *types.InvalidNonceError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, testutil.AllocatorAddress, invalid.Account)
	require.Equal(t, u(7), invalid.Nonce)

	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, sponsor, id))
	require.Len(t, f.Allocator.Authorizations, 1)
}

func TestClaimExpired(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := &types.Claim{
		Sponsorship:     types.Sponsorship{Sponsor: sponsor, Nonce: u(1), Expires: u(f.Now())},
		ID:              id,
		AllocatedAmount: u(1000),
	}
	env, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)
	claim.SponsorSignature = f.Sign(key, env.ClaimHash)

	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	var expired *types.ExpiredError
	require.ErrorAs(t, err, &expired)
	require.Equal(t, u(f.Now()), expired.Expiration)
	require.False(t, f.Keeper.HasConsumedAllocatorNonce(f.Ctx, testutil.AllocatorAddress, u(1)))
}

func TestClaimInvalidSignature(t *testing.T) {
	f := testutil.NewFixture(t)
	_, sponsor := testutil.NewAccount(t)
	otherKey, _ := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := signedClaim(t, f, otherKey, sponsor, id, 1000, 3, types.NewComponent(f.LockTag, arbiter, u(1000)))
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.ErrorIs(t, err, types.ErrInvalidSignature)
	require.Empty(t, f.Allocator.Authorizations)
	require.False(t, f.Keeper.HasConsumedAllocatorNonce(f.Ctx, testutil.AllocatorAddress, u(3)))
}

func TestClaimCompactSignature(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := signedClaim(t, f, key, sponsor, id, 1000, 3, types.NewComponent(f.LockTag, arbiter, u(1000)))
	claim.SponsorSignature = types.CompactSignature(claim.SponsorSignature)
	require.Len(t, claim.SponsorSignature, 64)

	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
}

func TestClaimWithdrawsUnderlying(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)
	require.Equal(t, u(1000), f.Keeper.UnderlyingBalance(f.Ctx, token))

	claim := signedClaim(t, f, key, sponsor, id, 1000, 1, types.NewComponent(types.LockTag{}, recipient, u(600)))
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)

	require.Equal(t, uint64(600), f.Underlying(recipient, token))
	require.Equal(t, u(400), f.Keeper.BalanceOf(f.Ctx, sponsor, id))
	require.Equal(t, u(400), f.Keeper.TotalSupply(f.Ctx, id))
	require.Equal(t, u(400), f.Keeper.UnderlyingBalance(f.Ctx, token))
}

func TestClaimConvertsToNewLock(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	newTag := types.NewLockTag(f.LockTag.AllocatorID(), types.ScopeMultichain, types.ResetPeriodOneDay)
	claim := signedClaim(t, f, key, sponsor, id, 1000, 1, types.NewComponent(newTag, recipient, u(1000)))
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)

	converted := id.WithTag(newTag)
	require.True(t, f.Keeper.TotalSupply(f.Ctx, id).IsZero())
	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, recipient, converted))
	require.Equal(t, u(1000), f.Keeper.TotalSupply(f.Ctx, converted))
	require.Equal(t, uint64(0), f.Underlying(recipient, token))
}

func TestClaimConvertToUnregisteredAllocatorFails(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	unknown := types.AllocatorIDFor(common.HexToAddress("0x9999999999999999999999999999999999999999"))
	newTag := types.NewLockTag(unknown, types.ScopeMultichain, types.ResetPeriodOneDay)
	claim := signedClaim(t, f, key, sponsor, id, 1000, 1, types.NewComponent(newTag, recipient, u(1000)))

	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.ErrorIs(t, err, types.ErrAllocatorNotRegistered)
	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, sponsor, id))
}

func TestClaimAuthorizedByRegistration(t *testing.T) {
	f := testutil.NewFixture(t)
	_, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := signedClaim(t, f, nil, sponsor, id, 1000, 5, types.NewComponent(f.LockTag, recipient, u(1000)))
	env, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)

	f.Keeper.Register(f.Ctx, sponsor, env.ClaimHash, env.Typehash)
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
	require.False(t, f.Keeper.IsRegistered(f.Ctx, sponsor, env.ClaimHash, env.Typehash))
	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, recipient, id))
}

func TestClaimAllocatorOutcomes(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	f.Allocator.Deny = true
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, signedClaim(t, f, key, sponsor, id, 1000, 1))
	var invalid *types.InvalidAllocationError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, testutil.AllocatorAddress, invalid.Allocator)

	f.Allocator.Deny = false
	f.Allocator.Revert = true
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, signedClaim(t, f, key, sponsor, id, 1000, 2))
	require.ErrorAs(t, err, &invalid)

	f.Allocator.RevertData = []byte{0xde, 0xad, 0xbe, 0xef}
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, signedClaim(t, f, key, sponsor, id, 1000, 3))
	var revert *types.RevertError
	require.ErrorAs(t, err, &revert)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, revert.Data)
	require.False(t, errors.Is(err, types.ErrInvalidAllocation))

	for _, nonce := range []uint64{1, 2, 3} {
		require.False(t, f.Keeper.HasConsumedAllocatorNonce(f.Ctx, testutil.AllocatorAddress, u(nonce)))
	}
}

func TestClaimEmissaryVerification(t *testing.T) {
	f := testutil.NewFixture(t)
	_, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	emissaryAddr := common.HexToAddress("0x00000000000000000000000000000000000e3155")
	emissary := &testutil.MockEmissary{}
	f.Router.Register(emissaryAddr, emissary)
	require.NoError(t, f.Keeper.AssignEmissary(f.Ctx, sponsor, f.LockTag, emissaryAddr))

	claim := signedClaim(t, f, nil, sponsor, id, 1000, 1, types.NewComponent(f.LockTag, recipient, u(1000)))
	claim.SponsorSignature = []byte{0x01, 0x02}

	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.ErrorIs(t, err, types.ErrInvalidSignature)

	emissary.RevertData = []byte{0x0b, 0xad}
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	var revert *types.RevertError
	require.ErrorAs(t, err, &revert)
	require.Equal(t, []byte{0x0b, 0xad}, revert.Data)

	emissary.RevertData = nil
	emissary.Approve = true
	claimHash, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, recipient, id))

	last := emissary.Verifications[len(emissary.Verifications)-1]
	require.Equal(t, sponsor, last.Sponsor)
	require.Equal(t, claimHash, last.ClaimHash)
	require.Equal(t, types.Digest(f.Keeper.DomainSeparator(f.Ctx), claimHash), last.Digest)
	require.Equal(t, f.LockTag, last.LockTag)
	require.Equal(t, []byte{0x01, 0x02}, last.Signature)
}

func TestClaimContractSponsor(t *testing.T) {
	f := testutil.NewFixture(t)
	ownerKey, _ := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	wallet := common.HexToAddress("0x0000000000000000000000000000000000001271")
	f.Router.Register(wallet, &testutil.MockERC1271{Owner: ownerKey})
	id := f.FundAndDeposit(t, wallet, token, f.LockTag, 1000)

	claim := signedClaim(t, f, ownerKey, wallet, id, 1000, 1, types.NewComponent(f.LockTag, recipient, u(1000)))
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, recipient, id))

	strangerKey, _ := testutil.NewAccount(t)
	rejected := signedClaim(t, f, strangerKey, wallet, id, 0, 2)
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, rejected)
	require.ErrorIs(t, err, types.ErrInvalidSignature)
}

func TestBatchClaim(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	native := f.FundAndDeposit(t, sponsor, common.Address{}, f.LockTag, 500)
	erc20 := f.FundAndDeposit(t, sponsor, token, f.LockTag, 700)

	claim := &types.BatchClaim{
		Sponsorship: types.Sponsorship{Sponsor: sponsor, Nonce: u(11), Expires: u(f.Now() + 60)},
		Claims: []types.BatchClaimComponent{
			{ID: native, AllocatedAmount: u(500), Portions: []types.Component{types.NewComponent(f.LockTag, recipient, u(500))}},
			{ID: erc20, AllocatedAmount: u(700), Portions: []types.Component{types.NewComponent(types.LockTag{}, recipient, u(200))}},
		},
	}
	env, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)
	claim.SponsorSignature = f.Sign(key, env.ClaimHash)

	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
	require.Equal(t, u(500), f.Keeper.BalanceOf(f.Ctx, recipient, native))
	require.Equal(t, u(500), f.Keeper.BalanceOf(f.Ctx, sponsor, erc20))
	require.Equal(t, uint64(200), f.Underlying(recipient, token))

	req := f.Allocator.Authorizations[0]
	require.Len(t, req.IdsAndAmounts, 2)
	require.Equal(t, erc20.Uint256(), req.IdsAndAmounts[1][0])
	require.Equal(t, u(700), req.IdsAndAmounts[1][1])
}

func TestBatchClaimMixedAllocatorsRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)

	otherAddr := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	f.Router.Register(otherAddr, &testutil.MockAllocator{})
	otherID, err := f.Keeper.RegisterAllocator(f.Ctx, otherAddr, otherAddr)
	require.NoError(t, err)
	otherTag := types.NewLockTag(otherID, types.ScopeChainSpecific, types.ResetPeriodTenMinutes)

	first := f.FundAndDeposit(t, sponsor, token, f.LockTag, 100)
	second := f.FundAndDeposit(t, sponsor, token, otherTag, 100)

	claim := &types.BatchClaim{
		Sponsorship: types.Sponsorship{Sponsor: sponsor, Nonce: u(1), Expires: u(f.Now() + 60)},
		Claims: []types.BatchClaimComponent{
			{ID: first, AllocatedAmount: u(100)},
			{ID: second, AllocatedAmount: u(100)},
		},
	}
	env, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)
	claim.SponsorSignature = f.Sign(key, env.ClaimHash)

	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	var mismatch *types.InvalidBatchAllocationError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, second, mismatch.ID)
	require.Empty(t, f.Allocator.Authorizations)
}

func TestEmptyBatchRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, &types.BatchClaim{})
	require.ErrorIs(t, err, types.ErrNoIdsAndAmountsProvided)
}

func TestMultichainClaim(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	tag := types.NewLockTag(f.LockTag.AllocatorID(), types.ScopeMultichain, types.ResetPeriodTenMinutes)
	id := f.FundAndDeposit(t, sponsor, token, tag, 1000)

	claim := &types.MultichainClaim{
		Sponsorship:      types.Sponsorship{Sponsor: sponsor, Nonce: u(4), Expires: u(f.Now() + 60)},
		ID:               id,
		AllocatedAmount:  u(1000),
		Claimants:        []types.Component{types.NewComponent(tag, recipient, u(1000))},
		AdditionalChains: []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
	}
	env, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)
	claim.SponsorSignature = f.Sign(key, env.ClaimHash)

	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, recipient, id))
}

func TestExogenousMultichainClaim(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	tag := types.NewLockTag(f.LockTag.AllocatorID(), types.ScopeMultichain, types.ResetPeriodTenMinutes)
	id := f.FundAndDeposit(t, sponsor, token, tag, 1000)

	notarized := u(1)
	claim := &types.ExogenousMultichainClaim{
		Sponsorship:      types.Sponsorship{Sponsor: sponsor, Nonce: u(4), Expires: u(f.Now() + 60)},
		ID:               id,
		AllocatedAmount:  u(1000),
		Claimants:        []types.Component{types.NewComponent(tag, recipient, u(1000))},
		AdditionalChains: []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
		ChainIndex:       u(1),
		NotarizedChainID: notarized,
	}
	env, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)

	// Signed under the local domain: rejected.
	claim.SponsorSignature = f.Sign(key, env.ClaimHash)
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.ErrorIs(t, err, types.ErrInvalidSignature)

	foreign := types.DomainSeparator(notarized, f.Keeper.GetParams(f.Ctx).VerifyingContract)
	claim.SponsorSignature = testutil.SignDigest(key, foreign, env.ClaimHash)
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
	require.Equal(t, u(1000), f.Keeper.BalanceOf(f.Ctx, recipient, id))
}

func TestExogenousChainIndexOutOfRange(t *testing.T) {
	f := testutil.NewFixture(t)
	_, sponsor := testutil.NewAccount(t)
	tag := types.NewLockTag(f.LockTag.AllocatorID(), types.ScopeMultichain, types.ResetPeriodTenMinutes)
	id := f.FundAndDeposit(t, sponsor, token, tag, 1000)

	claim := &types.ExogenousMultichainClaim{
		Sponsorship:      types.Sponsorship{Sponsor: sponsor, Nonce: u(4), Expires: u(f.Now() + 60), SponsorSignature: []byte{0x01}},
		ID:               id,
		AllocatedAmount:  u(1000),
		AdditionalChains: []common.Hash{common.HexToHash("0x01")},
		ChainIndex:       u(1),
		NotarizedChainID: u(1),
	}

	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.ErrorIs(t, err, types.ErrChainIndexOutOfRange)
	require.Empty(t, f.Allocator.Authorizations)
	require.False(t, f.Keeper.HasConsumedAllocatorNonce(f.Ctx, testutil.AllocatorAddress, u(4)))
}

func TestExogenousChainSpecificLockRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	_, sponsor := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := &types.ExogenousMultichainClaim{
		Sponsorship:      types.Sponsorship{Sponsor: sponsor, Nonce: u(4), Expires: u(f.Now() + 60)},
		ID:               id,
		AllocatedAmount:  u(1000),
		AdditionalChains: []common.Hash{common.HexToHash("0x01")},
		ChainIndex:       u(0),
		NotarizedChainID: u(1),
	}
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	var scope *types.InvalidScopeError
	require.ErrorAs(t, err, &scope)
	require.Equal(t, id, scope.ID)
}

func TestClaimReentrancyRejected(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	inner := signedClaim(t, f, key, sponsor, id, 100, 2, types.NewComponent(f.LockTag, recipient, u(100)))
	f.Allocator.OnAuthorize = func(ctx context.Context, _ types.AuthorizeClaimRequest) error {
		_, err := f.Keeper.ProcessClaim(sdk.UnwrapSDKContext(ctx), arbiter, inner)
		return err
	}

	outer := signedClaim(t, f, key, sponsor, id, 100, 1, types.NewComponent(f.LockTag, recipient, u(100)))
	_, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, outer)
	require.ErrorIs(t, err, types.ErrReentrantCall)

	// The guard is released after the failed call.
	f.Allocator.OnAuthorize = nil
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, outer)
	require.NoError(t, err)
	require.Equal(t, u(100), f.Keeper.BalanceOf(f.Ctx, recipient, id))
}

func TestAllocatedTransfer(t *testing.T) {
	f := testutil.NewFixture(t)
	_, owner := testutil.NewAccount(t)
	_, first := testutil.NewAccount(t)
	_, second := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, owner, token, f.LockTag, 1000)

	transfer := &types.AllocatedTransfer{
		Nonce:   u(9),
		Expires: u(f.Now() + 30),
		ID:      id,
		Recipients: []types.Component{
			types.NewComponent(f.LockTag, first, u(400)),
			types.NewComponent(types.LockTag{}, second, u(100)),
		},
	}
	_, err := f.Keeper.ProcessClaim(f.Ctx, owner, transfer)
	require.NoError(t, err)

	require.Equal(t, u(500), f.Keeper.BalanceOf(f.Ctx, owner, id))
	require.Equal(t, u(400), f.Keeper.BalanceOf(f.Ctx, first, id))
	require.Equal(t, uint64(100), f.Underlying(second, token))

	req := f.Allocator.Authorizations[0]
	require.Equal(t, owner, req.Sponsor)
	require.Equal(t, owner, req.Arbiter)
	require.Equal(t, u(500), req.IdsAndAmounts[0][1])

	_, err = f.Keeper.ProcessClaim(f.Ctx, owner, transfer)
	require.ErrorIs(t, err, types.ErrInvalidNonce)
}

func TestAllocatedBatchTransfer(t *testing.T) {
	f := testutil.NewFixture(t)
	_, owner := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	native := f.FundAndDeposit(t, owner, common.Address{}, f.LockTag, 50)
	erc20 := f.FundAndDeposit(t, owner, token, f.LockTag, 70)

	transfer := &types.AllocatedBatchTransfer{
		Nonce:   u(1),
		Expires: u(f.Now() + 30),
		Transfers: []types.TransferComponent{
			{ID: native, Portions: []types.Component{types.NewComponent(f.LockTag, recipient, u(50))}},
			{ID: erc20, Portions: []types.Component{types.NewComponent(f.LockTag, recipient, u(70))}},
		},
	}
	_, err := f.Keeper.ProcessClaim(f.Ctx, owner, transfer)
	require.NoError(t, err)
	require.Equal(t, u(50), f.Keeper.BalanceOf(f.Ctx, recipient, native))
	require.Equal(t, u(70), f.Keeper.BalanceOf(f.Ctx, recipient, erc20))
}

func TestAllocatedTransferInsufficientBalance(t *testing.T) {
	f := testutil.NewFixture(t)
	_, owner := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, owner, token, f.LockTag, 10)

	transfer := &types.AllocatedTransfer{
		Nonce:      u(1),
		Expires:    u(f.Now() + 30),
		ID:         id,
		Recipients: []types.Component{types.NewComponent(f.LockTag, recipient, u(11))},
	}
	_, err := f.Keeper.ProcessClaim(f.Ctx, owner, transfer)
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	require.Equal(t, u(10), f.Keeper.BalanceOf(f.Ctx, owner, id))
	require.False(t, f.Keeper.HasConsumedAllocatorNonce(f.Ctx, testutil.AllocatorAddress, u(1)))
}

func TestWitnessClaim(t *testing.T) {
	f := testutil.NewFixture(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := f.FundAndDeposit(t, sponsor, token, f.LockTag, 1000)

	claim := signedClaim(t, f, nil, sponsor, id, 1000, 1, types.NewComponent(f.LockTag, recipient, u(1000)))
	plain, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)

	claim.Witness = common.HexToHash("0xabcdef")
	claim.WitnessTypestring = "uint256 fillAmount"
	witnessed, err := claim.Open(arbiter, f.Keeper.ChainID(f.Ctx))
	require.NoError(t, err)
	require.NotEqual(t, plain.ClaimHash, witnessed.ClaimHash)
	require.NotEqual(t, plain.Typehash, witnessed.Typehash)

	// A signature over the witness-free hash does not authorize the witnessed claim.
	claim.SponsorSignature = f.Sign(key, plain.ClaimHash)
	_, err = f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.ErrorIs(t, err, types.ErrInvalidSignature)

	claim.SponsorSignature = f.Sign(key, witnessed.ClaimHash)
	claimHash, err := f.Keeper.ProcessClaim(f.Ctx, arbiter, claim)
	require.NoError(t, err)
	require.Equal(t, witnessed.ClaimHash, claimHash)
}

package precompile_test

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"compactvault/utils"
	"compactvault/x/compact/keeper"
	"compactvault/x/compact/precompile"
	"compactvault/x/compact/testutil"
	"compactvault/x/compact/types"
)

var (
	token   = common.HexToAddress("0x000000000000000000000000000000000000704b")
	arbiter = common.HexToAddress("0x000000000000000000000000000000000000a2b1")
)

type harness struct {
	*testutil.Fixture
	p *precompile.CompactPrecompile
}

func newHarness(t *testing.T) *harness {
	f := testutil.NewFixture(t)
	return &harness{Fixture: f, p: precompile.NewCompactPrecompile(f.Keeper)}
}

func (h *harness) call(t *testing.T, caller common.Address, method string, args ...interface{}) ([]interface{}, error) {
	t.Helper()
	abi := h.p.ABI()
	input, err := abi.Pack(method, args...)
	require.NoError(t, err)
	ret, err := h.p.Execute(h.Ctx, caller, nil, input, false)
	if err != nil {
		return nil, err
	}
	out, err := abi.Unpack(method, ret)
	require.NoError(t, err)
	return out, nil
}

func (h *harness) mustCall(t *testing.T, caller common.Address, method string, args ...interface{}) []interface{} {
	t.Helper()
	out, err := h.call(t, caller, method, args...)
	require.NoError(t, err)
	return out
}

func b(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

func TestClaimCalldata(t *testing.T) {
	h := newHarness(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := h.FundAndDeposit(t, sponsor, token, h.LockTag, 1000)

	component := types.NewComponent(h.LockTag, recipient, uint256.NewInt(400))
	withdrawal := types.NewComponent(types.LockTag{}, recipient, uint256.NewInt(100))
	claim := &types.Claim{
		Sponsorship:     types.Sponsorship{Sponsor: sponsor, Nonce: uint256.NewInt(1), Expires: uint256.NewInt(h.Now() + 600)},
		ID:              id,
		AllocatedAmount: uint256.NewInt(500),
		Claimants:       []types.Component{component, withdrawal},
	}
	env, err := claim.Open(arbiter, h.Keeper.ChainID(h.Ctx))
	require.NoError(t, err)

	args := precompile.ClaimArgs{
		AllocatorData:    []byte{},
		SponsorSignature: h.Sign(key, env.ClaimHash),
		Sponsor:          sponsor,
		Nonce:            b(1),
		Expires:          b(h.Now() + 600),
		Id:               id.Uint256().ToBig(),
		AllocatedAmount:  b(500),
		Claimants: []precompile.ComponentArgs{
			{Claimant: component.Claimant.ToBig(), Amount: b(400)},
			{Claimant: withdrawal.Claimant.ToBig(), Amount: b(100)},
		},
	}
	out := h.mustCall(t, arbiter, "claim", args)
	require.Equal(t, [32]byte(env.ClaimHash), out[0])

	require.Equal(t, uint256.NewInt(500), h.Keeper.BalanceOf(h.Ctx, sponsor, id))
	require.Equal(t, uint256.NewInt(400), h.Keeper.BalanceOf(h.Ctx, recipient, id))
	require.Equal(t, uint64(100), h.Underlying(recipient, token))

	// The same calldata cannot be replayed.
	_, err = h.call(t, arbiter, "claim", args)
	require.ErrorIs(t, err, types.ErrInvalidNonce)
}

func TestBatchClaimCalldata(t *testing.T) {
	h := newHarness(t)
	key, sponsor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	first := h.FundAndDeposit(t, sponsor, token, h.LockTag, 100)
	second := h.FundAndDeposit(t, sponsor, common.Address{}, h.LockTag, 50)

	claim := &types.BatchClaim{
		Sponsorship: types.Sponsorship{Sponsor: sponsor, Nonce: uint256.NewInt(2), Expires: uint256.NewInt(h.Now() + 600)},
		Claims: []types.BatchClaimComponent{
			{ID: first, AllocatedAmount: uint256.NewInt(100), Portions: []types.Component{types.NewComponent(h.LockTag, recipient, uint256.NewInt(100))}},
			{ID: second, AllocatedAmount: uint256.NewInt(50), Portions: []types.Component{types.NewComponent(h.LockTag, recipient, uint256.NewInt(50))}},
		},
	}
	env, err := claim.Open(arbiter, h.Keeper.ChainID(h.Ctx))
	require.NoError(t, err)

	claims := make([]precompile.BatchClaimComponentArgs, len(claim.Claims))
	for i, c := range claim.Claims {
		claims[i] = precompile.BatchClaimComponentArgs{
			Id:              c.ID.Uint256().ToBig(),
			AllocatedAmount: c.AllocatedAmount.ToBig(),
			Portions:        []precompile.ComponentArgs{{Claimant: c.Portions[0].Claimant.ToBig(), Amount: c.Portions[0].Amount.ToBig()}},
		}
	}
	out := h.mustCall(t, arbiter, "batchClaim", precompile.BatchClaimArgs{
		AllocatorData:    []byte{},
		SponsorSignature: h.Sign(key, env.ClaimHash),
		Sponsor:          sponsor,
		Nonce:            b(2),
		Expires:          b(h.Now() + 600),
		Claims:           claims,
	})
	require.Equal(t, [32]byte(env.ClaimHash), out[0])
	require.Equal(t, uint256.NewInt(100), h.Keeper.BalanceOf(h.Ctx, recipient, first))
	require.Equal(t, uint256.NewInt(50), h.Keeper.BalanceOf(h.Ctx, recipient, second))
}

func TestAllocatedTransferCalldata(t *testing.T) {
	h := newHarness(t)
	_, owner := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	id := h.FundAndDeposit(t, owner, token, h.LockTag, 100)

	component := types.NewComponent(h.LockTag, recipient, uint256.NewInt(30))
	out := h.mustCall(t, owner, "allocatedTransfer", precompile.TransferArgs{
		AllocatorData: []byte{0x01},
		Nonce:         b(3),
		Expires:       b(h.Now() + 60),
		Id:            id.Uint256().ToBig(),
		Recipients:    []precompile.ComponentArgs{{Claimant: component.Claimant.ToBig(), Amount: b(30)}},
	})
	require.Equal(t, true, out[0])
	require.Equal(t, uint256.NewInt(70), h.Keeper.BalanceOf(h.Ctx, owner, id))
	require.Equal(t, uint256.NewInt(30), h.Keeper.BalanceOf(h.Ctx, recipient, id))
	require.Equal(t, []byte{0x01}, h.Allocator.Authorizations[0].AllocatorData)
}

func TestAllocatorRevertDataSurfaces(t *testing.T) {
	h := newHarness(t)
	_, owner := testutil.NewAccount(t)
	id := h.FundAndDeposit(t, owner, token, h.LockTag, 10)
	h.Allocator.RevertData = []byte{0xca, 0xfe}

	component := types.NewComponent(h.LockTag, owner, uint256.NewInt(1))
	_, err := h.call(t, owner, "allocatedTransfer", precompile.TransferArgs{
		AllocatorData: []byte{},
		Nonce:         b(4),
		Expires:       b(h.Now() + 60),
		Id:            id.Uint256().ToBig(),
		Recipients:    []precompile.ComponentArgs{{Claimant: component.Claimant.ToBig(), Amount: b(1)}},
	})
	var revert *types.RevertError
	require.ErrorAs(t, err, &revert)
	require.Equal(t, []byte{0xca, 0xfe}, []byte(revert.Data))
}

func TestRegistrationMethods(t *testing.T) {
	h := newHarness(t)
	_, sponsor := testutil.NewAccount(t)
	claimHash := [32]byte(common.HexToHash("0xc1"))
	typehash := [32]byte(types.CompactTypehash)

	out := h.mustCall(t, sponsor, "isRegistered", sponsor, claimHash, typehash)
	require.Equal(t, false, out[0])

	h.mustCall(t, sponsor, "register", claimHash, typehash)
	out = h.mustCall(t, sponsor, "isRegistered", sponsor, claimHash, typehash)
	require.Equal(t, true, out[0])

	other := [32]byte(common.HexToHash("0xc2"))
	h.mustCall(t, sponsor, "registerMultiple", [][2][32]byte{{other, typehash}})
	require.True(t, h.Keeper.IsRegistered(h.Ctx, sponsor, other, typehash))
}

func TestEmissaryMethods(t *testing.T) {
	h := newHarness(t)
	_, sponsor := testutil.NewAccount(t)
	emissary := common.HexToAddress("0x00000000000000000000000000000000000e0001")
	tag := [12]byte(h.LockTag)

	h.mustCall(t, sponsor, "assignEmissary", tag, emissary)
	out := h.mustCall(t, sponsor, "getEmissaryStatus", sponsor, tag)
	require.Equal(t, uint8(keeper.EmissaryEnabled), out[0])
	require.Equal(t, new(big.Int).SetUint64(keeper.NotScheduled), out[1])
	require.Equal(t, emissary, out[2])

	out = h.mustCall(t, sponsor, "scheduleEmissaryAssignment", tag)
	require.Equal(t, b(h.Now()+600), out[0])

	_, err := h.call(t, sponsor, "scheduleEmissaryAssignment", tag)
	require.ErrorIs(t, err, types.ErrEmissaryAlreadyScheduled)
}

func TestAllocatorMethods(t *testing.T) {
	h := newHarness(t)
	_, stranger := testutil.NewAccount(t)

	out := h.mustCall(t, stranger, "hasConsumedAllocatorNonce", b(9), testutil.AllocatorAddress)
	require.Equal(t, false, out[0])

	h.mustCall(t, testutil.AllocatorAddress, "consume", []*big.Int{b(9), b(10)})
	out = h.mustCall(t, stranger, "hasConsumedAllocatorNonce", b(9), testutil.AllocatorAddress)
	require.Equal(t, true, out[0])

	_, err := h.call(t, testutil.AllocatorAddress, "consume", []*big.Int{b(11), b(10)})
	require.ErrorIs(t, err, types.ErrInvalidNonce)
	require.False(t, h.Keeper.HasConsumedAllocatorNonce(h.Ctx, testutil.AllocatorAddress, uint256.NewInt(11)))

	_, err = h.call(t, stranger, "__registerAllocator", testutil.AllocatorAddress, []byte{})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	out = h.mustCall(t, stranger, "__registerAllocator", stranger, []byte{})
	require.Equal(t, types.AllocatorIDFor(stranger).Uint256().ToBig(), out[0])
}

func TestDepositAndBalanceMethods(t *testing.T) {
	h := newHarness(t)
	_, depositor := testutil.NewAccount(t)
	_, recipient := testutil.NewAccount(t)
	tag := [12]byte(h.LockTag)

	// Run moves the call value into the module account before Execute mints.
	moduleAddr := utils.EthToAccAddress(utils.ModuleEthAddress(types.ModuleName))
	h.Bank.Fund(moduleAddr, sdk.NewCoins(sdk.NewCoin(types.DefaultNativeDenom, sdkmath.NewInt(25))))

	abi := h.p.ABI()
	input, err := abi.Pack("depositNative", tag, recipient)
	require.NoError(t, err)
	ret, err := h.p.Execute(h.Ctx, depositor, uint256.NewInt(25), input, false)
	require.NoError(t, err)
	out, err := abi.Unpack("depositNative", ret)
	require.NoError(t, err)
	nativeID := types.NewLockID(h.LockTag, common.Address{})
	require.Equal(t, nativeID.Uint256().ToBig(), out[0])

	out = h.mustCall(t, depositor, "balanceOf", recipient, nativeID.Uint256().ToBig())
	require.Equal(t, b(25), out[0])

	h.Fund(depositor, token, 40)
	out = h.mustCall(t, depositor, "depositERC20", token, tag, b(40), common.Address{})
	erc20ID := types.NewLockID(h.LockTag, token)
	require.Equal(t, erc20ID.Uint256().ToBig(), out[0])

	h.mustCall(t, depositor, "transfer", recipient, erc20ID.Uint256().ToBig(), b(15))
	require.Equal(t, uint256.NewInt(25), h.Keeper.BalanceOf(h.Ctx, depositor, erc20ID))
	require.Equal(t, uint256.NewInt(15), h.Keeper.BalanceOf(h.Ctx, recipient, erc20ID))
}

func TestForcedWithdrawalMethods(t *testing.T) {
	h := newHarness(t)
	_, owner := testutil.NewAccount(t)
	id := h.FundAndDeposit(t, owner, token, h.LockTag, 10)
	idArg := id.Uint256().ToBig()

	out := h.mustCall(t, owner, "enableForcedWithdrawal", idArg)
	require.Equal(t, b(h.Now()+600), out[0])

	out = h.mustCall(t, owner, "getForcedWithdrawalStatus", owner, idArg)
	require.Equal(t, uint8(keeper.ForcedWithdrawalPending), out[0])

	_, err := h.call(t, owner, "forcedWithdrawal", idArg, owner, b(10))
	require.ErrorIs(t, err, types.ErrForcedWithdrawalUnavailable)

	h.mustCall(t, owner, "disableForcedWithdrawal", idArg)
	out = h.mustCall(t, owner, "getForcedWithdrawalStatus", owner, idArg)
	require.Equal(t, uint8(keeper.ForcedWithdrawalDisabled), out[0])
}

func TestViewMethods(t *testing.T) {
	h := newHarness(t)
	id := types.NewLockID(h.LockTag, token)

	out := h.mustCall(t, arbiter, "getLockDetails", id.Uint256().ToBig())
	require.Equal(t, token, out[0])
	require.Equal(t, testutil.AllocatorAddress, out[1])
	require.Equal(t, uint8(types.ResetPeriodTenMinutes), out[2])
	require.Equal(t, uint8(types.ScopeChainSpecific), out[3])
	require.Equal(t, [12]byte(h.LockTag), out[4])

	out = h.mustCall(t, arbiter, "DOMAIN_SEPARATOR")
	require.Equal(t, [32]byte(h.Keeper.DomainSeparator(h.Ctx)), out[0])
}

func TestExecuteGuards(t *testing.T) {
	h := newHarness(t)
	abi := h.p.ABI()

	_, err := h.p.Execute(h.Ctx, arbiter, nil, []byte{0x01}, false)
	require.Error(t, err)

	_, err = h.p.Execute(h.Ctx, arbiter, nil, []byte{0xde, 0xad, 0xbe, 0xef}, false)
	require.ErrorContains(t, err, "unknown function selector")

	register, err := abi.Pack("register", [32]byte{1}, [32]byte{2})
	require.NoError(t, err)
	_, err = h.p.Execute(h.Ctx, arbiter, nil, register, true)
	require.ErrorContains(t, err, "read-only")

	_, err = h.p.Execute(h.Ctx, arbiter, uint256.NewInt(1), register, false)
	require.ErrorContains(t, err, "not payable")

	view, err := abi.Pack("DOMAIN_SEPARATOR")
	require.NoError(t, err)
	_, err = h.p.Execute(h.Ctx, arbiter, nil, view, true)
	require.NoError(t, err)

	_, err = h.p.Execute(h.Ctx, arbiter, nil, register[:20], false)
	require.Error(t, err)
}

func TestRequiredGas(t *testing.T) {
	p := precompile.NewCompactPrecompile(keeper.Keeper{})
	abi := p.ABI()

	require.Zero(t, p.RequiredGas(nil))
	require.Zero(t, p.RequiredGas([]byte{0xde, 0xad, 0xbe, 0xef}))

	view, err := abi.Pack("DOMAIN_SEPARATOR")
	require.NoError(t, err)
	register, err := abi.Pack("register", [32]byte{1}, [32]byte{2})
	require.NoError(t, err)
	require.Less(t, p.RequiredGas(view), p.RequiredGas(register))

	small, err := abi.Pack("consume", []*big.Int{b(1)})
	require.NoError(t, err)
	nonces := make([]*big.Int, 64)
	for i := range nonces {
		nonces[i] = b(uint64(i))
	}
	large, err := abi.Pack("consume", nonces)
	require.NoError(t, err)
	require.Greater(t, p.RequiredGas(large), p.RequiredGas(small))
	require.Equal(t, common.HexToAddress(types.CompactAddress), p.Address())
}

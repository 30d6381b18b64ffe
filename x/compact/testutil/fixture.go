// Package testutil builds in-memory compact keepers with mock collaborators
// for tests.
package testutil

import (
	"crypto/ecdsa"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/testutil"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"compactvault/utils"
	"compactvault/x/compact/ethcall"
	"compactvault/x/compact/keeper"
	"compactvault/x/compact/types"
)

// GenesisTime is the block time fixtures start at.
var GenesisTime = time.Unix(1_700_000_000, 0).UTC()

// AllocatorAddress is the allocator registered by NewFixture.
var AllocatorAddress = common.HexToAddress("0x00000000A110CA7012345678901234567890ABCD")

// Fixture is a keeper over a fresh in-memory store with one registered
// allocator.
type Fixture struct {
	Ctx       sdk.Context
	Keeper    keeper.Keeper
	Bank      *MockBank
	Router    *ethcall.Router
	Allocator *MockAllocator

	// LockTag is a chain-specific, ten-minute tag of the fixture allocator.
	LockTag types.LockTag
}

// NewFixture creates a Fixture
func NewFixture(t testing.TB) *Fixture {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	transientKey := storetypes.NewTransientStoreKey(types.TransientStoreKey)
	testCtx := testutil.DefaultContextWithDB(t, storeKey, transientKey)
	ctx := testCtx.Ctx.WithBlockTime(GenesisTime)

	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
	bank := NewMockBank()
	router := ethcall.NewRouter()
	k := keeper.NewKeeper(cdc, storeKey, transientKey, bank, router)
	require.NoError(t, k.InitGenesis(ctx, *types.DefaultGenesisState()))

	allocator := &MockAllocator{}
	router.Register(AllocatorAddress, allocator)
	id, err := k.RegisterAllocator(ctx, AllocatorAddress, AllocatorAddress)
	require.NoError(t, err)

	return &Fixture{
		Ctx:       ctx,
		Keeper:    k,
		Bank:      bank,
		Router:    router,
		Allocator: allocator,
		LockTag:   types.NewLockTag(id, types.ScopeChainSpecific, types.ResetPeriodTenMinutes),
	}
}

// Now returns the fixture's block time in seconds.
func (f *Fixture) Now() uint64 {
	return uint64(f.Ctx.BlockTime().Unix())
}

// Advance moves the block time forward by d.
func (f *Fixture) Advance(d time.Duration) {
	f.Ctx = f.Ctx.WithBlockTime(f.Ctx.BlockTime().Add(d))
}

// NewAccount returns a fresh key and its address.
func NewAccount(t testing.TB) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

// Fund credits owner with amount of the asset backing token.
func (f *Fixture) Fund(owner, token common.Address, amount uint64) {
	denom := f.Keeper.GetParams(f.Ctx).DenomFor(token)
	f.Bank.Fund(utils.EthToAccAddress(owner), sdk.NewCoins(sdk.NewCoin(denom, sdkmath.NewIntFromUint64(amount))))
}

// FundAndDeposit funds owner and deposits amount of token under tag.
func (f *Fixture) FundAndDeposit(t testing.TB, owner, token common.Address, tag types.LockTag, amount uint64) types.LockID {
	t.Helper()
	f.Fund(owner, token, amount)
	id, err := f.Keeper.Deposit(f.Ctx, owner, token, tag, uint256.NewInt(amount), owner)
	require.NoError(t, err)
	return id
}

// Underlying returns the bank balance of owner in the asset backing token.
func (f *Fixture) Underlying(owner, token common.Address) uint64 {
	denom := f.Keeper.GetParams(f.Ctx).DenomFor(token)
	return f.Bank.GetBalance(f.Ctx, utils.EthToAccAddress(owner), denom).Amount.Uint64()
}

// Sign signs claimHash for the local domain.
func (f *Fixture) Sign(key *ecdsa.PrivateKey, claimHash common.Hash) []byte {
	return SignDigest(key, f.Keeper.DomainSeparator(f.Ctx), claimHash)
}

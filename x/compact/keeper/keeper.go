package keeper

import (
	"encoding/json"
	"fmt"
	"sync"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// Keeper owns the resource lock state: balances, nonces, registrations,
// emissary configuration and the allocator registry.
type Keeper struct {
	cdc          codec.BinaryCodec
	storeKey     storetypes.StoreKey
	transientKey storetypes.StoreKey
	bankKeeper   types.BankKeeper
	contracts    types.ContractCaller

	domain *domainCache
}

// NewKeeper creates a new Keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	transientKey storetypes.StoreKey,
	bankKeeper types.BankKeeper,
	contracts types.ContractCaller,
) Keeper {
	return Keeper{
		cdc:          cdc,
		storeKey:     storeKey,
		transientKey: transientKey,
		bankKeeper:   bankKeeper,
		contracts:    contracts,
		domain:       &domainCache{},
	}
}

// Logger returns a module-specific logger
func (k Keeper) Logger(ctx sdk.Context) log.Logger {
	return ctx.Logger().With("module", fmt.Sprintf("x/%s", types.ModuleName))
}

// GetParams returns the module parameters, falling back to the defaults
// before genesis has run.
func (k Keeper) GetParams(ctx sdk.Context) types.Params {
	bz := ctx.KVStore(k.storeKey).Get(types.ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		panic(fmt.Errorf("failed to unmarshal params: %w", err))
	}
	return params
}

// SetParams validates and stores the module parameters.
func (k Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	bz, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	ctx.KVStore(k.storeKey).Set(types.ParamsKey, bz)
	return nil
}

// ChainID returns the EVM chain id claims are executed on.
func (k Keeper) ChainID(ctx sdk.Context) *uint256.Int {
	return uint256.NewInt(k.GetParams(ctx).EVMChainID)
}

// domainCache holds the separator of the last seen (chain id, verifying
// contract) pair; it is recomputed whenever either changes.
type domainCache struct {
	mu        sync.Mutex
	chainID   uint64
	verifying common.Address
	separator common.Hash
}

func (c *domainCache) get(chainID uint64, verifying common.Address) common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.separator == (common.Hash{}) || c.chainID != chainID || c.verifying != verifying {
		c.chainID = chainID
		c.verifying = verifying
		c.separator = types.DomainSeparator(uint256.NewInt(chainID), verifying)
	}
	return c.separator
}

// DomainSeparator returns the EIP-712 domain separator of this chain.
func (k Keeper) DomainSeparator(ctx sdk.Context) common.Hash {
	params := k.GetParams(ctx)
	return k.domain.get(params.EVMChainID, params.VerifyingContract)
}

// domainSeparatorFor returns the separator a claim was signed under: the
// local one, or the one of the chain an exogenous claim was notarized on.
func (k Keeper) domainSeparatorFor(ctx sdk.Context, notarizedChainID *uint256.Int) common.Hash {
	if notarizedChainID == nil {
		return k.DomainSeparator(ctx)
	}
	return types.DomainSeparator(notarizedChainID, k.GetParams(ctx).VerifyingContract)
}

// blockTimestamp is the clock deadlines are evaluated against.
func blockTimestamp(ctx sdk.Context) uint64 {
	t := ctx.BlockTime().Unix()
	if t < 0 {
		return 0
	}
	return uint64(t)
}

// guarded runs fn inside a branched context that is committed only when fn
// succeeds, holding the reentrancy flag for the whole call.
func (k Keeper) guarded(ctx sdk.Context, fn func(ctx sdk.Context) error) error {
	ts := ctx.TransientStore(k.transientKey)
	if ts.Has(types.ReentrancyGuardKey) {
		return types.ErrReentrantCall
	}
	ts.Set(types.ReentrancyGuardKey, []byte{1})
	defer ts.Delete(types.ReentrancyGuardKey)

	cacheCtx, write := ctx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

// atomic commits fn's writes only on success, without taking the guard.
func atomic(ctx sdk.Context, fn func(ctx sdk.Context) error) error {
	cacheCtx, write := ctx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

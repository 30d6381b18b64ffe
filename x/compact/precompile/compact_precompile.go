package precompile

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"

	"compactvault/utils"
	compactkeeper "compactvault/x/compact/keeper"
	compacttypes "compactvault/x/compact/types"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Gas charged per method. Claims pay for the external allocator call and
// the per-component settlement on top of the base.
var (
	gasCosts = map[string]uint64{
		"claim":                      150000,
		"batchClaim":                 200000,
		"multichainClaim":            150000,
		"exogenousClaim":             150000,
		"batchMultichainClaim":       200000,
		"exogenousBatchClaim":        200000,
		"allocatedTransfer":          120000,
		"allocatedBatchTransfer":     160000,
		"depositNative":              60000,
		"depositERC20":               80000,
		"transfer":                   80000,
		"register":                   25000,
		"registerMultiple":           25000,
		"assignEmissary":             30000,
		"scheduleEmissaryAssignment": 30000,
		"__registerAllocator":        50000,
		"consume":                    25000,
		"enableForcedWithdrawal":     30000,
		"disableForcedWithdrawal":    30000,
		"forcedWithdrawal":           80000,
	}
	gasPerElement uint64 = 5000
	gasRead       uint64 = 5000
)

// CompactPrecompile exposes the resource lock keeper to EVM callers
type CompactPrecompile struct {
	keeper compactkeeper.Keeper
}

// NewCompactPrecompile creates a new CompactPrecompile
func NewCompactPrecompile(keeper compactkeeper.Keeper) *CompactPrecompile {
	return &CompactPrecompile{keeper: keeper}
}

// Address returns the precompile address
func (p *CompactPrecompile) Address() common.Address {
	return common.HexToAddress(compacttypes.CompactAddress)
}

// ABI returns the callable surface of the precompile.
func (p *CompactPrecompile) ABI() abi.ABI {
	return compactABI
}

// RequiredGas returns the gas required to execute the precompiled contract
func (p *CompactPrecompile) RequiredGas(input []byte) uint64 {
	if len(input) < 4 {
		return 0
	}
	m, err := compactABI.MethodById(input[:4])
	if err != nil {
		return 0
	}
	base, ok := gasCosts[m.Name]
	if !ok {
		return gasRead
	}
	// Dynamic calldata grows with the number of components and nonces.
	return base + gasPerElement*uint64(len(input)/256)
}

// Run executes the precompiled contract
func (p *CompactPrecompile) Run(evm *vm.EVM, contract *vm.Contract, readOnly bool) ([]byte, error) {
	ctx, ok := evm.StateDB.(interface{ GetContext() sdk.Context })
	if !ok {
		return nil, errors.New("failed to get SDK context")
	}
	sdkCtx := ctx.GetContext()

	value := contract.Value()
	if value != nil && !value.IsZero() {
		// Value sent with the call sits on the precompile account. Move it to
		// the module account before minting so custody matches the ledger.
		precompileAddr := contract.Address()
		moduleEthAddr := utils.ModuleEthAddress(compacttypes.ModuleName)

		if bal := evm.StateDB.GetBalance(precompileAddr); bal == nil || bal.Cmp(value) < 0 {
			return nil, fmt.Errorf("insufficient precompile balance for deposit")
		}
		evm.StateDB.SubBalance(precompileAddr, value, tracing.BalanceChangeTransfer)
		evm.StateDB.AddBalance(moduleEthAddr, value, tracing.BalanceChangeTransfer)
	}

	ret, err := p.Execute(sdkCtx, contract.Caller(), value, contract.Input, readOnly)
	var revert *compacttypes.RevertError
	if errors.As(err, &revert) && revert.HasData() {
		return revert.Data, vm.ErrExecutionReverted
	}
	return ret, err
}

// Execute dispatches ABI calldata from caller against the keeper.
func (p *CompactPrecompile) Execute(ctx sdk.Context, caller common.Address, value *uint256.Int, input []byte, readOnly bool) ([]byte, error) {
	if len(input) < 4 {
		return nil, errors.New("input too short")
	}
	m, err := compactABI.MethodById(input[:4])
	if err != nil {
		return nil, fmt.Errorf("unknown function selector: %x", input[:4])
	}
	if readOnly && !m.IsConstant() {
		return nil, fmt.Errorf("cannot call %s in read-only mode", m.Name)
	}
	if !m.IsPayable() && value != nil && !value.IsZero() {
		return nil, fmt.Errorf("%s is not payable", m.Name)
	}
	arguments, err := m.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", m.Name, err)
	}

	switch m.Name {
	case "claim", "batchClaim", "multichainClaim", "exogenousClaim", "batchMultichainClaim", "exogenousBatchClaim":
		claimHash, err := p.processClaim(ctx, m.Name, caller, arguments[0])
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack([32]byte(claimHash))
	case "allocatedTransfer", "allocatedBatchTransfer":
		if _, err := p.processClaim(ctx, m.Name, caller, arguments[0]); err != nil {
			return nil, err
		}
		return m.Outputs.Pack(true)

	case "depositNative":
		return p.depositNative(ctx, m, value, arguments)
	case "depositERC20":
		return p.depositERC20(ctx, m, caller, arguments)
	case "transfer":
		return p.transfer(ctx, m, caller, arguments)
	case "balanceOf":
		owner, id := arguments[0].(common.Address), lockID(arguments[1].(*big.Int))
		return m.Outputs.Pack(p.keeper.BalanceOf(ctx, owner, id).ToBig())

	case "register":
		p.keeper.Register(ctx, caller, arguments[0].([32]byte), arguments[1].([32]byte))
		return m.Outputs.Pack(true)
	case "registerMultiple":
		pairs := arguments[0].([][2][32]byte)
		registrations := make([]compactkeeper.Registration, len(pairs))
		for i, pair := range pairs {
			registrations[i] = compactkeeper.Registration{ClaimHash: pair[0], Typehash: pair[1]}
		}
		p.keeper.RegisterBatch(ctx, caller, registrations)
		return m.Outputs.Pack(true)
	case "isRegistered":
		sponsor := arguments[0].(common.Address)
		return m.Outputs.Pack(p.keeper.IsRegistered(ctx, sponsor, arguments[1].([32]byte), arguments[2].([32]byte)))

	case "assignEmissary":
		tag, emissary := compacttypes.LockTag(arguments[0].([12]byte)), arguments[1].(common.Address)
		if err := p.keeper.AssignEmissary(ctx, caller, tag, emissary); err != nil {
			return nil, err
		}
		return m.Outputs.Pack(true)
	case "scheduleEmissaryAssignment":
		at, err := p.keeper.ScheduleEmissaryAssignment(ctx, caller, compacttypes.LockTag(arguments[0].([12]byte)))
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(new(big.Int).SetUint64(at))
	case "getEmissaryStatus":
		sponsor, tag := arguments[0].(common.Address), compacttypes.LockTag(arguments[1].([12]byte))
		status, at, emissary := p.keeper.GetEmissaryStatus(ctx, sponsor, tag)
		return m.Outputs.Pack(uint8(status), new(big.Int).SetUint64(at), emissary)

	case "__registerAllocator":
		id, err := p.keeper.RegisterAllocator(ctx, caller, arguments[0].(common.Address))
		if err != nil {
			return nil, err
		}
		return m.Outputs.Pack(id.Uint256().ToBig())
	case "consume":
		raw := arguments[0].([]*big.Int)
		nonces := make([]*uint256.Int, len(raw))
		for i, n := range raw {
			nonces[i] = u256(n)
		}
		if err := p.keeper.ConsumeNonces(ctx, caller, nonces); err != nil {
			return nil, err
		}
		return m.Outputs.Pack(true)
	case "hasConsumedAllocatorNonce":
		nonce, allocator := u256(arguments[0].(*big.Int)), arguments[1].(common.Address)
		return m.Outputs.Pack(p.keeper.HasConsumedAllocatorNonce(ctx, allocator, nonce))

	case "enableForcedWithdrawal":
		at := p.keeper.EnableForcedWithdrawal(ctx, caller, lockID(arguments[0].(*big.Int)))
		return m.Outputs.Pack(new(big.Int).SetUint64(at))
	case "disableForcedWithdrawal":
		if err := p.keeper.DisableForcedWithdrawal(ctx, caller, lockID(arguments[0].(*big.Int))); err != nil {
			return nil, err
		}
		return m.Outputs.Pack(true)
	case "forcedWithdrawal":
		id, recipient, amount := lockID(arguments[0].(*big.Int)), arguments[1].(common.Address), u256(arguments[2].(*big.Int))
		if err := p.keeper.ForcedWithdrawal(ctx, caller, id, recipient, amount); err != nil {
			return nil, err
		}
		return m.Outputs.Pack(true)
	case "getForcedWithdrawalStatus":
		account, id := arguments[0].(common.Address), lockID(arguments[1].(*big.Int))
		status, at := p.keeper.GetForcedWithdrawalStatus(ctx, account, id)
		return m.Outputs.Pack(uint8(status), new(big.Int).SetUint64(at))

	case "getLockDetails":
		id := lockID(arguments[0].(*big.Int))
		allocator, _ := p.keeper.GetAllocator(ctx, id.AllocatorID())
		return m.Outputs.Pack(id.Token, allocator, uint8(id.ResetPeriod()), uint8(id.Scope()), [12]byte(id.Tag))
	case "DOMAIN_SEPARATOR":
		return m.Outputs.Pack([32]byte(p.keeper.DomainSeparator(ctx)))
	}
	return nil, fmt.Errorf("unhandled method %s", m.Name)
}

func (p *CompactPrecompile) processClaim(ctx sdk.Context, name string, caller common.Address, tuple interface{}) (common.Hash, error) {
	payload, err := payloadFor(name, tuple)
	if err != nil {
		return common.Hash{}, err
	}
	return p.keeper.ProcessClaim(ctx, caller, payload)
}

// depositNative mints for value that Run already moved into the module account.
func (p *CompactPrecompile) depositNative(ctx sdk.Context, m *abi.Method, value *uint256.Int, arguments []interface{}) ([]byte, error) {
	if value == nil {
		value = new(uint256.Int)
	}
	tag, recipient := compacttypes.LockTag(arguments[0].([12]byte)), arguments[1].(common.Address)
	id, err := p.keeper.RecordNativeDeposit(ctx, tag, value, recipient)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Pack(id.Uint256().ToBig())
}

func (p *CompactPrecompile) depositERC20(ctx sdk.Context, m *abi.Method, caller common.Address, arguments []interface{}) ([]byte, error) {
	token := arguments[0].(common.Address)
	tag := compacttypes.LockTag(arguments[1].([12]byte))
	amount := u256(arguments[2].(*big.Int))
	recipient := arguments[3].(common.Address)
	if token == (common.Address{}) {
		return nil, compacttypes.ErrInvalidAmount.Wrap("use depositNative for the native asset")
	}
	id, err := p.keeper.Deposit(ctx, caller, token, tag, amount, recipient)
	if err != nil {
		return nil, err
	}
	return m.Outputs.Pack(id.Uint256().ToBig())
}

func (p *CompactPrecompile) transfer(ctx sdk.Context, m *abi.Method, caller common.Address, arguments []interface{}) ([]byte, error) {
	to, id, amount := arguments[0].(common.Address), lockID(arguments[1].(*big.Int)), u256(arguments[2].(*big.Int))
	if err := p.keeper.Transfer(ctx, caller, to, id, amount); err != nil {
		return nil, err
	}
	return m.Outputs.Pack(true)
}

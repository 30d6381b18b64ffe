package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// x/compact module sentinel errors
var (
	ErrInvalidNonce                  = errorsmod.Register(ModuleName, 2, "invalid nonce")
	ErrExpired                       = errorsmod.Register(ModuleName, 3, "expired")
	ErrInvalidSignature              = errorsmod.Register(ModuleName, 4, "invalid signature")
	ErrInvalidAllocation             = errorsmod.Register(ModuleName, 5, "invalid allocation")
	ErrAllocatedAmountExceeded       = errorsmod.Register(ModuleName, 6, "allocated amount exceeded")
	ErrArithmeticOverflow            = errorsmod.Register(ModuleName, 7, "arithmetic overflow")
	ErrInvalidBatchAllocation        = errorsmod.Register(ModuleName, 8, "invalid batch allocation")
	ErrInvalidScope                  = errorsmod.Register(ModuleName, 9, "invalid scope")
	ErrChainIndexOutOfRange          = errorsmod.Register(ModuleName, 10, "chain index out of range")
	ErrNoIdsAndAmountsProvided       = errorsmod.Register(ModuleName, 11, "no ids and amounts provided")
	ErrInvalidLockTag                = errorsmod.Register(ModuleName, 12, "invalid lock tag")
	ErrEmissaryAssignmentUnavailable = errorsmod.Register(ModuleName, 13, "emissary assignment unavailable")
	ErrInvalidEmissaryAssignment     = errorsmod.Register(ModuleName, 14, "invalid emissary assignment")
	ErrEmissaryAlreadyScheduled      = errorsmod.Register(ModuleName, 15, "emissary assignment already scheduled")
	ErrReentrantCall                 = errorsmod.Register(ModuleName, 16, "reentrant call")
	ErrAllocatorNotRegistered        = errorsmod.Register(ModuleName, 17, "allocator not registered")
	ErrInvalidAllocatorRegistration  = errorsmod.Register(ModuleName, 18, "invalid allocator registration")
	ErrInsufficientBalance           = errorsmod.Register(ModuleName, 19, "insufficient balance")
	ErrForcedWithdrawalUnavailable   = errorsmod.Register(ModuleName, 20, "forced withdrawal unavailable")
	ErrUnauthorized                  = errorsmod.Register(ModuleName, 21, "unauthorized")
	ErrInvalidAmount                 = errorsmod.Register(ModuleName, 22, "invalid amount")
	ErrInvalidParams                 = errorsmod.Register(ModuleName, 23, "invalid params")
)

// InvalidNonceError reports a nonce that was already consumed in the scope
// of Account.
type InvalidNonceError struct {
	Account common.Address
	Nonce   *uint256.Int
}

func (e *InvalidNonceError) Error() string {
	return fmt.Sprintf("%s: account %s nonce %s", ErrInvalidNonce, e.Account.Hex(), e.Nonce.Dec())
}

func (e *InvalidNonceError) Unwrap() error { return ErrInvalidNonce }

// ExpiredError reports a claim whose expiration is not in the future.
type ExpiredError struct {
	Expiration *uint256.Int
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("%s: expiration %s", ErrExpired, e.Expiration.Dec())
}

func (e *ExpiredError) Unwrap() error { return ErrExpired }

// AllocatedAmountExceededError reports claimant amounts summing past the
// allocated amount of a lock.
type AllocatedAmountExceededError struct {
	Allocated *uint256.Int
	Spent     *uint256.Int
}

func (e *AllocatedAmountExceededError) Error() string {
	return fmt.Sprintf("%s: allocated %s, spent %s", ErrAllocatedAmountExceeded, e.Allocated.Dec(), e.Spent.Dec())
}

func (e *AllocatedAmountExceededError) Unwrap() error { return ErrAllocatedAmountExceeded }

// InvalidAllocationError reports an allocator that did not authorize a claim.
type InvalidAllocationError struct {
	Allocator common.Address
}

func (e *InvalidAllocationError) Error() string {
	return fmt.Sprintf("%s: allocator %s", ErrInvalidAllocation, e.Allocator.Hex())
}

func (e *InvalidAllocationError) Unwrap() error { return ErrInvalidAllocation }

// InvalidBatchAllocationError reports a lock in a batch whose allocator
// differs from the first lock's allocator.
type InvalidBatchAllocationError struct {
	ID LockID
}

func (e *InvalidBatchAllocationError) Error() string {
	return fmt.Sprintf("%s: id %s", ErrInvalidBatchAllocation, e.ID)
}

func (e *InvalidBatchAllocationError) Unwrap() error { return ErrInvalidBatchAllocation }

// InvalidScopeError reports a chain-specific lock claimed under a foreign
// domain separator.
type InvalidScopeError struct {
	ID LockID
}

func (e *InvalidScopeError) Error() string {
	return fmt.Sprintf("%s: id %s", ErrInvalidScope, e.ID)
}

func (e *InvalidScopeError) Unwrap() error { return ErrInvalidScope }

// EmissaryAssignmentUnavailableError reports a reassignment attempted before
// its timelock elapsed.
type EmissaryAssignmentUnavailableError struct {
	AssignableAt uint64
}

func (e *EmissaryAssignmentUnavailableError) Error() string {
	return fmt.Sprintf("%s: assignable at %d", ErrEmissaryAssignmentUnavailable, e.AssignableAt)
}

func (e *EmissaryAssignmentUnavailableError) Unwrap() error { return ErrEmissaryAssignmentUnavailable }

// RevertError is returned by a ContractCaller when the callee reverted. Data
// holds the raw revert payload and may be empty.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string {
	if len(e.Data) == 0 {
		return "execution reverted"
	}
	return "execution reverted: " + hexutil.Encode(e.Data)
}

// HasData reports whether the revert carried a payload worth propagating.
func (e *RevertError) HasData() bool {
	return len(e.Data) > 0
}

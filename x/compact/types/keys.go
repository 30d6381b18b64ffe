package types

import (
	"github.com/ethereum/go-ethereum/common"
)

const (
	// ModuleName defines the module name
	ModuleName = "compact"

	// StoreKey defines the primary store key
	StoreKey = ModuleName

	// TransientStoreKey holds per-transaction state such as the reentrancy flag
	TransientStoreKey = "transient_" + ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName

	// QuerierRoute defines the module's query routing key
	QuerierRoute = ModuleName
)

// Store prefixes
var (
	// NonceBitmapKey prefix for consumed nonces
	// Key: scope (1) + account (20) + nonce >> 8 (31) -> Value: 256-bit bitmap
	NonceBitmapKey = []byte{0x01}

	// RegistrationKey prefix for registered compacts
	// Key: sponsor (20) + claimHash (32) + typehash (32) -> Value: 0x01
	RegistrationKey = []byte{0x02}

	// EmissaryKey prefix for emissary configuration
	// Key: sponsor (20) + lockTag (12) -> Value: emissary (20) + assignableAt (8)
	EmissaryKey = []byte{0x03}

	// AllocatorKey prefix for the allocator registry
	// Key: allocatorId (12) -> Value: allocator address (20)
	AllocatorKey = []byte{0x04}

	// BalanceKey prefix for ERC6909 balances
	// Key: owner (20) + id (32) -> Value: uint256 (32)
	BalanceKey = []byte{0x05}

	// TotalSupplyKey prefix for per-lock supply
	// Key: id (32) -> Value: uint256 (32)
	TotalSupplyKey = []byte{0x06}

	// ForcedWithdrawalKey prefix for forced withdrawal timers
	// Key: owner (20) + id (32) -> Value: withdrawableAt (8)
	ForcedWithdrawalKey = []byte{0x07}

	// ParamsKey stores the module parameters
	ParamsKey = []byte{0x08}

	// ReentrancyGuardKey marks a guarded entrypoint as active in the transient store
	ReentrancyGuardKey = []byte{0x01}
)

// NonceScopeAllocator is the only nonce scope in use.
const NonceScopeAllocator byte = 0x01

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	key := make([]byte, 0, n)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// NonceBitmapStoreKey returns the key of the bitmap holding nonceHigh's bits.
func NonceBitmapStoreKey(scope byte, account common.Address, nonceHigh [31]byte) []byte {
	return concat(NonceBitmapKey, []byte{scope}, account.Bytes(), nonceHigh[:])
}

func RegistrationStoreKey(sponsor common.Address, claimHash, typehash common.Hash) []byte {
	return concat(RegistrationKey, sponsor.Bytes(), claimHash.Bytes(), typehash.Bytes())
}

func EmissaryStoreKey(sponsor common.Address, tag LockTag) []byte {
	return concat(EmissaryKey, sponsor.Bytes(), tag[:])
}

func AllocatorStoreKey(id AllocatorID) []byte {
	return concat(AllocatorKey, id[:])
}

func BalanceStoreKey(owner common.Address, id LockID) []byte {
	b := id.Bytes32()
	return concat(BalanceKey, owner.Bytes(), b[:])
}

// BalanceOwnerPrefix returns the prefix under which all of owner's balances live.
func BalanceOwnerPrefix(owner common.Address) []byte {
	return concat(BalanceKey, owner.Bytes())
}

func TotalSupplyStoreKey(id LockID) []byte {
	b := id.Bytes32()
	return concat(TotalSupplyKey, b[:])
}

func ForcedWithdrawalStoreKey(owner common.Address, id LockID) []byte {
	b := id.Bytes32()
	return concat(ForcedWithdrawalKey, owner.Bytes(), b[:])
}

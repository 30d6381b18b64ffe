package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Scope determines whether a resource lock may be claimed on other chains.
type Scope uint8

const (
	ScopeMultichain    Scope = 0
	ScopeChainSpecific Scope = 1
)

func (s Scope) String() string {
	switch s {
	case ScopeMultichain:
		return "multichain"
	case ScopeChainSpecific:
		return "chain-specific"
	default:
		return fmt.Sprintf("scope(%d)", uint8(s))
	}
}

// ResetPeriod is the delay applied to forced withdrawals and emissary
// reassignment for a lock.
type ResetPeriod uint8

const (
	ResetPeriodOneSecond ResetPeriod = iota
	ResetPeriodFifteenSeconds
	ResetPeriodOneMinute
	ResetPeriodTenMinutes
	ResetPeriodOneHourAndFiveMinutes
	ResetPeriodOneDay
	ResetPeriodSevenDaysAndOneHour
	ResetPeriodThirtyDays
)

var resetPeriodSeconds = [...]uint64{1, 15, 60, 600, 3900, 86400, 615600, 2592000}

// Seconds returns the duration of the reset period.
func (r ResetPeriod) Seconds() uint64 {
	return resetPeriodSeconds[r&0x07]
}

// AllocatorID is the 92-bit identifier of a registered allocator. The top
// nibble of the first byte is always zero.
type AllocatorID [12]byte

// AllocatorIDFor derives the allocator id of an address: a four-bit compact
// flag counting leading zero nibbles followed by the low 88 bits of the
// address.
func AllocatorIDFor(allocator common.Address) AllocatorID {
	var id AllocatorID
	id[0] = compactFlag(allocator)
	copy(id[1:], allocator[9:])
	return id
}

func compactFlag(addr common.Address) uint8 {
	nibbles := 0
	for _, b := range addr {
		if b>>4 != 0 {
			break
		}
		nibbles++
		if b&0x0f != 0 {
			break
		}
		nibbles++
	}
	switch {
	case nibbles < 4:
		return 0
	case nibbles < 18:
		return uint8(nibbles - 3)
	default:
		return 15
	}
}

func (a AllocatorID) String() string {
	return hexutil.Encode(a[:])
}

// Uint256 returns the allocator id as an integer.
func (a AllocatorID) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes(a[:])
}

// LockTag packs scope, reset period and allocator id into 96 bits:
// scope (1 bit) | reset period (3 bits) | allocator id (92 bits).
type LockTag [12]byte

// NewLockTag composes a lock tag.
func NewLockTag(allocatorID AllocatorID, scope Scope, resetPeriod ResetPeriod) LockTag {
	var tag LockTag
	copy(tag[:], allocatorID[:])
	tag[0] = (tag[0] & 0x0f) | (uint8(scope)&0x01)<<7 | (uint8(resetPeriod)&0x07)<<4
	return tag
}

func (t LockTag) Scope() Scope {
	return Scope(t[0] >> 7)
}

func (t LockTag) ResetPeriod() ResetPeriod {
	return ResetPeriod((t[0] >> 4) & 0x07)
}

func (t LockTag) AllocatorID() AllocatorID {
	var id AllocatorID
	copy(id[:], t[:])
	id[0] &= 0x0f
	return id
}

func (t LockTag) IsZero() bool {
	return t == LockTag{}
}

func (t LockTag) String() string {
	return hexutil.Encode(t[:])
}

func (t LockTag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *LockTag) UnmarshalText(input []byte) error {
	return decodeFixedHex("lock tag", input, t[:])
}

// LockID identifies a resource lock: lockTag (12 bytes) || token (20 bytes).
// The zero token address denotes the native asset.
type LockID struct {
	Tag   LockTag
	Token common.Address
}

// NewLockID composes a lock id from its tag and underlying token.
func NewLockID(tag LockTag, token common.Address) LockID {
	return LockID{Tag: tag, Token: token}
}

// LockIDFromBytes decodes a 32-byte big-endian lock id.
func LockIDFromBytes(b []byte) (LockID, error) {
	if len(b) != 32 {
		return LockID{}, fmt.Errorf("lock id must be 32 bytes, got %d", len(b))
	}
	var id LockID
	copy(id.Tag[:], b[:12])
	copy(id.Token[:], b[12:])
	return id, nil
}

// LockIDFromUint256 decodes a lock id from its integer form. Decoding is
// total: every 256-bit value is a valid id.
func LockIDFromUint256(v *uint256.Int) LockID {
	b := v.Bytes32()
	id, _ := LockIDFromBytes(b[:])
	return id
}

func (id LockID) Bytes32() [32]byte {
	var out [32]byte
	copy(out[:12], id.Tag[:])
	copy(out[12:], id.Token[:])
	return out
}

func (id LockID) Uint256() *uint256.Int {
	b := id.Bytes32()
	return new(uint256.Int).SetBytes32(b[:])
}

func (id LockID) Scope() Scope { return id.Tag.Scope() }
func (id LockID) ResetPeriod() ResetPeriod { return id.Tag.ResetPeriod() }
func (id LockID) AllocatorID() AllocatorID { return id.Tag.AllocatorID() }
func (id LockID) IsNative() bool { return id.Token == (common.Address{}) }
func (id LockID) WithTag(tag LockTag) LockID { return LockID{Tag: tag, Token: id.Token} }

func (id LockID) String() string {
	b := id.Bytes32()
	return hexutil.Encode(b[:])
}

func (id LockID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *LockID) UnmarshalText(input []byte) error {
	s := string(input)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		v, err := uint256.FromDecimal(s)
		if err != nil {
			return fmt.Errorf("invalid lock id %q: %w", s, err)
		}
		*id = LockIDFromUint256(v)
		return nil
	}
	var b [32]byte
	if err := decodeFixedHex("lock id", input, b[:]); err != nil {
		return err
	}
	parsed, _ := LockIDFromBytes(b[:])
	*id = parsed
	return nil
}

// decodeFixedHex decodes a 0x-prefixed hex string into dst, left-padding
// shorter inputs.
func decodeFixedHex(what string, input []byte, dst []byte) error {
	s := strings.TrimPrefix(strings.TrimPrefix(string(input), "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", what, input, err)
	}
	if len(raw) > len(dst) {
		return fmt.Errorf("invalid %s %q: longer than %d bytes", what, input, len(dst))
	}
	for i := range dst {
		dst[i] = 0
	}
	copy(dst[len(dst)-len(raw):], raw)
	return nil
}

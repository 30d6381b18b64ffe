package types

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// External endpoint signatures. A call succeeds only when the callee returns
// its own selector as an ABI-encoded bytes4.
const (
	AuthorizeClaimSignature   = "authorizeClaim(bytes32,address,address,uint256,uint256,uint256[2][],bytes)"
	AttestSignature           = "attest(address,address,address,uint256,uint256)"
	VerifyClaimSignature      = "verifyClaim(address,bytes32,bytes32,bytes,bytes12)"
	IsValidSignatureSignature = "isValidSignature(bytes32,bytes)"
)

var (
	AuthorizeClaimSelector   = selector(AuthorizeClaimSignature)
	AttestSelector           = selector(AttestSignature)
	VerifyClaimSelector      = selector(VerifyClaimSignature)
	IsValidSignatureSelector = selector(IsValidSignatureSignature)
)

func selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var (
	bytes32Type   = mustType("bytes32")
	bytes12Type   = mustType("bytes12")
	addressType   = mustType("address")
	uint256Type   = mustType("uint256")
	idsAmountType = mustType("uint256[2][]")
	bytesType     = mustType("bytes")

	authorizeClaimArgs = abi.Arguments{
		{Name: "claimHash", Type: bytes32Type},
		{Name: "arbiter", Type: addressType},
		{Name: "sponsor", Type: addressType},
		{Name: "nonce", Type: uint256Type},
		{Name: "expires", Type: uint256Type},
		{Name: "idsAndAmounts", Type: idsAmountType},
		{Name: "allocatorData", Type: bytesType},
	}
	attestArgs = abi.Arguments{
		{Name: "operator", Type: addressType},
		{Name: "from", Type: addressType},
		{Name: "to", Type: addressType},
		{Name: "id", Type: uint256Type},
		{Name: "amount", Type: uint256Type},
	}
	verifyClaimArgs = abi.Arguments{
		{Name: "sponsor", Type: addressType},
		{Name: "digest", Type: bytes32Type},
		{Name: "claimHash", Type: bytes32Type},
		{Name: "signature", Type: bytesType},
		{Name: "lockTag", Type: bytes12Type},
	}
	isValidSignatureArgs = abi.Arguments{
		{Name: "hash", Type: bytes32Type},
		{Name: "signature", Type: bytesType},
	}
)

func bigOf(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

func u256Of(v *big.Int) (*uint256.Int, error) {
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("value %s overflows uint256", v)
	}
	return out, nil
}

func withSelector(sel [4]byte, packed []byte) []byte {
	return append(append(make([]byte, 0, 4+len(packed)), sel[:]...), packed...)
}

func checkSelector(sel [4]byte, input []byte) ([]byte, error) {
	if len(input) < 4 || !bytes.Equal(input[:4], sel[:]) {
		return nil, fmt.Errorf("unexpected selector %x", input[:min(4, len(input))])
	}
	return input[4:], nil
}

// AuthorizeClaimRequest is the payload sent to an allocator's authorizeClaim.
type AuthorizeClaimRequest struct {
	ClaimHash     common.Hash
	Arbiter       common.Address
	Sponsor       common.Address
	Nonce         *uint256.Int
	Expires       *uint256.Int
	IdsAndAmounts [][2]*uint256.Int
	AllocatorData []byte
}

func (r AuthorizeClaimRequest) Pack() ([]byte, error) {
	pairs := make([][2]*big.Int, len(r.IdsAndAmounts))
	for i, p := range r.IdsAndAmounts {
		pairs[i] = [2]*big.Int{bigOf(p[0]), bigOf(p[1])}
	}
	data := r.AllocatorData
	if data == nil {
		data = []byte{}
	}
	packed, err := authorizeClaimArgs.Pack([32]byte(r.ClaimHash), r.Arbiter, r.Sponsor, bigOf(r.Nonce), bigOf(r.Expires), pairs, data)
	if err != nil {
		return nil, fmt.Errorf("pack authorizeClaim: %w", err)
	}
	return withSelector(AuthorizeClaimSelector, packed), nil
}

// UnpackAuthorizeClaim decodes authorizeClaim calldata, selector included.
func UnpackAuthorizeClaim(input []byte) (AuthorizeClaimRequest, error) {
	args, err := checkSelector(AuthorizeClaimSelector, input)
	if err != nil {
		return AuthorizeClaimRequest{}, err
	}
	values, err := authorizeClaimArgs.Unpack(args)
	if err != nil {
		return AuthorizeClaimRequest{}, fmt.Errorf("unpack authorizeClaim: %w", err)
	}
	req := AuthorizeClaimRequest{
		ClaimHash:     common.Hash(values[0].([32]byte)),
		Arbiter:       values[1].(common.Address),
		Sponsor:       values[2].(common.Address),
		AllocatorData: values[6].([]byte),
	}
	if req.Nonce, err = u256Of(values[3].(*big.Int)); err != nil {
		return AuthorizeClaimRequest{}, err
	}
	if req.Expires, err = u256Of(values[4].(*big.Int)); err != nil {
		return AuthorizeClaimRequest{}, err
	}
	for _, p := range values[5].([][2]*big.Int) {
		id, err := u256Of(p[0])
		if err != nil {
			return AuthorizeClaimRequest{}, err
		}
		amount, err := u256Of(p[1])
		if err != nil {
			return AuthorizeClaimRequest{}, err
		}
		req.IdsAndAmounts = append(req.IdsAndAmounts, [2]*uint256.Int{id, amount})
	}
	return req, nil
}

// AttestRequest is the payload sent to an allocator's attest endpoint before
// a direct transfer of a locked balance.
type AttestRequest struct {
	Operator common.Address
	From     common.Address
	To       common.Address
	ID       LockID
	Amount   *uint256.Int
}

func (r AttestRequest) Pack() ([]byte, error) {
	packed, err := attestArgs.Pack(r.Operator, r.From, r.To, r.ID.Uint256().ToBig(), bigOf(r.Amount))
	if err != nil {
		return nil, fmt.Errorf("pack attest: %w", err)
	}
	return withSelector(AttestSelector, packed), nil
}

func UnpackAttest(input []byte) (AttestRequest, error) {
	args, err := checkSelector(AttestSelector, input)
	if err != nil {
		return AttestRequest{}, err
	}
	values, err := attestArgs.Unpack(args)
	if err != nil {
		return AttestRequest{}, fmt.Errorf("unpack attest: %w", err)
	}
	id, err := u256Of(values[3].(*big.Int))
	if err != nil {
		return AttestRequest{}, err
	}
	amount, err := u256Of(values[4].(*big.Int))
	if err != nil {
		return AttestRequest{}, err
	}
	return AttestRequest{
		Operator: values[0].(common.Address),
		From:     values[1].(common.Address),
		To:       values[2].(common.Address),
		ID:       LockIDFromUint256(id),
		Amount:   amount,
	}, nil
}

// VerifyClaimRequest is the payload sent to a sponsor's emissary.
type VerifyClaimRequest struct {
	Sponsor   common.Address
	Digest    common.Hash
	ClaimHash common.Hash
	Signature []byte
	LockTag   LockTag
}

func (r VerifyClaimRequest) Pack() ([]byte, error) {
	sig := r.Signature
	if sig == nil {
		sig = []byte{}
	}
	packed, err := verifyClaimArgs.Pack(r.Sponsor, [32]byte(r.Digest), [32]byte(r.ClaimHash), sig, [12]byte(r.LockTag))
	if err != nil {
		return nil, fmt.Errorf("pack verifyClaim: %w", err)
	}
	return withSelector(VerifyClaimSelector, packed), nil
}

func UnpackVerifyClaim(input []byte) (VerifyClaimRequest, error) {
	args, err := checkSelector(VerifyClaimSelector, input)
	if err != nil {
		return VerifyClaimRequest{}, err
	}
	values, err := verifyClaimArgs.Unpack(args)
	if err != nil {
		return VerifyClaimRequest{}, fmt.Errorf("unpack verifyClaim: %w", err)
	}
	return VerifyClaimRequest{
		Sponsor:   values[0].(common.Address),
		Digest:    common.Hash(values[1].([32]byte)),
		ClaimHash: common.Hash(values[2].([32]byte)),
		Signature: values[3].([]byte),
		LockTag:   LockTag(values[4].([12]byte)),
	}, nil
}

// IsValidSignatureRequest is an ERC-1271 signature check.
type IsValidSignatureRequest struct {
	Hash      common.Hash
	Signature []byte
}

func (r IsValidSignatureRequest) Pack() ([]byte, error) {
	sig := r.Signature
	if sig == nil {
		sig = []byte{}
	}
	packed, err := isValidSignatureArgs.Pack([32]byte(r.Hash), sig)
	if err != nil {
		return nil, fmt.Errorf("pack isValidSignature: %w", err)
	}
	return withSelector(IsValidSignatureSelector, packed), nil
}

func UnpackIsValidSignature(input []byte) (IsValidSignatureRequest, error) {
	args, err := checkSelector(IsValidSignatureSelector, input)
	if err != nil {
		return IsValidSignatureRequest{}, err
	}
	values, err := isValidSignatureArgs.Unpack(args)
	if err != nil {
		return IsValidSignatureRequest{}, fmt.Errorf("unpack isValidSignature: %w", err)
	}
	return IsValidSignatureRequest{
		Hash:      common.Hash(values[0].([32]byte)),
		Signature: values[1].([]byte),
	}, nil
}

// MagicValue returns sel encoded as an ABI bytes4 return value.
func MagicValue(sel [4]byte) []byte {
	out := make([]byte, 32)
	copy(out, sel[:])
	return out
}

// IsMagicValue reports whether ret is exactly the ABI encoding of sel.
func IsMagicValue(ret []byte, sel [4]byte) bool {
	return len(ret) >= 32 && bytes.Equal(ret[:32], MagicValue(sel))
}

package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestSelectors(t *testing.T) {
	require.Equal(t, [4]byte{0x16, 0x26, 0xba, 0x7e}, IsValidSignatureSelector)
	require.Equal(t, crypto.Keccak256([]byte(AuthorizeClaimSignature))[:4], AuthorizeClaimSelector[:])
	require.Equal(t, crypto.Keccak256([]byte(AttestSignature))[:4], AttestSelector[:])
	require.Equal(t, crypto.Keccak256([]byte(VerifyClaimSignature))[:4], VerifyClaimSelector[:])
}

func TestAuthorizeClaimRoundTrip(t *testing.T) {
	id := NewLockID(testTag, testToken)
	req := AuthorizeClaimRequest{
		ClaimHash:     common.HexToHash("0xc1a1"),
		Arbiter:       testArbiter,
		Sponsor:       testSponsor,
		Nonce:         uint256.NewInt(9),
		Expires:       uint256.NewInt(1_700_000_600),
		IdsAndAmounts: [][2]*uint256.Int{{id.Uint256(), uint256.NewInt(100)}, {uint256.NewInt(1), new(uint256.Int).SetAllOne()}},
		AllocatorData: []byte{0xde, 0xad},
	}
	input, err := req.Pack()
	require.NoError(t, err)
	require.Equal(t, AuthorizeClaimSelector[:], input[:4])

	got, err := UnpackAuthorizeClaim(input)
	require.NoError(t, err)
	require.Equal(t, req, got)

	_, err = UnpackAttest(input)
	require.Error(t, err)
	_, err = UnpackAuthorizeClaim(input[:3])
	require.Error(t, err)
}

func TestAttestRoundTrip(t *testing.T) {
	req := AttestRequest{
		Operator: testArbiter,
		From:     testSponsor,
		To:       testToken,
		ID:       NewLockID(testTag, testToken),
		Amount:   uint256.NewInt(42),
	}
	input, err := req.Pack()
	require.NoError(t, err)
	got, err := UnpackAttest(input)
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestVerifyClaimRoundTrip(t *testing.T) {
	req := VerifyClaimRequest{
		Sponsor:   testSponsor,
		Digest:    common.HexToHash("0xd1"),
		ClaimHash: common.HexToHash("0xc1"),
		Signature: []byte{1, 2, 3},
		LockTag:   testTag,
	}
	input, err := req.Pack()
	require.NoError(t, err)
	got, err := UnpackVerifyClaim(input)
	require.NoError(t, err)
	require.Equal(t, req, got)

	// A missing signature is sent as empty bytes.
	req.Signature = nil
	input, err = req.Pack()
	require.NoError(t, err)
	got, err = UnpackVerifyClaim(input)
	require.NoError(t, err)
	require.Empty(t, got.Signature)
}

func TestIsValidSignatureRoundTrip(t *testing.T) {
	req := IsValidSignatureRequest{Hash: common.HexToHash("0xd1"), Signature: []byte{9}}
	input, err := req.Pack()
	require.NoError(t, err)
	got, err := UnpackIsValidSignature(input)
	require.NoError(t, err)
	require.Equal(t, req, got)
}

func TestMagicValue(t *testing.T) {
	magic := MagicValue(AttestSelector)
	require.Len(t, magic, 32)
	require.True(t, IsMagicValue(magic, AttestSelector))
	require.False(t, IsMagicValue(magic, AuthorizeClaimSelector))
	require.False(t, IsMagicValue(magic[:4], AttestSelector))
	require.False(t, IsMagicValue(nil, AttestSelector))

	dirty := append([]byte(nil), magic...)
	dirty[31] = 1
	require.False(t, IsMagicValue(dirty, AttestSelector))
}

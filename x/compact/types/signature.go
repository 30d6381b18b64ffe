package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverSigner recovers the signer of digest from a 65-byte (r, s, v) or
// 64-byte EIP-2098 (r, yParityAndS) signature. Malleable high-s signatures
// are rejected.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, bool) {
	var r, s [32]byte
	var v byte
	switch len(sig) {
	case 65:
		copy(r[:], sig[:32])
		copy(s[:], sig[32:64])
		v = sig[64]
		if v >= 27 {
			v -= 27
		}
	case 64:
		copy(r[:], sig[:32])
		copy(s[:], sig[32:])
		v = s[0] >> 7
		s[0] &= 0x7f
	default:
		return common.Address{}, false
	}
	if !crypto.ValidateSignatureValues(v, new(big.Int).SetBytes(r[:]), new(big.Int).SetBytes(s[:]), true) {
		return common.Address{}, false
	}
	normalized := make([]byte, 65)
	copy(normalized[:32], r[:])
	copy(normalized[32:64], s[:])
	normalized[64] = v
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, false
	}
	return crypto.PubkeyToAddress(*pub), true
}

// CompactSignature converts a 65-byte signature to its EIP-2098 form.
func CompactSignature(sig []byte) []byte {
	if len(sig) != 65 {
		return nil
	}
	out := make([]byte, 64)
	copy(out, sig[:64])
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v == 1 {
		out[32] |= 0x80
	}
	return out
}

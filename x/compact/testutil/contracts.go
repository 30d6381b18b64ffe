package testutil

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"compactvault/x/compact/types"
)

// deniedValue is a well-formed bytes4 return that is not a magic value.
var deniedValue = make([]byte, 32)

func selectorOf(input []byte) [4]byte {
	var sel [4]byte
	copy(sel[:], input)
	return sel
}

// MockAllocator answers authorizeClaim and attest. By default it approves
// everything; Deny returns a non-magic value and RevertData reverts.
type MockAllocator struct {
	Deny       bool
	RevertData []byte
	Revert     bool

	// OnAuthorize runs before the answer is produced; a non-nil error is
	// returned from the call.
	OnAuthorize func(ctx context.Context, req types.AuthorizeClaimRequest) error

	Authorizations []types.AuthorizeClaimRequest
	Attestations   []types.AttestRequest
}

func (a *MockAllocator) answer(sel [4]byte) ([]byte, error) {
	switch {
	case a.Revert || len(a.RevertData) > 0:
		return nil, &types.RevertError{Data: a.RevertData}
	case a.Deny:
		return deniedValue, nil
	default:
		return types.MagicValue(sel), nil
	}
}

func (a *MockAllocator) Call(ctx context.Context, _ common.Address, input []byte) ([]byte, error) {
	switch sel := selectorOf(input); sel {
	case types.AuthorizeClaimSelector:
		req, err := types.UnpackAuthorizeClaim(input)
		if err != nil {
			return nil, &types.RevertError{}
		}
		a.Authorizations = append(a.Authorizations, req)
		if a.OnAuthorize != nil {
			if err := a.OnAuthorize(ctx, req); err != nil {
				return nil, err
			}
		}
		return a.answer(sel)
	case types.AttestSelector:
		req, err := types.UnpackAttest(input)
		if err != nil {
			return nil, &types.RevertError{}
		}
		a.Attestations = append(a.Attestations, req)
		return a.answer(sel)
	default:
		return nil, &types.RevertError{}
	}
}

// MockEmissary answers verifyClaim with Approve.
type MockEmissary struct {
	Approve    bool
	RevertData []byte

	Verifications []types.VerifyClaimRequest
}

func (e *MockEmissary) Call(_ context.Context, _ common.Address, input []byte) ([]byte, error) {
	req, err := types.UnpackVerifyClaim(input)
	if err != nil {
		return nil, &types.RevertError{}
	}
	e.Verifications = append(e.Verifications, req)
	switch {
	case len(e.RevertData) > 0:
		return nil, &types.RevertError{Data: e.RevertData}
	case e.Approve:
		return types.MagicValue(types.VerifyClaimSelector), nil
	default:
		return deniedValue, nil
	}
}

// MockERC1271 is a contract sponsor that approves digests signed by Owner.
type MockERC1271 struct {
	Owner *ecdsa.PrivateKey
}

func (w *MockERC1271) Call(_ context.Context, _ common.Address, input []byte) ([]byte, error) {
	req, err := types.UnpackIsValidSignature(input)
	if err != nil {
		return nil, &types.RevertError{}
	}
	signer, ok := types.RecoverSigner(req.Hash, req.Signature)
	if ok && bytes.Equal(signer.Bytes(), crypto.PubkeyToAddress(w.Owner.PublicKey).Bytes()) {
		return types.MagicValue(types.IsValidSignatureSelector), nil
	}
	return deniedValue, nil
}

// SignDigest signs the EIP-712 digest of claimHash under domainSeparator.
func SignDigest(key *ecdsa.PrivateKey, domainSeparator, claimHash common.Hash) []byte {
	sig, err := crypto.Sign(types.Digest(domainSeparator, claimHash).Bytes(), key)
	if err != nil {
		panic(fmt.Errorf("failed to sign digest: %w", err))
	}
	return sig
}

package precompile

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"compactvault/x/compact/types"
)

// Calldata mirrors. abi.ConvertType fills struct fields by position, so the
// field order follows the tuple definitions in abi.go. A mirror may carry
// trailing fields that a shorter tuple leaves unset.

type ComponentArgs struct {
	Claimant *big.Int
	Amount   *big.Int
}

type BatchClaimComponentArgs struct {
	Id              *big.Int
	AllocatedAmount *big.Int
	Portions        []ComponentArgs
}

// ClaimArgs covers claim, multichainClaim and exogenousClaim.
type ClaimArgs struct {
	AllocatorData     []byte
	SponsorSignature  []byte
	Sponsor           common.Address
	Nonce             *big.Int
	Expires           *big.Int
	Witness           [32]byte
	WitnessTypestring string
	Id                *big.Int
	AllocatedAmount   *big.Int
	Claimants         []ComponentArgs
	AdditionalChains  [][32]byte
	ChainIndex        *big.Int
	NotarizedChainId  *big.Int
}

// BatchClaimArgs covers batchClaim, batchMultichainClaim and exogenousBatchClaim.
type BatchClaimArgs struct {
	AllocatorData     []byte
	SponsorSignature  []byte
	Sponsor           common.Address
	Nonce             *big.Int
	Expires           *big.Int
	Witness           [32]byte
	WitnessTypestring string
	Claims            []BatchClaimComponentArgs
	AdditionalChains  [][32]byte
	ChainIndex        *big.Int
	NotarizedChainId  *big.Int
}

type TransferArgs struct {
	AllocatorData []byte
	Nonce         *big.Int
	Expires       *big.Int
	Id            *big.Int
	Recipients    []ComponentArgs
}

type TransferComponentArgs struct {
	Id       *big.Int
	Portions []ComponentArgs
}

type BatchTransferArgs struct {
	AllocatorData []byte
	Nonce         *big.Int
	Expires       *big.Int
	Transfers     []TransferComponentArgs
}

// convert copies an unpacked tuple into proto. abi.ConvertType panics on a
// shape mismatch; that is reported as a decoding error.
func convert[T any](in interface{}) (out *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode calldata: %v", r)
		}
	}()
	return abi.ConvertType(in, new(T)).(*T), nil
}

func u256(v *big.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return uint256.MustFromBig(v)
}

func lockID(v *big.Int) types.LockID {
	return types.LockIDFromUint256(u256(v))
}

func hashes(in [][32]byte) []common.Hash {
	out := make([]common.Hash, len(in))
	for i, h := range in {
		out[i] = common.Hash(h)
	}
	return out
}

func components(in []ComponentArgs) []types.Component {
	out := make([]types.Component, len(in))
	for i, c := range in {
		out[i] = types.Component{Claimant: u256(c.Claimant), Amount: u256(c.Amount)}
	}
	return out
}

func batchComponents(in []BatchClaimComponentArgs) []types.BatchClaimComponent {
	out := make([]types.BatchClaimComponent, len(in))
	for i, c := range in {
		out[i] = types.BatchClaimComponent{
			ID:              lockID(c.Id),
			AllocatedAmount: u256(c.AllocatedAmount),
			Portions:        components(c.Portions),
		}
	}
	return out
}

func sponsorship(allocatorData, signature []byte, sponsor common.Address, nonce, expires *big.Int, witness [32]byte, witnessTypestring string) types.Sponsorship {
	return types.Sponsorship{
		AllocatorData:     allocatorData,
		SponsorSignature:  signature,
		Sponsor:           sponsor,
		Nonce:             u256(nonce),
		Expires:           u256(expires),
		Witness:           common.Hash(witness),
		WitnessTypestring: witnessTypestring,
	}
}

func (a ClaimArgs) sponsorship() types.Sponsorship {
	return sponsorship(a.AllocatorData, a.SponsorSignature, a.Sponsor, a.Nonce, a.Expires, a.Witness, a.WitnessTypestring)
}

func (a BatchClaimArgs) sponsorship() types.Sponsorship {
	return sponsorship(a.AllocatorData, a.SponsorSignature, a.Sponsor, a.Nonce, a.Expires, a.Witness, a.WitnessTypestring)
}

// payloadFor decodes the tuple argument of a claim or allocated transfer
// method into its payload.
func payloadFor(name string, tuple interface{}) (types.Payload, error) {
	switch name {
	case "claim", "multichainClaim", "exogenousClaim":
		a, err := convert[ClaimArgs](tuple)
		if err != nil {
			return nil, err
		}
		id, amount, claimants := lockID(a.Id), u256(a.AllocatedAmount), components(a.Claimants)
		switch name {
		case "claim":
			return &types.Claim{Sponsorship: a.sponsorship(), ID: id, AllocatedAmount: amount, Claimants: claimants}, nil
		case "multichainClaim":
			return &types.MultichainClaim{
				Sponsorship:      a.sponsorship(),
				ID:               id,
				AllocatedAmount:  amount,
				Claimants:        claimants,
				AdditionalChains: hashes(a.AdditionalChains),
			}, nil
		default:
			return &types.ExogenousMultichainClaim{
				Sponsorship:      a.sponsorship(),
				ID:               id,
				AllocatedAmount:  amount,
				Claimants:        claimants,
				AdditionalChains: hashes(a.AdditionalChains),
				ChainIndex:       u256(a.ChainIndex),
				NotarizedChainID: u256(a.NotarizedChainId),
			}, nil
		}

	case "batchClaim", "batchMultichainClaim", "exogenousBatchClaim":
		a, err := convert[BatchClaimArgs](tuple)
		if err != nil {
			return nil, err
		}
		claims := batchComponents(a.Claims)
		switch name {
		case "batchClaim":
			return &types.BatchClaim{Sponsorship: a.sponsorship(), Claims: claims}, nil
		case "batchMultichainClaim":
			return &types.BatchMultichainClaim{Sponsorship: a.sponsorship(), Claims: claims, AdditionalChains: hashes(a.AdditionalChains)}, nil
		default:
			return &types.ExogenousBatchMultichainClaim{
				Sponsorship:      a.sponsorship(),
				Claims:           claims,
				AdditionalChains: hashes(a.AdditionalChains),
				ChainIndex:       u256(a.ChainIndex),
				NotarizedChainID: u256(a.NotarizedChainId),
			}, nil
		}

	case "allocatedTransfer":
		a, err := convert[TransferArgs](tuple)
		if err != nil {
			return nil, err
		}
		return &types.AllocatedTransfer{
			AllocatorData: a.AllocatorData,
			Nonce:         u256(a.Nonce),
			Expires:       u256(a.Expires),
			ID:            lockID(a.Id),
			Recipients:    components(a.Recipients),
		}, nil

	case "allocatedBatchTransfer":
		a, err := convert[BatchTransferArgs](tuple)
		if err != nil {
			return nil, err
		}
		transfers := make([]types.TransferComponent, len(a.Transfers))
		for i, t := range a.Transfers {
			transfers[i] = types.TransferComponent{ID: lockID(t.Id), Portions: components(t.Portions)}
		}
		return &types.AllocatedBatchTransfer{
			AllocatorData: a.AllocatorData,
			Nonce:         u256(a.Nonce),
			Expires:       u256(a.Expires),
			Transfers:     transfers,
		}, nil
	}
	return nil, fmt.Errorf("%s is not a claim method", name)
}

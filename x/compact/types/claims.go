package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// ClaimKind enumerates the payload shapes accepted by the claim pipeline.
type ClaimKind uint8

const (
	KindTransfer ClaimKind = iota + 1
	KindBatchTransfer
	KindClaim
	KindBatchClaim
	KindMultichainClaim
	KindExogenousMultichainClaim
	KindBatchMultichainClaim
	KindExogenousBatchMultichainClaim
)

var claimKindNames = map[ClaimKind]string{
	KindTransfer:                      "transfer",
	KindBatchTransfer:                 "batch-transfer",
	KindClaim:                         "claim",
	KindBatchClaim:                    "batch-claim",
	KindMultichainClaim:               "multichain-claim",
	KindExogenousMultichainClaim:      "exogenous-multichain-claim",
	KindBatchMultichainClaim:          "batch-multichain-claim",
	KindExogenousBatchMultichainClaim: "exogenous-batch-multichain-claim",
}

func (k ClaimKind) String() string {
	if name, ok := claimKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsTransfer reports whether the caller acts as its own sponsor.
func (k ClaimKind) IsTransfer() bool {
	return k == KindTransfer || k == KindBatchTransfer
}

// ParseClaimKind resolves a kind from its String form.
func ParseClaimKind(s string) (ClaimKind, error) {
	for k, name := range claimKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown claim kind %q", s)
}

// NewPayload returns an empty payload of the given kind, ready to be decoded into.
func NewPayload(kind ClaimKind) (Payload, error) {
	switch kind {
	case KindTransfer:
		return &AllocatedTransfer{}, nil
	case KindBatchTransfer:
		return &AllocatedBatchTransfer{}, nil
	case KindClaim:
		return &Claim{}, nil
	case KindBatchClaim:
		return &BatchClaim{}, nil
	case KindMultichainClaim:
		return &MultichainClaim{}, nil
	case KindExogenousMultichainClaim:
		return &ExogenousMultichainClaim{}, nil
	case KindBatchMultichainClaim:
		return &BatchMultichainClaim{}, nil
	case KindExogenousBatchMultichainClaim:
		return &ExogenousBatchMultichainClaim{}, nil
	default:
		return nil, fmt.Errorf("unknown claim kind %d", kind)
	}
}

// Component assigns Amount to Claimant, which packs a lock tag (12 bytes)
// and a recipient address (20 bytes).
type Component struct {
	Claimant *uint256.Int `json:"claimant"`
	Amount   *uint256.Int `json:"amount"`
}

// NewComponent packs a claimant from its lock tag and recipient.
func NewComponent(tag LockTag, recipient common.Address, amount *uint256.Int) Component {
	var b [32]byte
	copy(b[:12], tag[:])
	copy(b[12:], recipient[:])
	return Component{Claimant: new(uint256.Int).SetBytes32(b[:]), Amount: amount}
}

// LockTag is the destination lock tag; zero means withdraw the underlying asset.
func (c Component) LockTag() LockTag {
	var tag LockTag
	if c.Claimant == nil {
		return tag
	}
	b := c.Claimant.Bytes32()
	copy(tag[:], b[:12])
	return tag
}

func (c Component) Recipient() common.Address {
	if c.Claimant == nil {
		return common.Address{}
	}
	b := c.Claimant.Bytes32()
	return common.BytesToAddress(b[12:])
}

// Settlement is one lock of a claim with its allocated amount and the
// components it is distributed to.
type Settlement struct {
	ID              LockID
	AllocatedAmount *uint256.Int
	Components      []Component
}

// Envelope is the shape-independent view of a payload consumed by the
// validator and distribution processor.
type Envelope struct {
	Kind             ClaimKind
	ClaimHash        common.Hash
	Typehash         common.Hash
	Arbiter          common.Address
	Sponsor          common.Address
	Nonce            *uint256.Int
	Expires          *uint256.Int
	AllocatorData    []byte
	SponsorSignature []byte
	NotarizedChainID *uint256.Int
	Settlements      []Settlement
}

// Exogenous reports whether the claim was notarized on another chain.
func (e Envelope) Exogenous() bool {
	return e.NotarizedChainID != nil
}

// IdsAndAmounts lists (id, allocatedAmount) pairs in settlement order.
func (e Envelope) IdsAndAmounts() [][2]*uint256.Int {
	out := make([][2]*uint256.Int, len(e.Settlements))
	for i, s := range e.Settlements {
		out[i] = [2]*uint256.Int{s.ID.Uint256(), s.AllocatedAmount}
	}
	return out
}

// Payload is implemented by every claim shape. Open derives the claim hash
// and flattens the payload for the given caller and local chain id.
type Payload interface {
	Kind() ClaimKind
	Open(caller common.Address, chainID *uint256.Int) (Envelope, error)
}

// Sponsorship holds the fields shared by all sponsor-signed claims.
type Sponsorship struct {
	AllocatorData     hexutil.Bytes  `json:"allocatorData"`
	SponsorSignature  hexutil.Bytes  `json:"sponsorSignature"`
	Sponsor           common.Address `json:"sponsor"`
	Nonce             *uint256.Int   `json:"nonce"`
	Expires           *uint256.Int   `json:"expires"`
	Witness           common.Hash    `json:"witness"`
	WitnessTypestring string         `json:"witnessTypestring"`
}

func (s Sponsorship) envelope(kind ClaimKind, arbiter common.Address) Envelope {
	return Envelope{
		Kind:             kind,
		Arbiter:          arbiter,
		Sponsor:          s.Sponsor,
		Nonce:            orZero(s.Nonce),
		Expires:          orZero(s.Expires),
		AllocatorData:    s.AllocatorData,
		SponsorSignature: s.SponsorSignature,
	}
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// BatchClaimComponent is one lock of a batch claim.
type BatchClaimComponent struct {
	ID              LockID       `json:"id"`
	AllocatedAmount *uint256.Int `json:"allocatedAmount"`
	Portions        []Component  `json:"portions"`
}

func (c BatchClaimComponent) lock() Lock {
	return Lock{LockTag: c.ID.Tag, Token: c.ID.Token, Amount: orZero(c.AllocatedAmount)}
}

func (c BatchClaimComponent) settlement() Settlement {
	return Settlement{ID: c.ID, AllocatedAmount: orZero(c.AllocatedAmount), Components: c.Portions}
}

func batchLocks(claims []BatchClaimComponent) ([]Lock, []Settlement, error) {
	if len(claims) == 0 {
		return nil, nil, ErrNoIdsAndAmountsProvided
	}
	locks := make([]Lock, len(claims))
	settlements := make([]Settlement, len(claims))
	for i, c := range claims {
		locks[i] = c.lock()
		settlements[i] = c.settlement()
	}
	return locks, settlements, nil
}

// Claim settles a single lock signed on this chain.
type Claim struct {
	Sponsorship
	ID              LockID       `json:"id"`
	AllocatedAmount *uint256.Int `json:"allocatedAmount"`
	Claimants       []Component  `json:"claimants"`
}

func (c *Claim) Kind() ClaimKind { return KindClaim }

func (c *Claim) Open(caller common.Address, _ *uint256.Int) (Envelope, error) {
	env := c.envelope(KindClaim, caller)
	amount := orZero(c.AllocatedAmount)
	env.ClaimHash, env.Typehash = HashCompact(CompactHashInput{
		Arbiter:           caller,
		Sponsor:           c.Sponsor,
		Nonce:             env.Nonce,
		Expires:           env.Expires,
		Lock:              Lock{LockTag: c.ID.Tag, Token: c.ID.Token, Amount: amount},
		Witness:           c.Witness,
		WitnessTypestring: c.WitnessTypestring,
	})
	env.Settlements = []Settlement{{ID: c.ID, AllocatedAmount: amount, Components: c.Claimants}}
	return env, nil
}

// BatchClaim settles several locks signed together on this chain.
type BatchClaim struct {
	Sponsorship
	Claims []BatchClaimComponent `json:"claims"`
}

func (c *BatchClaim) Kind() ClaimKind { return KindBatchClaim }

func (c *BatchClaim) Open(caller common.Address, _ *uint256.Int) (Envelope, error) {
	locks, settlements, err := batchLocks(c.Claims)
	if err != nil {
		return Envelope{}, err
	}
	env := c.envelope(KindBatchClaim, caller)
	env.ClaimHash, env.Typehash = HashBatchCompact(BatchCompactHashInput{
		Arbiter:           caller,
		Sponsor:           c.Sponsor,
		Nonce:             env.Nonce,
		Expires:           env.Expires,
		Commitments:       locks,
		Witness:           c.Witness,
		WitnessTypestring: c.WitnessTypestring,
	})
	env.Settlements = settlements
	return env, nil
}

// multichain hashes the local element and folds it into the element hashes
// of the other chains at position index.
func multichain(s Sponsorship, caller common.Address, chainID *uint256.Int, locks []Lock, additional []common.Hash, index int) (claimHash, typehash common.Hash) {
	local := HashElement(ElementHashInput{
		Arbiter:           caller,
		ChainID:           chainID,
		Commitments:       locks,
		Witness:           s.Witness,
		WitnessTypestring: s.WitnessTypestring,
	})
	elements := make([]common.Hash, 0, len(additional)+1)
	elements = append(elements, additional[:index]...)
	elements = append(elements, local)
	elements = append(elements, additional[index:]...)
	return HashMultichainCompact(s.Sponsor, orZero(s.Nonce), orZero(s.Expires), elements, s.WitnessTypestring)
}

// exogenousIndex locates the local element after the notarized chain's
// element, which always leads additionalChains.
func exogenousIndex(chainIndex *uint256.Int, additional []common.Hash) (int, error) {
	if chainIndex == nil {
		chainIndex = new(uint256.Int)
	}
	if !chainIndex.IsUint64() || chainIndex.Uint64() >= uint64(len(additional)) {
		return 0, ErrChainIndexOutOfRange
	}
	return int(chainIndex.Uint64()) + 1, nil
}

// MultichainClaim settles the local lock of a compact spanning several
// chains, notarized on this chain. The local element comes first.
type MultichainClaim struct {
	Sponsorship
	ID               LockID        `json:"id"`
	AllocatedAmount  *uint256.Int  `json:"allocatedAmount"`
	Claimants        []Component   `json:"claimants"`
	AdditionalChains []common.Hash `json:"additionalChains"`
}

func (c *MultichainClaim) Kind() ClaimKind { return KindMultichainClaim }

func (c *MultichainClaim) Open(caller common.Address, chainID *uint256.Int) (Envelope, error) {
	env := c.envelope(KindMultichainClaim, caller)
	amount := orZero(c.AllocatedAmount)
	locks := []Lock{{LockTag: c.ID.Tag, Token: c.ID.Token, Amount: amount}}
	env.ClaimHash, env.Typehash = multichain(c.Sponsorship, caller, chainID, locks, c.AdditionalChains, 0)
	env.Settlements = []Settlement{{ID: c.ID, AllocatedAmount: amount, Components: c.Claimants}}
	return env, nil
}

// ExogenousMultichainClaim settles the local lock of a multichain compact
// notarized on NotarizedChainID.
type ExogenousMultichainClaim struct {
	Sponsorship
	ID               LockID        `json:"id"`
	AllocatedAmount  *uint256.Int  `json:"allocatedAmount"`
	Claimants        []Component   `json:"claimants"`
	AdditionalChains []common.Hash `json:"additionalChains"`
	ChainIndex       *uint256.Int  `json:"chainIndex"`
	NotarizedChainID *uint256.Int  `json:"notarizedChainId"`
}

func (c *ExogenousMultichainClaim) Kind() ClaimKind { return KindExogenousMultichainClaim }

func (c *ExogenousMultichainClaim) Open(caller common.Address, chainID *uint256.Int) (Envelope, error) {
	index, err := exogenousIndex(c.ChainIndex, c.AdditionalChains)
	if err != nil {
		return Envelope{}, err
	}
	env := c.envelope(KindExogenousMultichainClaim, caller)
	amount := orZero(c.AllocatedAmount)
	locks := []Lock{{LockTag: c.ID.Tag, Token: c.ID.Token, Amount: amount}}
	env.ClaimHash, env.Typehash = multichain(c.Sponsorship, caller, chainID, locks, c.AdditionalChains, index)
	env.NotarizedChainID = orZero(c.NotarizedChainID)
	env.Settlements = []Settlement{{ID: c.ID, AllocatedAmount: amount, Components: c.Claimants}}
	return env, nil
}

// BatchMultichainClaim settles several local locks of a multichain compact
// notarized on this chain.
type BatchMultichainClaim struct {
	Sponsorship
	Claims           []BatchClaimComponent `json:"claims"`
	AdditionalChains []common.Hash         `json:"additionalChains"`
}

func (c *BatchMultichainClaim) Kind() ClaimKind { return KindBatchMultichainClaim }

func (c *BatchMultichainClaim) Open(caller common.Address, chainID *uint256.Int) (Envelope, error) {
	locks, settlements, err := batchLocks(c.Claims)
	if err != nil {
		return Envelope{}, err
	}
	env := c.envelope(KindBatchMultichainClaim, caller)
	env.ClaimHash, env.Typehash = multichain(c.Sponsorship, caller, chainID, locks, c.AdditionalChains, 0)
	env.Settlements = settlements
	return env, nil
}

// ExogenousBatchMultichainClaim settles several local locks of a multichain
// compact notarized on NotarizedChainID.
type ExogenousBatchMultichainClaim struct {
	Sponsorship
	Claims           []BatchClaimComponent `json:"claims"`
	AdditionalChains []common.Hash         `json:"additionalChains"`
	ChainIndex       *uint256.Int          `json:"chainIndex"`
	NotarizedChainID *uint256.Int          `json:"notarizedChainId"`
}

func (c *ExogenousBatchMultichainClaim) Kind() ClaimKind { return KindExogenousBatchMultichainClaim }

func (c *ExogenousBatchMultichainClaim) Open(caller common.Address, chainID *uint256.Int) (Envelope, error) {
	index, err := exogenousIndex(c.ChainIndex, c.AdditionalChains)
	if err != nil {
		return Envelope{}, err
	}
	locks, settlements, err := batchLocks(c.Claims)
	if err != nil {
		return Envelope{}, err
	}
	env := c.envelope(KindExogenousBatchMultichainClaim, caller)
	env.ClaimHash, env.Typehash = multichain(c.Sponsorship, caller, chainID, locks, c.AdditionalChains, index)
	env.NotarizedChainID = orZero(c.NotarizedChainID)
	env.Settlements = settlements
	return env, nil
}

// sumComponents totals component amounts, failing on unsigned overflow.
func sumComponents(components []Component) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, c := range components {
		if _, overflow := total.AddOverflow(total, orZero(c.Amount)); overflow {
			return nil, ErrArithmeticOverflow
		}
	}
	return total, nil
}

// AllocatedTransfer moves the caller's balance of one lock to recipients
// with the allocator's authorization. The caller is arbiter and sponsor.
type AllocatedTransfer struct {
	AllocatorData hexutil.Bytes `json:"allocatorData"`
	Nonce         *uint256.Int  `json:"nonce"`
	Expires       *uint256.Int  `json:"expires"`
	ID            LockID        `json:"id"`
	Recipients    []Component   `json:"recipients"`
}

func (t *AllocatedTransfer) Kind() ClaimKind { return KindTransfer }

func (t *AllocatedTransfer) Open(caller common.Address, _ *uint256.Int) (Envelope, error) {
	total, err := sumComponents(t.Recipients)
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{
		Kind:          KindTransfer,
		Arbiter:       caller,
		Sponsor:       caller,
		Nonce:         orZero(t.Nonce),
		Expires:       orZero(t.Expires),
		AllocatorData: t.AllocatorData,
	}
	env.ClaimHash, env.Typehash = HashCompact(CompactHashInput{
		Arbiter: caller,
		Sponsor: caller,
		Nonce:   env.Nonce,
		Expires: env.Expires,
		Lock:    Lock{LockTag: t.ID.Tag, Token: t.ID.Token, Amount: total},
	})
	env.Settlements = []Settlement{{ID: t.ID, AllocatedAmount: total, Components: t.Recipients}}
	return env, nil
}

// TransferComponent is one lock of a batch transfer.
type TransferComponent struct {
	ID       LockID      `json:"id"`
	Portions []Component `json:"portions"`
}

// AllocatedBatchTransfer moves the caller's balances of several locks.
type AllocatedBatchTransfer struct {
	AllocatorData hexutil.Bytes       `json:"allocatorData"`
	Nonce         *uint256.Int        `json:"nonce"`
	Expires       *uint256.Int        `json:"expires"`
	Transfers     []TransferComponent `json:"transfers"`
}

func (t *AllocatedBatchTransfer) Kind() ClaimKind { return KindBatchTransfer }

func (t *AllocatedBatchTransfer) Open(caller common.Address, _ *uint256.Int) (Envelope, error) {
	if len(t.Transfers) == 0 {
		return Envelope{}, ErrNoIdsAndAmountsProvided
	}
	locks := make([]Lock, len(t.Transfers))
	settlements := make([]Settlement, len(t.Transfers))
	for i, tr := range t.Transfers {
		total, err := sumComponents(tr.Portions)
		if err != nil {
			return Envelope{}, err
		}
		locks[i] = Lock{LockTag: tr.ID.Tag, Token: tr.ID.Token, Amount: total}
		settlements[i] = Settlement{ID: tr.ID, AllocatedAmount: total, Components: tr.Portions}
	}
	env := Envelope{
		Kind:          KindBatchTransfer,
		Arbiter:       caller,
		Sponsor:       caller,
		Nonce:         orZero(t.Nonce),
		Expires:       orZero(t.Expires),
		AllocatorData: t.AllocatorData,
	}
	env.ClaimHash, env.Typehash = HashBatchCompact(BatchCompactHashInput{
		Arbiter:     caller,
		Sponsor:     caller,
		Nonce:       env.Nonce,
		Expires:     env.Expires,
		Commitments: locks,
	})
	env.Settlements = settlements
	return env, nil
}

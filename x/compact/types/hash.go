package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EIP-712 domain
const (
	DomainName    = "The Compact"
	DomainVersion = "1"
)

// Type strings. Witness-bearing variants are built by appending a Mandate
// member and the caller's Mandate fields.
const (
	EIP712DomainTypestring = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"

	LockTypestring = "Lock(bytes12 lockTag,address token,uint256 amount)"

	compactFields      = "Compact(address arbiter,address sponsor,uint256 nonce,uint256 expires,bytes12 lockTag,address token,uint256 amount"
	batchCompactFields = "BatchCompact(address arbiter,address sponsor,uint256 nonce,uint256 expires,Lock[] commitments"
	multichainFields   = "MultichainCompact(address sponsor,uint256 nonce,uint256 expires,Element[] elements)"
	elementFields      = "Element(address arbiter,uint256 chainId,Lock[] commitments"
	mandateMember      = ",Mandate mandate)"
	mandatePrefix      = "Mandate("
)

var (
	EIP712DomainTypehash = crypto.Keccak256Hash([]byte(EIP712DomainTypestring))
	LockTypehash         = crypto.Keccak256Hash([]byte(LockTypestring))

	CompactTypehash           = crypto.Keccak256Hash([]byte(CompactTypestring("")))
	BatchCompactTypehash      = crypto.Keccak256Hash([]byte(BatchCompactTypestring("")))
	MultichainCompactTypehash = crypto.Keccak256Hash([]byte(MultichainCompactTypestring("")))
	ElementTypehash           = crypto.Keccak256Hash([]byte(ElementTypestring("")))

	domainNameHash    = crypto.Keccak256Hash([]byte(DomainName))
	domainVersionHash = crypto.Keccak256Hash([]byte(DomainVersion))
)

func mandate(witnessTypestring string) string {
	return mandatePrefix + witnessTypestring + ")"
}

// CompactTypestring returns the Compact type string, extended with a
// Mandate when witnessTypestring is not empty.
func CompactTypestring(witnessTypestring string) string {
	if witnessTypestring == "" {
		return compactFields + ")"
	}
	return compactFields + mandateMember + mandate(witnessTypestring)
}

func BatchCompactTypestring(witnessTypestring string) string {
	if witnessTypestring == "" {
		return batchCompactFields + ")" + LockTypestring
	}
	return batchCompactFields + mandateMember + LockTypestring + mandate(witnessTypestring)
}

func ElementTypestring(witnessTypestring string) string {
	if witnessTypestring == "" {
		return elementFields + ")" + LockTypestring
	}
	return elementFields + mandateMember + LockTypestring + mandate(witnessTypestring)
}

func MultichainCompactTypestring(witnessTypestring string) string {
	return multichainFields + ElementTypestring(witnessTypestring)
}

func typehashOf(static common.Hash, build func(string) string, witnessTypestring string) common.Hash {
	if witnessTypestring == "" {
		return static
	}
	return crypto.Keccak256Hash([]byte(build(witnessTypestring)))
}

func CompactTypehashFor(witnessTypestring string) common.Hash {
	return typehashOf(CompactTypehash, CompactTypestring, witnessTypestring)
}

func BatchCompactTypehashFor(witnessTypestring string) common.Hash {
	return typehashOf(BatchCompactTypehash, BatchCompactTypestring, witnessTypestring)
}

func ElementTypehashFor(witnessTypestring string) common.Hash {
	return typehashOf(ElementTypehash, ElementTypestring, witnessTypestring)
}

func MultichainCompactTypehashFor(witnessTypestring string) common.Hash {
	return typehashOf(MultichainCompactTypehash, MultichainCompactTypestring, witnessTypestring)
}

// Words in the EIP-712 encoding

func addressWord(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

func uintWord(v *uint256.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	b := v.Bytes32()
	return b[:]
}

func tagWord(t LockTag) []byte {
	return common.RightPadBytes(t[:], 32)
}

// Lock is one (lockTag, token, amount) commitment.
type Lock struct {
	LockTag LockTag        `json:"lockTag"`
	Token   common.Address `json:"token"`
	Amount  *uint256.Int   `json:"amount"`
}

// HashLock returns the struct hash of a single commitment.
func HashLock(l Lock) common.Hash {
	return crypto.Keccak256Hash(LockTypehash.Bytes(), tagWord(l.LockTag), addressWord(l.Token), uintWord(l.Amount))
}

// HashCommitments reduces an ordered commitment set to a single hash.
func HashCommitments(locks []Lock) common.Hash {
	hashes := make([][]byte, len(locks))
	for i, l := range locks {
		h := HashLock(l)
		hashes[i] = h.Bytes()
	}
	return crypto.Keccak256Hash(hashes...)
}

// HashElementHashes hashes the concatenation of multichain element hashes.
func HashElementHashes(elements []common.Hash) common.Hash {
	parts := make([][]byte, len(elements))
	for i := range elements {
		parts[i] = elements[i].Bytes()
	}
	return crypto.Keccak256Hash(parts...)
}

// CompactHashInput carries the fields of a Compact struct hash.
type CompactHashInput struct {
	Arbiter           common.Address
	Sponsor           common.Address
	Nonce             *uint256.Int
	Expires           *uint256.Int
	Lock              Lock
	Witness           common.Hash
	WitnessTypestring string
}

// HashCompact returns the claim hash and typehash of a Compact.
func HashCompact(in CompactHashInput) (claimHash, typehash common.Hash) {
	typehash = CompactTypehashFor(in.WitnessTypestring)
	words := [][]byte{
		typehash.Bytes(),
		addressWord(in.Arbiter),
		addressWord(in.Sponsor),
		uintWord(in.Nonce),
		uintWord(in.Expires),
		tagWord(in.Lock.LockTag),
		addressWord(in.Lock.Token),
		uintWord(in.Lock.Amount),
	}
	if in.WitnessTypestring != "" {
		words = append(words, in.Witness.Bytes())
	}
	return crypto.Keccak256Hash(words...), typehash
}

// BatchCompactHashInput carries the fields of a BatchCompact struct hash.
type BatchCompactHashInput struct {
	Arbiter           common.Address
	Sponsor           common.Address
	Nonce             *uint256.Int
	Expires           *uint256.Int
	Commitments       []Lock
	Witness           common.Hash
	WitnessTypestring string
}

func HashBatchCompact(in BatchCompactHashInput) (claimHash, typehash common.Hash) {
	typehash = BatchCompactTypehashFor(in.WitnessTypestring)
	commitments := HashCommitments(in.Commitments)
	words := [][]byte{
		typehash.Bytes(),
		addressWord(in.Arbiter),
		addressWord(in.Sponsor),
		uintWord(in.Nonce),
		uintWord(in.Expires),
		commitments.Bytes(),
	}
	if in.WitnessTypestring != "" {
		words = append(words, in.Witness.Bytes())
	}
	return crypto.Keccak256Hash(words...), typehash
}

// ElementHashInput carries the fields of one multichain Element.
type ElementHashInput struct {
	Arbiter           common.Address
	ChainID           *uint256.Int
	Commitments       []Lock
	Witness           common.Hash
	WitnessTypestring string
}

func HashElement(in ElementHashInput) common.Hash {
	typehash := ElementTypehashFor(in.WitnessTypestring)
	commitments := HashCommitments(in.Commitments)
	words := [][]byte{
		typehash.Bytes(),
		addressWord(in.Arbiter),
		uintWord(in.ChainID),
		commitments.Bytes(),
	}
	if in.WitnessTypestring != "" {
		words = append(words, in.Witness.Bytes())
	}
	return crypto.Keccak256Hash(words...)
}

// HashMultichainCompact folds the ordered element hashes of every chain
// into the MultichainCompact claim hash.
func HashMultichainCompact(sponsor common.Address, nonce, expires *uint256.Int, elements []common.Hash, witnessTypestring string) (claimHash, typehash common.Hash) {
	typehash = MultichainCompactTypehashFor(witnessTypestring)
	elementsHash := HashElementHashes(elements)
	return crypto.Keccak256Hash(
		typehash.Bytes(),
		addressWord(sponsor),
		uintWord(nonce),
		uintWord(expires),
		elementsHash.Bytes(),
	), typehash
}

// DomainSeparator derives the EIP-712 domain separator for a chain.
func DomainSeparator(chainID *uint256.Int, verifyingContract common.Address) common.Hash {
	return crypto.Keccak256Hash(
		EIP712DomainTypehash.Bytes(),
		domainNameHash.Bytes(),
		domainVersionHash.Bytes(),
		uintWord(chainID),
		addressWord(verifyingContract),
	)
}

// Digest returns the EIP-712 signing digest of a claim hash.
func Digest(domainSeparator, claimHash common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domainSeparator.Bytes(), claimHash.Bytes())
}

package types

// Event types
const (
	EventTypeClaim                      = "claim"
	EventTypeCompactRegistered          = "compact_registered"
	EventTypeTransfer                   = "transfer"
	EventTypeAllocatorRegistered        = "allocator_registered"
	EventTypeNonceConsumed              = "nonce_consumed_directly"
	EventTypeEmissaryAssigned           = "emissary_assigned"
	EventTypeEmissaryAssignmentSchedule = "emissary_assignment_scheduled"
	EventTypeForcedWithdrawalStatus     = "forced_withdrawal_status_updated"
)

// Event attribute keys
const (
	AttributeKeySponsor        = "sponsor"
	AttributeKeyAllocator      = "allocator"
	AttributeKeyAllocatorID    = "allocator_id"
	AttributeKeyArbiter        = "arbiter"
	AttributeKeyClaimHash      = "claim_hash"
	AttributeKeyTypehash       = "typehash"
	AttributeKeyNonce          = "nonce"
	AttributeKeyKind           = "kind"
	AttributeKeyOperator       = "by"
	AttributeKeyFrom           = "from"
	AttributeKeyTo             = "to"
	AttributeKeyID             = "id"
	AttributeKeyAmount         = "amount"
	AttributeKeyLockTag        = "lock_tag"
	AttributeKeyEmissary       = "emissary"
	AttributeKeyAssignableAt   = "assignable_at"
	AttributeKeyAccount        = "account"
	AttributeKeyActivating     = "activating"
	AttributeKeyWithdrawableAt = "withdrawable_at"
)

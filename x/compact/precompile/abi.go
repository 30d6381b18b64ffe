package precompile

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

func mustArgType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(err)
	}
	return typ
}

func args(pairs ...string) abi.Arguments {
	out := make(abi.Arguments, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, abi.Argument{Name: pairs[i], Type: mustArgType(pairs[i+1], nil)})
	}
	return out
}

func tupleArg(name string, components []abi.ArgumentMarshaling) abi.Arguments {
	return abi.Arguments{{Name: name, Type: mustArgType("tuple", components)}}
}

func withFields(base []abi.ArgumentMarshaling, extra ...abi.ArgumentMarshaling) []abi.ArgumentMarshaling {
	out := make([]abi.ArgumentMarshaling, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

var (
	componentFields = []abi.ArgumentMarshaling{
		{Name: "claimant", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
	}

	sponsorshipFields = []abi.ArgumentMarshaling{
		{Name: "allocatorData", Type: "bytes"},
		{Name: "sponsorSignature", Type: "bytes"},
		{Name: "sponsor", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "expires", Type: "uint256"},
		{Name: "witness", Type: "bytes32"},
		{Name: "witnessTypestring", Type: "string"},
	}

	batchClaimComponentFields = []abi.ArgumentMarshaling{
		{Name: "id", Type: "uint256"},
		{Name: "allocatedAmount", Type: "uint256"},
		{Name: "portions", Type: "tuple[]", Components: componentFields},
	}

	singleLockFields = withFields(sponsorshipFields,
		abi.ArgumentMarshaling{Name: "id", Type: "uint256"},
		abi.ArgumentMarshaling{Name: "allocatedAmount", Type: "uint256"},
		abi.ArgumentMarshaling{Name: "claimants", Type: "tuple[]", Components: componentFields},
	)
	batchFields = withFields(sponsorshipFields,
		abi.ArgumentMarshaling{Name: "claims", Type: "tuple[]", Components: batchClaimComponentFields},
	)

	additionalChainsField = abi.ArgumentMarshaling{Name: "additionalChains", Type: "bytes32[]"}
	chainIndexField       = abi.ArgumentMarshaling{Name: "chainIndex", Type: "uint256"}
	notarizedChainIDField = abi.ArgumentMarshaling{Name: "notarizedChainId", Type: "uint256"}

	transferFields = []abi.ArgumentMarshaling{
		{Name: "allocatorData", Type: "bytes"},
		{Name: "nonce", Type: "uint256"},
		{Name: "expires", Type: "uint256"},
		{Name: "id", Type: "uint256"},
		{Name: "recipients", Type: "tuple[]", Components: componentFields},
	}
	batchTransferFields = []abi.ArgumentMarshaling{
		{Name: "allocatorData", Type: "bytes"},
		{Name: "nonce", Type: "uint256"},
		{Name: "expires", Type: "uint256"},
		{Name: "transfers", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "id", Type: "uint256"},
			{Name: "portions", Type: "tuple[]", Components: componentFields},
		}},
	}
)

func method(name string, mutability string, inputs, outputs abi.Arguments) abi.Method {
	return abi.NewMethod(name, name, abi.Function, mutability, mutability == "view", mutability == "payable", inputs, outputs)
}

// compactABI is the precompile's callable surface.
var compactABI = func() abi.ABI {
	claimHashOut := args("claimHash", "bytes32")
	okOut := args("", "bool")

	methods := []abi.Method{
		method("claim", "nonpayable", tupleArg("claimPayload", singleLockFields), claimHashOut),
		method("batchClaim", "nonpayable", tupleArg("claimPayload", batchFields), claimHashOut),
		method("multichainClaim", "nonpayable",
			tupleArg("claimPayload", withFields(singleLockFields, additionalChainsField)), claimHashOut),
		method("exogenousClaim", "nonpayable",
			tupleArg("claimPayload", withFields(singleLockFields, additionalChainsField, chainIndexField, notarizedChainIDField)), claimHashOut),
		method("batchMultichainClaim", "nonpayable",
			tupleArg("claimPayload", withFields(batchFields, additionalChainsField)), claimHashOut),
		method("exogenousBatchClaim", "nonpayable",
			tupleArg("claimPayload", withFields(batchFields, additionalChainsField, chainIndexField, notarizedChainIDField)), claimHashOut),
		method("allocatedTransfer", "nonpayable", tupleArg("transfer", transferFields), okOut),
		method("allocatedBatchTransfer", "nonpayable", tupleArg("transfer", batchTransferFields), okOut),

		method("depositNative", "payable", args("lockTag", "bytes12", "recipient", "address"), args("id", "uint256")),
		method("depositERC20", "nonpayable",
			args("token", "address", "lockTag", "bytes12", "amount", "uint256", "recipient", "address"), args("id", "uint256")),
		method("transfer", "nonpayable", args("to", "address", "id", "uint256", "amount", "uint256"), okOut),
		method("balanceOf", "view", args("owner", "address", "id", "uint256"), args("amount", "uint256")),

		method("register", "nonpayable", args("claimHash", "bytes32", "typehash", "bytes32"), okOut),
		method("registerMultiple", "nonpayable", args("claimHashesAndTypehashes", "bytes32[2][]"), okOut),
		method("isRegistered", "view", args("sponsor", "address", "claimHash", "bytes32", "typehash", "bytes32"), args("isActive", "bool")),

		method("assignEmissary", "nonpayable", args("lockTag", "bytes12", "emissary", "address"), okOut),
		method("scheduleEmissaryAssignment", "nonpayable", args("lockTag", "bytes12"), args("emissaryAssignmentAvailableAt", "uint256")),
		method("getEmissaryStatus", "view", args("sponsor", "address", "lockTag", "bytes12"),
			args("status", "uint8", "emissaryAssignmentAvailableAt", "uint256", "currentEmissary", "address")),

		method("__registerAllocator", "nonpayable", args("allocator", "address", "proof", "bytes"), args("allocatorId", "uint96")),
		method("consume", "nonpayable", args("nonces", "uint256[]"), okOut),
		method("hasConsumedAllocatorNonce", "view", args("nonce", "uint256", "allocator", "address"), args("consumed", "bool")),

		method("enableForcedWithdrawal", "nonpayable", args("id", "uint256"), args("withdrawableAt", "uint256")),
		method("disableForcedWithdrawal", "nonpayable", args("id", "uint256"), okOut),
		method("forcedWithdrawal", "nonpayable", args("id", "uint256", "recipient", "address", "amount", "uint256"), okOut),
		method("getForcedWithdrawalStatus", "view", args("account", "address", "id", "uint256"),
			args("status", "uint8", "withdrawableAt", "uint256")),

		method("getLockDetails", "view", args("id", "uint256"),
			args("token", "address", "allocator", "address", "resetPeriod", "uint8", "scope", "uint8", "lockTag", "bytes12")),
		method("DOMAIN_SEPARATOR", "view", nil, args("", "bytes32")),
	}

	parsed := abi.ABI{Methods: make(map[string]abi.Method, len(methods))}
	for _, m := range methods {
		parsed.Methods[m.Name] = m
	}
	return parsed
}()

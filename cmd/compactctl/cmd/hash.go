package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"compactvault/utils"
	compacttypes "compactvault/x/compact/types"
)

const (
	flagKind    = "kind"
	flagArbiter = "arbiter"
)

// HashResult is what a signer needs to authorize a claim.
type HashResult struct {
	Kind            string      `json:"kind"`
	ClaimHash       common.Hash `json:"claim_hash"`
	Typehash        common.Hash `json:"typehash"`
	ChainID         uint64      `json:"chain_id"`
	DomainSeparator common.Hash `json:"domain_separator"`
	Digest          common.Hash `json:"digest"`
}

// DecodePayload reads a JSON payload of the given kind. Unknown fields are
// rejected.
func DecodePayload(kind compacttypes.ClaimKind, raw []byte) (compacttypes.Payload, error) {
	payload, err := compacttypes.NewPayload(kind)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	return payload, nil
}

// HashPayload derives the claim hash of payload as submitted by arbiter and
// the digest the sponsor signs. Exogenous claims are signed under the
// notarized chain's domain.
func HashPayload(cfg Config, payload compacttypes.Payload, arbiter common.Address) (HashResult, error) {
	env, err := payload.Open(arbiter, uint256.NewInt(cfg.ChainID))
	if err != nil {
		return HashResult{}, err
	}

	chainID := uint256.NewInt(cfg.ChainID)
	if env.Exogenous() {
		chainID = env.NotarizedChainID
	}
	if !chainID.IsUint64() {
		return HashResult{}, fmt.Errorf("%w: notarized chain id %s", compacttypes.ErrArithmeticOverflow, chainID.Dec())
	}
	separator := compacttypes.DomainSeparator(chainID, cfg.VerifyingContract)
	return HashResult{
		Kind:            env.Kind.String(),
		ClaimHash:       env.ClaimHash,
		Typehash:        env.Typehash,
		ChainID:         chainID.Uint64(),
		DomainSeparator: separator,
		Digest:          compacttypes.Digest(separator, env.ClaimHash),
	}, nil
}

// HashCmd computes claim hashes from JSON payloads.
func HashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [payload.json]",
		Short: "Compute the claim hash and signing digest of a payload",
		Long: `Compute the claim hash, typehash and EIP-712 digest of a JSON payload.
The payload is read from the given file, or from stdin when the file is "-" or omitted.
For allocated transfers the arbiter is the submitting sponsor.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd.Context())

			rawKind, _ := cmd.Flags().GetString(flagKind)
			kind, err := compacttypes.ParseClaimKind(rawKind)
			if err != nil {
				return err
			}

			rawArbiter, _ := cmd.Flags().GetString(flagArbiter)
			arbiter, ok := utils.ParseAddress(rawArbiter)
			if !ok {
				return fmt.Errorf("invalid --%s %q", flagArbiter, rawArbiter)
			}

			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			payload, err := DecodePayload(kind, raw)
			if err != nil {
				return err
			}
			res, err := HashPayload(cfg, payload, arbiter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String(flagKind, compacttypes.KindClaim.String(), "payload kind, e.g. claim, batch-claim, multichain-claim, transfer")
	cmd.Flags().String(flagArbiter, "", "address submitting the claim (hex or bech32)")
	_ = cmd.MarkFlagRequired(flagArbiter)
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return raw, nil
}

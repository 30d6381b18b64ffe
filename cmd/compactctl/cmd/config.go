package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"

	"compactvault/utils"
	compacttypes "compactvault/x/compact/types"
)

const (
	flagChainID           = "chain-id"
	flagVerifyingContract = "verifying-contract"
	flagBech32Prefix      = "bech32-prefix"
	flagListen            = "listen"

	// DefaultBech32Prefix is the account prefix of the compact chain
	DefaultBech32Prefix = "compact"

	// DefaultListenAddr is where the hashing service binds by default
	DefaultListenAddr = "127.0.0.1:8547"
)

// Config holds the EIP-712 domain and address settings shared by every
// compactctl command.
type Config struct {
	ChainID           uint64
	VerifyingContract common.Address
	Bech32Prefix      string
}

// DefaultConfig matches the compact module's default params.
func DefaultConfig() Config {
	params := compacttypes.DefaultParams()
	return Config{
		ChainID:           params.EVMChainID,
		VerifyingContract: params.VerifyingContract,
		Bech32Prefix:      DefaultBech32Prefix,
	}
}

func addConfigFlags(flags *pflag.FlagSet) {
	cfg := DefaultConfig()
	flags.String(flagChainID, cast.ToString(cfg.ChainID), "EVM chain id of the signing domain")
	flags.String(flagVerifyingContract, cfg.VerifyingContract.Hex(), "verifying contract of the signing domain (hex or bech32)")
	flags.String(flagBech32Prefix, cfg.Bech32Prefix, "bech32 account prefix used for address output")
}

// ReadConfig builds a Config from the persistent flags.
func ReadConfig(flags *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()

	raw, err := flags.GetString(flagChainID)
	if err != nil {
		return cfg, err
	}
	chainID, err := cast.ToUint64E(raw)
	if err != nil {
		return cfg, fmt.Errorf("invalid --%s %q: %w", flagChainID, raw, err)
	}
	if chainID == 0 {
		return cfg, fmt.Errorf("invalid --%s: must be positive", flagChainID)
	}
	cfg.ChainID = chainID

	raw, err = flags.GetString(flagVerifyingContract)
	if err != nil {
		return cfg, err
	}
	verifying, ok := utils.ParseAddress(raw)
	if !ok || verifying == (common.Address{}) {
		return cfg, fmt.Errorf("invalid --%s %q", flagVerifyingContract, raw)
	}
	cfg.VerifyingContract = verifying

	if cfg.Bech32Prefix, err = flags.GetString(flagBech32Prefix); err != nil {
		return cfg, err
	}
	if cfg.Bech32Prefix == "" {
		return cfg, fmt.Errorf("--%s must not be empty", flagBech32Prefix)
	}
	return cfg, nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(Config); ok {
			return cfg
		}
	}
	return DefaultConfig()
}

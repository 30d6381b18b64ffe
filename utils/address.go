// Package utils provides utility functions for address conversion and formatting
package utils

import (
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/ethereum/go-ethereum/common"
)

// Bech32ToEthAddress converts a Cosmos bech32 address to its EVM address
// Example: compact1abc...xyz -> 0x1234...abcd
func Bech32ToEthAddress(bech32Addr string) (common.Address, error) {
	_, addrBytes, err := bech32.DecodeAndConvert(bech32Addr)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(addrBytes), nil
}

// EthAddressToBech32 converts an EVM address to Cosmos bech32 format
// Example: 0x1234...abcd -> compact1abc...xyz
func EthAddressToBech32(addr common.Address, prefix string) (string, error) {
	return bech32.ConvertAndEncode(prefix, addr.Bytes())
}

// EthToAccAddress reinterprets an EVM address as an SDK account address.
func EthToAccAddress(addr common.Address) sdk.AccAddress {
	return sdk.AccAddress(addr.Bytes())
}

// AccToEthAddress reinterprets an SDK account address as an EVM address.
func AccToEthAddress(addr sdk.AccAddress) common.Address {
	return common.BytesToAddress(addr.Bytes())
}

// ModuleEthAddress returns the EVM address of a module account.
func ModuleEthAddress(moduleName string) common.Address {
	return common.BytesToAddress(authtypes.NewModuleAddress(moduleName))
}

// FormatDual creates a dual-format address string for logs and CLI output
// Format: "0x1234...abcd (compact1abc...xyz)"
func FormatDual(addr common.Address, bech32Prefix string) string {
	bech32Addr, err := EthAddressToBech32(addr, bech32Prefix)
	if err != nil {
		return addr.Hex()
	}
	return addr.Hex() + " (" + bech32Addr + ")"
}

// ParseAddress accepts either an EVM hex address or a bech32 address.
func ParseAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), true
	}
	addr, err := Bech32ToEthAddress(s)
	if err != nil {
		return common.Address{}, false
	}
	return addr, true
}

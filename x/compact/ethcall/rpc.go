package ethcall

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"compactvault/x/compact/types"
)

var _ types.ContractCaller = (*RPCCaller)(nil)

// RPCCaller reaches contracts on an EVM node through eth_call at the latest
// block.
type RPCCaller struct {
	backend bind.ContractCaller
}

// NewRPCCaller wraps any go-ethereum contract caller, such as *ethclient.Client.
func NewRPCCaller(backend bind.ContractCaller) *RPCCaller {
	return &RPCCaller{backend: backend}
}

// DialRPCCaller connects to the node at url.
func DialRPCCaller(ctx context.Context, url string) (*RPCCaller, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewRPCCaller(client), nil
}

// HasCode implements types.ContractCaller
func (c *RPCCaller) HasCode(ctx context.Context, addr common.Address) (bool, error) {
	code, err := c.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("failed to fetch code of %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

// Call implements types.ContractCaller
func (c *RPCCaller) Call(ctx context.Context, from, to common.Address, input []byte) ([]byte, error) {
	ret, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: input}, nil)
	if err != nil {
		if revert, ok := asRevert(err); ok {
			return nil, revert
		}
		return nil, fmt.Errorf("eth_call to %s: %w", to.Hex(), err)
	}
	return ret, nil
}

// asRevert recognizes a JSON-RPC execution revert and extracts its data.
// Nodes report the data as a hex string or as raw bytes.
func asRevert(err error) (*types.RevertError, bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := revertData(dataErr.ErrorData()); ok {
			return &types.RevertError{Data: data}, true
		}
	}
	if strings.Contains(err.Error(), "execution reverted") {
		return &types.RevertError{}, true
	}
	return nil, false
}

func revertData(v interface{}) ([]byte, bool) {
	switch data := v.(type) {
	case string:
		if data == "" {
			return nil, false
		}
		decoded, err := hexutil.Decode(data)
		if err != nil {
			return nil, false
		}
		return decoded, true
	case hexutil.Bytes:
		return data, len(data) > 0
	case []byte:
		return data, len(data) > 0
	}
	return nil, false
}

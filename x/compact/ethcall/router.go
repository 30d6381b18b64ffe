// Package ethcall provides the ContractCaller implementations the compact
// keeper uses to reach allocators, emissaries and contract sponsors.
package ethcall

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"compactvault/x/compact/types"
)

var (
	_ types.ContractCaller = (*Router)(nil)
	_ Contract             = ContractFunc(nil)
)

// Contract is a Go-native contract mounted on a Router.
type Contract interface {
	Call(ctx context.Context, from common.Address, input []byte) ([]byte, error)
}

// ContractFunc adapts a function to Contract.
type ContractFunc func(ctx context.Context, from common.Address, input []byte) ([]byte, error)

func (f ContractFunc) Call(ctx context.Context, from common.Address, input []byte) ([]byte, error) {
	return f(ctx, from, input)
}

// Router dispatches calls to contracts registered at fixed addresses.
// Addresses without a contract behave like externally owned accounts: they
// have no code and calling them returns no data.
type Router struct {
	mu        sync.RWMutex
	contracts map[common.Address]Contract
}

// NewRouter creates an empty Router
func NewRouter() *Router {
	return &Router{contracts: make(map[common.Address]Contract)}
}

// Register mounts c at addr, replacing any previous contract.
func (r *Router) Register(addr common.Address, c Contract) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[addr] = c
}

// Unregister removes the contract at addr.
func (r *Router) Unregister(addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contracts, addr)
}

func (r *Router) lookup(addr common.Address) (Contract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[addr]
	return c, ok
}

// HasCode implements types.ContractCaller
func (r *Router) HasCode(_ context.Context, addr common.Address) (bool, error) {
	_, ok := r.lookup(addr)
	return ok, nil
}

// Call implements types.ContractCaller
func (r *Router) Call(ctx context.Context, from, to common.Address, input []byte) ([]byte, error) {
	c, ok := r.lookup(to)
	if !ok {
		return nil, nil
	}
	return c.Call(ctx, from, input)
}

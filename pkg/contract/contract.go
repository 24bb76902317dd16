// Package contract describes the read-only view of the pool contracts the indexer depends on.
//
// Every read returns a Result instead of an error so that callers can apply a per-field fallback
// when a call reverts, the same way the pool contracts are consumed on-chain.
package contract

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrReverted    = errors.New("execution reverted")
	ErrEmptyResult = errors.New("empty call result")
)

type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Fail[T any](err error) Result[T] {
	if err == nil {
		err = ErrReverted
	}
	return Result[T]{Err: err}
}

func (r Result[T]) Reverted() bool {
	return r.Err != nil
}

// TokenStats is the per asset slot record returned by getTokenStats.
type TokenStats struct {
	SoftWeight *big.Int
	HardWeight *big.Int
	Balance    *big.Int
	Decimals   *big.Int
}

type Pool interface {
	Address() common.Address
	TotalSupply() Result[*big.Int]
	// TotalBalance is the pool's own bookkeeping of the normalized total balance.
	TotalBalance() Result[*big.Int]
	// NTokens returns the number of yield token slots.
	NTokens() Result[*big.Int]
	// YTokenAddress returns the yield token bound to a slot. Zero address means the slot is unused.
	YTokenAddress(index *big.Int) Result[common.Address]
	// YBalance returns the normalized yield balance last recorded by the pool for a slot.
	YBalance(index *big.Int) Result[*big.Int]
	TokenStats(index *big.Int) Result[TokenStats]
}

type YieldToken interface {
	Address() common.Address
	Symbol() Result[string]
	// PricePerFullShare is always expressed with 18 decimals.
	PricePerFullShare() Result[*big.Int]
	BalanceOf(owner common.Address) Result[*big.Int]
	Decimals() Result[uint8]
}

// Binder binds contract readers at an address. All reads of a bound reader are
// pinned to the given block; nil block means latest.
type Binder interface {
	BindPool(ctx context.Context, address common.Address, block *big.Int) Pool
	BindYieldToken(ctx context.Context, address common.Address, block *big.Int) YieldToken
}

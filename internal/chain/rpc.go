package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync/atomic"

	"github.com/Synternet/stablepool-indexer/pkg/contract"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var _ contract.Binder = (*Reader)(nil)

// Reader binds pool and yield token contracts on top of an eth_call capable client.
type Reader struct {
	caller ethereum.ContractCaller
	logger *slog.Logger

	callCounter    atomic.Uint64
	revertCounter  atomic.Uint64
	failureCounter atomic.Uint64
}

func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed connecting to %s: %w", url, err)
	}
	return client, nil
}

func NewReader(caller ethereum.ContractCaller, logger *slog.Logger) *Reader {
	return &Reader{
		caller: caller,
		logger: logger,
	}
}

func (r *Reader) BindPool(ctx context.Context, address common.Address, block *big.Int) contract.Pool {
	return &pool{binding{reader: r, ctx: ctx, address: address, block: block, abi: &PoolABI}}
}

func (r *Reader) BindYieldToken(ctx context.Context, address common.Address, block *big.Int) contract.YieldToken {
	return &yieldToken{binding{reader: r, ctx: ctx, address: address, block: block, abi: &YieldTokenABI}}
}

func (r *Reader) GetStatus() map[string]any {
	return map[string]any{
		"rpc": map[string]any{
			"calls":    r.callCounter.Load(),
			"reverts":  r.revertCounter.Load(),
			"failures": r.failureCounter.Load(),
		},
	}
}

type binding struct {
	reader  *Reader
	ctx     context.Context
	address common.Address
	block   *big.Int
	abi     *abi.ABI
}

func (b binding) Address() common.Address {
	return b.address
}

func (b binding) call(method string, args ...any) ([]any, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}

	b.reader.callCounter.Add(1)
	out, err := b.reader.caller.CallContract(b.ctx, ethereum.CallMsg{To: &b.address, Data: data}, b.block)
	if err != nil {
		if isRevert(err) {
			b.reader.revertCounter.Add(1)
			return nil, fmt.Errorf("%w: %v", contract.ErrReverted, err)
		}
		b.reader.failureCounter.Add(1)
		return nil, err
	}
	// Calls to accounts without code succeed with empty output.
	if len(out) == 0 {
		b.reader.revertCounter.Add(1)
		return nil, contract.ErrEmptyResult
	}

	return b.abi.Unpack(method, out)
}

func isRevert(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "revert")
}

func read[T any](b binding, method string, convert func([]any) (T, error), args ...any) contract.Result[T] {
	values, err := b.call(method, args...)
	if err != nil {
		return contract.Fail[T](fmt.Errorf("%s(%s): %w", method, b.address.Hex(), err))
	}
	v, err := convert(values)
	if err != nil {
		return contract.Fail[T](fmt.Errorf("%s(%s): %w", method, b.address.Hex(), err))
	}
	return contract.Ok(v)
}

func value[T any](values []any, i int) (T, error) {
	var zero T
	if len(values) <= i {
		return zero, fmt.Errorf("missing output %d", i)
	}
	v, ok := values[i].(T)
	if !ok {
		return zero, fmt.Errorf("unexpected output %d type %T", i, values[i])
	}
	return v, nil
}

func asBig(values []any) (*big.Int, error) {
	return value[*big.Int](values, 0)
}

func asAddress(values []any) (common.Address, error) {
	return value[common.Address](values, 0)
}

func asString(values []any) (string, error) {
	return value[string](values, 0)
}

func asUint8(values []any) (uint8, error) {
	return value[uint8](values, 0)
}

func asTokenStats(values []any) (contract.TokenStats, error) {
	var (
		stats contract.TokenStats
		err   error
	)
	if stats.SoftWeight, err = value[*big.Int](values, 0); err != nil {
		return stats, err
	}
	if stats.HardWeight, err = value[*big.Int](values, 1); err != nil {
		return stats, err
	}
	if stats.Balance, err = value[*big.Int](values, 2); err != nil {
		return stats, err
	}
	if stats.Decimals, err = value[*big.Int](values, 3); err != nil {
		return stats, err
	}
	return stats, nil
}

type pool struct {
	binding
}

func (p *pool) TotalSupply() contract.Result[*big.Int] {
	return read(p.binding, "totalSupply", asBig)
}

func (p *pool) TotalBalance() contract.Result[*big.Int] {
	return read(p.binding, "_totalBalance", asBig)
}

func (p *pool) NTokens() contract.Result[*big.Int] {
	return read(p.binding, "_ntokens", asBig)
}

func (p *pool) YTokenAddress(index *big.Int) contract.Result[common.Address] {
	return read(p.binding, "_yTokenAddresses", asAddress, index)
}

func (p *pool) YBalance(index *big.Int) contract.Result[*big.Int] {
	return read(p.binding, "_yBalances", asBig, index)
}

func (p *pool) TokenStats(index *big.Int) contract.Result[contract.TokenStats] {
	return read(p.binding, "getTokenStats", asTokenStats, index)
}

type yieldToken struct {
	binding
}

func (y *yieldToken) Symbol() contract.Result[string] {
	return read(y.binding, "symbol", asString)
}

func (y *yieldToken) PricePerFullShare() contract.Result[*big.Int] {
	return read(y.binding, "getPricePerFullShare", asBig)
}

func (y *yieldToken) BalanceOf(owner common.Address) contract.Result[*big.Int] {
	return read(y.binding, "balanceOf", asBig, owner)
}

func (y *yieldToken) Decimals() contract.Result[uint8] {
	return read(y.binding, "decimals", asUint8)
}

package indexer

import (
	"context"
	"log/slog"
	"math/big"
	"testing"

	store "github.com/Synternet/stablepool-indexer/internal/repository"
	"github.com/Synternet/stablepool-indexer/internal/repository/sqlite"
	"github.com/Synternet/stablepool-indexer/pkg/contract"
	"github.com/Synternet/stablepool-indexer/pkg/repository"
	"github.com/Synternet/stablepool-indexer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

var (
	poolAddress  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	tokenAddress = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	brokenToken  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type fakePool struct {
	address      common.Address
	totalSupply  contract.Result[*big.Int]
	totalBalance contract.Result[*big.Int]
	nTokens      contract.Result[*big.Int]
	yTokens      []contract.Result[common.Address]
	yBalances    []contract.Result[*big.Int]
	stats        []contract.Result[contract.TokenStats]
}

// newFakePool returns a pool whose every read reverts.
func newFakePool(address common.Address) *fakePool {
	return &fakePool{
		address:      address,
		totalSupply:  contract.Fail[*big.Int](nil),
		totalBalance: contract.Fail[*big.Int](nil),
		nTokens:      contract.Fail[*big.Int](nil),
	}
}

func at[T any](results []contract.Result[T], index *big.Int) contract.Result[T] {
	if !index.IsInt64() || index.Int64() < 0 || index.Int64() >= int64(len(results)) {
		return contract.Fail[T](nil)
	}
	return results[index.Int64()]
}

func (p *fakePool) Address() common.Address { return p.address }
func (p *fakePool) TotalSupply() contract.Result[*big.Int] { return p.totalSupply }
func (p *fakePool) TotalBalance() contract.Result[*big.Int] { return p.totalBalance }
func (p *fakePool) NTokens() contract.Result[*big.Int] { return p.nTokens }
func (p *fakePool) YBalance(i *big.Int) contract.Result[*big.Int] { return at(p.yBalances, i) }
func (p *fakePool) YTokenAddress(i *big.Int) contract.Result[common.Address] {
	return at(p.yTokens, i)
}
func (p *fakePool) TokenStats(i *big.Int) contract.Result[contract.TokenStats] {
	return at(p.stats, i)
}

type fakeToken struct {
	address  common.Address
	symbol   contract.Result[string]
	price    contract.Result[*big.Int]
	shares   contract.Result[*big.Int]
	decimals contract.Result[uint8]
	owners   []common.Address
}

func (y *fakeToken) Address() common.Address { return y.address }
func (y *fakeToken) Symbol() contract.Result[string] { return y.symbol }
func (y *fakeToken) PricePerFullShare() contract.Result[*big.Int] { return y.price }
func (y *fakeToken) Decimals() contract.Result[uint8] { return y.decimals }
func (y *fakeToken) BalanceOf(owner common.Address) contract.Result[*big.Int] {
	y.owners = append(y.owners, owner)
	return y.shares
}

type fakeBinder struct {
	pools  map[common.Address]*fakePool
	tokens map[common.Address]*fakeToken
	blocks []uint64
}

func newFakeBinder(pools ...*fakePool) *fakeBinder {
	ret := &fakeBinder{
		pools:  make(map[common.Address]*fakePool),
		tokens: make(map[common.Address]*fakeToken),
	}
	for _, p := range pools {
		ret.pools[p.address] = p
	}
	return ret
}

func (b *fakeBinder) BindPool(ctx context.Context, address common.Address, block *big.Int) contract.Pool {
	b.blocks = append(b.blocks, block.Uint64())
	if p, ok := b.pools[address]; ok {
		return p
	}
	return newFakePool(address)
}

func (b *fakeBinder) BindYieldToken(ctx context.Context, address common.Address, block *big.Int) contract.YieldToken {
	if t, ok := b.tokens[address]; ok {
		return t
	}
	return &fakeToken{
		address:  address,
		symbol:   contract.Fail[string](nil),
		price:    contract.Fail[*big.Int](nil),
		shares:   contract.Fail[*big.Int](nil),
		decimals: contract.Fail[uint8](nil),
	}
}

func makeRepo(t *testing.T) *store.Repository {
	db, err := sqlite.NewInMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	repo, err := store.New(db, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func makeIndexer(t *testing.T, cfg Config, binder contract.Binder) (*Indexer, *store.Repository) {
	repo := makeRepo(t)
	d, err := New(slog.Default(), repo, binder, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return d, repo
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), pow10(18))
}

func blockHash(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

func txHash(n int) common.Hash {
	return common.BigToHash(big.NewInt(int64(1_000_000 + n)))
}

func transferEvent(block uint64) types.Event {
	return types.Event{
		Kind:     types.EventTransfer,
		Address:  poolAddress,
		Block:    types.Block{Hash: blockHash(block), Number: block},
		TxHash:   txHash(int(block)),
		Transfer: &types.Transfer{Value: big.NewInt(1)},
	}
}

func swapEvent(tx int, block uint64, logIndex uint, in, out int64, amount *big.Int) types.Event {
	return types.Event{
		Kind:     types.EventSwap,
		Address:  poolAddress,
		Block:    types.Block{Hash: blockHash(block), Number: block},
		TxHash:   txHash(tx),
		LogIndex: logIndex,
		Swap: &types.Swap{
			InIndex:   big.NewInt(in),
			OutIndex:  big.NewInt(out),
			InAmount:  amount,
			OutAmount: amount,
		},
	}
}

func swapAllEvent(tx int, block uint64, flag int64, amounts ...*big.Int) types.Event {
	return types.Event{
		Kind:    types.EventSwapAll,
		Address: poolAddress,
		Block:   types.Block{Hash: blockHash(block), Number: block},
		TxHash:  txHash(tx),
		SwapAll: &types.SwapAll{
			Amounts: amounts,
			Flag:    big.NewInt(flag),
			Minted:  big.NewInt(0),
		},
	}
}

// view runs a read-only function against the store and fails the test on store errors.
func view[T any](t *testing.T, repo repository.Repository, fn func(tx repository.Tx) (T, bool, error)) (T, bool) {
	t.Helper()
	var (
		ret   T
		found bool
	)
	err := repo.Update(context.Background(), func(tx repository.Tx) error {
		var err error
		ret, found, err = fn(tx)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return ret, found
}

func volumeRecord(t *testing.T, repo repository.Repository, tx int) (repository.VolumeRecord, bool) {
	t.Helper()
	return view(t, repo, func(x repository.Tx) (repository.VolumeRecord, bool, error) {
		return x.VolumeRecord(txHash(tx).Hex())
	})
}

func balanceSnapshot(t *testing.T, repo repository.Repository, block uint64) (repository.BalanceSnapshot, bool) {
	t.Helper()
	return view(t, repo, func(x repository.Tx) (repository.BalanceSnapshot, bool, error) {
		return x.BalanceSnapshot(blockHash(block).Hex())
	})
}

func tvlSnapshot(t *testing.T, repo repository.Repository, block uint64) (repository.TVLSnapshot, bool) {
	t.Helper()
	return view(t, repo, func(x repository.Tx) (repository.TVLSnapshot, bool, error) {
		return x.TVLSnapshot(blockHash(block).Hex())
	})
}

func loadCursor(t *testing.T, repo repository.Repository, id string) (repository.Cursor, bool) {
	t.Helper()
	return view(t, repo, func(x repository.Tx) (repository.Cursor, bool, error) {
		return x.Cursor(id)
	})
}

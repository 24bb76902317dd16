package chain

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/Synternet/stablepool-indexer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

func makeLog(t *testing.T, name string, indexed common.Address, data ...any) gethtypes.Log {
	t.Helper()
	ev := PoolABI.Events[name]
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		t.Fatal(err)
	}
	return gethtypes.Log{
		Address:     poolAddress,
		Topics:      []common.Hash{ev.ID, common.BytesToHash(indexed.Bytes())},
		Data:        packed,
		BlockNumber: 42,
		BlockHash:   common.HexToHash("0xb10c"),
		TxHash:      common.HexToHash("0x7a"),
		Index:       3,
	}
}

func TestDecodeLog(t *testing.T) {
	buyer := common.HexToAddress("0x00000000000000000000000000000000000000d1")
	envelope := func(kind types.EventKind) types.Event {
		return types.Event{
			Kind:     kind,
			Address:  poolAddress,
			Block:    types.Block{Hash: common.HexToHash("0xb10c"), Number: 42},
			TxHash:   common.HexToHash("0x7a"),
			LogIndex: 3,
		}
	}

	transferLog := makeLog(t, "Transfer", buyer, big.NewInt(7))
	transferLog.Topics = append(transferLog.Topics, common.BytesToHash(tokenAddress.Bytes()))

	tests := []struct {
		name    string
		log     gethtypes.Log
		want    func() types.Event
		wantOk  bool
		wantErr bool
	}{
		{
			"transfer",
			transferLog,
			func() types.Event {
				ev := envelope(types.EventTransfer)
				ev.Transfer = &types.Transfer{From: buyer, To: tokenAddress, Value: big.NewInt(7)}
				return ev
			},
			true, false,
		},
		{
			"swap",
			makeLog(t, "Swap", buyer, big.NewInt(1), big.NewInt(2), big.NewInt(300), big.NewInt(299)),
			func() types.Event {
				ev := envelope(types.EventSwap)
				ev.Swap = &types.Swap{
					Buyer:     buyer,
					InIndex:   big.NewInt(1),
					OutIndex:  big.NewInt(2),
					InAmount:  big.NewInt(300),
					OutAmount: big.NewInt(299),
				}
				return ev
			},
			true, false,
		},
		{
			"swap all",
			makeLog(t, "SwapAll", buyer,
				[]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4), big.NewInt(5)},
				big.NewInt(17), big.NewInt(9)),
			func() types.Event {
				ev := envelope(types.EventSwapAll)
				ev.SwapAll = &types.SwapAll{
					Provider: buyer,
					Amounts:  []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4), big.NewInt(5)},
					Flag:     big.NewInt(17),
					Minted:   big.NewInt(9),
				}
				return ev
			},
			true, false,
		},
		{
			"unknown topic",
			gethtypes.Log{Topics: []common.Hash{common.HexToHash("0x01")}},
			func() types.Event { return types.Event{} },
			false, false,
		},
		{
			"no topics",
			gethtypes.Log{},
			func() types.Event { return types.Event{} },
			false, false,
		},
		{
			"truncated data",
			func() gethtypes.Log {
				l := makeLog(t, "Swap", buyer, big.NewInt(1), big.NewInt(2), big.NewInt(300), big.NewInt(299))
				l.Data = l.Data[:40]
				return l
			}(),
			func() types.Event { return types.Event{} },
			true, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := DecodeLog(tt.log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeLog() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.wantOk {
				t.Fatalf("DecodeLog() ok = %v, want %v", ok, tt.wantOk)
			}
			if err != nil {
				return
			}
			if want := tt.want(); !reflect.DeepEqual(got, want) {
				t.Errorf("DecodeLog() = %+v, want %+v", got, want)
			}
		})
	}
}

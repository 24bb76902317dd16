package chain

import (
	"fmt"
	"math/big"

	"github.com/Synternet/stablepool-indexer/pkg/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// DecodeLog translates a pool contract log into an event.
// Logs that are not emitted by any known pool event return false.
func DecodeLog(log gethtypes.Log) (types.Event, bool, error) {
	if len(log.Topics) == 0 {
		return types.Event{}, false, nil
	}
	ev, err := PoolABI.EventByID(log.Topics[0])
	if err != nil {
		return types.Event{}, false, nil
	}

	values := make(map[string]any, len(ev.Inputs))
	if err := PoolABI.UnpackIntoMap(values, ev.Name, log.Data); err != nil {
		return types.Event{}, true, fmt.Errorf("unpacking %s data: %w", ev.Name, err)
	}
	var indexed abi.Arguments
	for _, arg := range ev.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return types.Event{}, true, fmt.Errorf("parsing %s topics: %w", ev.Name, err)
	}

	ret := types.Event{
		Address:  log.Address,
		Block:    types.Block{Hash: log.BlockHash, Number: log.BlockNumber},
		TxHash:   log.TxHash,
		LogIndex: log.Index,
	}

	switch ev.Name {
	case "Transfer":
		ret.Kind = types.EventTransfer
		ret.Transfer = &types.Transfer{
			From:  address(values["from"]),
			To:    address(values["to"]),
			Value: bigInt(values["value"]),
		}
	case "Swap":
		ret.Kind = types.EventSwap
		ret.Swap = &types.Swap{
			Buyer:     address(values["buyer"]),
			InIndex:   bigInt(values["bTokenIdIn"]),
			OutIndex:  bigInt(values["bTokenIdOut"]),
			InAmount:  bigInt(values["inAmount"]),
			OutAmount: bigInt(values["outAmount"]),
		}
	case "SwapAll":
		amounts, _ := values["amounts"].([]*big.Int)
		ret.Kind = types.EventSwapAll
		ret.SwapAll = &types.SwapAll{
			Provider: address(values["provider"]),
			Amounts:  amounts,
			Flag:     bigInt(values["inOutFlag"]),
			Minted:   bigInt(values["sTokenMintedOrBurned"]),
		}
	default:
		return types.Event{}, false, nil
	}

	return ret, true, nil
}

func address(v any) common.Address {
	a, _ := v.(common.Address)
	return a
}

func bigInt(v any) *big.Int {
	b, _ := v.(*big.Int)
	return b
}

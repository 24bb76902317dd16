package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type EventKind string

const (
	EventTransfer EventKind = "transfer"
	EventSwap     EventKind = "swap"
	EventSwapAll  EventKind = "swap_all"
)

var (
	ErrMissingParams   = errors.New("event parameters missing")
	ErrMissingLogIndex = errors.New("log index missing")
)

type Block struct {
	Hash   common.Hash `json:"hash"`
	Number uint64      `json:"number"`
}

// Event is a single pool contract log together with its enclosing block and transaction.
// Exactly one of Transfer, Swap or SwapAll is set, matching Kind.
type Event struct {
	Kind     EventKind      `json:"kind"`
	Address  common.Address `json:"address"`
	Block    Block          `json:"block"`
	TxHash   common.Hash    `json:"tx_hash"`
	LogIndex uint           `json:"log_index"`

	Transfer *Transfer `json:"transfer,omitempty"`
	Swap     *Swap     `json:"swap,omitempty"`
	SwapAll  *SwapAll  `json:"swap_all,omitempty"`
}

type Transfer struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *big.Int       `json:"value"`
}

// Swap is a single pair trade between two asset slots.
type Swap struct {
	Buyer     common.Address `json:"buyer"`
	InIndex   *big.Int       `json:"in_index"`
	OutIndex  *big.Int       `json:"out_index"`
	InAmount  *big.Int       `json:"in_amount"`
	OutAmount *big.Int       `json:"out_amount"`
}

// SwapAll is a batch operation touching every asset slot at once.
// Flag encodes which legs are inputs and which are outputs.
type SwapAll struct {
	Provider common.Address `json:"provider"`
	Amounts  []*big.Int     `json:"amounts"`
	Flag     *big.Int       `json:"flag"`
	Minted   *big.Int       `json:"minted"`
}

// UnmarshalJSON requires log_index to be present. Swaps of one transaction are told
// apart by their log index, so an implicit zero would merge distinct trades.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		LogIndex *uint `json:"log_index"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.LogIndex == nil {
		return ErrMissingLogIndex
	}
	e.LogIndex = *aux.LogIndex
	return nil
}

func (e *Event) BlockNumber() *big.Int {
	return new(big.Int).SetUint64(e.Block.Number)
}

// Validate checks that the parameters required by Kind are present.
func (e *Event) Validate() error {
	switch e.Kind {
	case EventTransfer:
		return nil
	case EventSwap:
		if e.Swap == nil || e.Swap.InAmount == nil || e.Swap.InIndex == nil || e.Swap.OutIndex == nil {
			return fmt.Errorf("%s: %w", e.Kind, ErrMissingParams)
		}
	case EventSwapAll:
		if e.SwapAll == nil || e.SwapAll.Flag == nil || len(e.SwapAll.Amounts) == 0 {
			return fmt.Errorf("%s: %w", e.Kind, ErrMissingParams)
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

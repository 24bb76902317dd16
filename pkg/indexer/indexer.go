package indexer

import (
	"context"

	"github.com/Synternet/stablepool-indexer/pkg/types"
)

type Indexer interface {
	// HandleEvent dispatches the event by kind. Events of unknown kind are ignored.
	HandleEvent(ctx context.Context, event types.Event) error

	// HandleTransfer records the balance snapshot for the event's block and samples TVL
	// if the sampling interval has elapsed.
	HandleTransfer(ctx context.Context, event types.Event) error

	// HandleSwap accumulates the volume of a single pair swap.
	HandleSwap(ctx context.Context, event types.Event) error

	// HandleSwapAll accumulates the volume of a batch swap.
	//
	// NOTE: batch swaps with a flag outside of the traded range are ignored.
	HandleSwapAll(ctx context.Context, event types.Event) error

	// GetStatus used for telemetry and will return a map of status variables
	GetStatus() map[string]any
}

package subscriber

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nats-io/nats.go"
	"golang.org/x/exp/maps"
)

const (
	DefaultTelemetryPeriod = time.Second * 3
	DefaultBufferSize      = 1024
)

type Options struct {
	Context         context.Context
	Logger          *slog.Logger
	Sources         []Source
	Addresses       []common.Address
	MetricsAddr     string
	TelemetryPeriod time.Duration
	BufferSize      int

	TelemetryConn    *nats.Conn
	TelemetrySubject string
}

type Option func(*Options)

func (o *Options) Parse(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.TelemetryPeriod <= 0 {
		o.TelemetryPeriod = DefaultTelemetryPeriod
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
}

func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithSource(sources ...Source) Option {
	return func(o *Options) {
		o.Sources = append(o.Sources, sources...)
	}
}

// WithAddresses restricts handled events to the given pool contracts. No addresses means no filtering.
func WithAddresses(addresses []common.Address) Option {
	set := make(map[common.Address]struct{}, len(addresses))
	for _, a := range addresses {
		set[a] = struct{}{}
	}
	addresses = maps.Keys(set)
	slices.SortFunc(addresses, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })

	return func(o *Options) {
		o.Addresses = addresses
	}
}

func WithMetricsAddr(addr string) Option {
	return func(o *Options) {
		o.MetricsAddr = addr
	}
}

func WithTelemetryPeriod(d time.Duration) Option {
	return func(o *Options) {
		o.TelemetryPeriod = d
	}
}

// WithTelemetry publishes status reports to subject in addition to logging them.
func WithTelemetry(conn *nats.Conn, subject string) Option {
	return func(o *Options) {
		o.TelemetryConn = conn
		o.TelemetrySubject = subject
	}
}

func WithBufferSize(n int) Option {
	return func(o *Options) {
		o.BufferSize = n
	}
}

package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Synternet/stablepool-indexer/pkg/indexer"
	"github.com/Synternet/stablepool-indexer/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

var ErrNoSources = errors.New("no event sources configured")

// Delivery is a single event handed over by a source.
type Delivery struct {
	Source string
	Event  types.Event
	// Ack is called once the event was handled or dropped. May be nil.
	Ack func(ctx context.Context) error
}

// Source pushes events into the dispatch loop in chain order until ctx is done.
type Source interface {
	Name() string
	Run(ctx context.Context, out chan<- Delivery) error
	Close() error
}

// Subscriber funnels every source into a single goroutine that calls the indexer,
// so that no two events are ever handled concurrently.
type Subscriber struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	group   *errgroup.Group
	logger  *slog.Logger
	indexer indexer.Indexer
	options Options

	deliveries      chan Delivery
	addresses       map[common.Address]struct{}
	statusCallbacks []func() map[string]any

	eventsCounter   atomic.Uint64
	filteredCounter atomic.Uint64
	errCounter      atomic.Uint64
	ackErrCounter   atomic.Uint64
	lastBlock       atomic.Uint64
}

func New(idx indexer.Indexer, opts ...Option) (*Subscriber, error) {
	var o Options
	o.Parse(opts...)
	if len(o.Sources) == 0 {
		return nil, ErrNoSources
	}

	ctx, cancel := context.WithCancelCause(o.Context)
	group, groupCtx := errgroup.WithContext(ctx)

	ret := &Subscriber{
		ctx:        groupCtx,
		cancel:     cancel,
		group:      group,
		logger:     o.Logger,
		indexer:    idx,
		options:    o,
		deliveries: make(chan Delivery, o.BufferSize),
		addresses:  make(map[common.Address]struct{}, len(o.Addresses)),
	}
	for _, a := range o.Addresses {
		ret.addresses[a] = struct{}{}
	}

	ret.AddStatusCallback(ret.getStatus)
	ret.AddStatusCallback(idx.GetStatus)

	ret.logger.Info("Tracking pools", "addresses", o.Addresses)
	return ret, nil
}

// AddStatusCallback registers a function whose status map is merged into telemetry reports.
// Must be called before Start.
func (s *Subscriber) AddStatusCallback(fn func() map[string]any) {
	s.statusCallbacks = append(s.statusCallbacks, fn)
}

// Start launches the sources and the dispatch loop. The returned context is done once
// the subscriber stops; its cause tells why.
func (s *Subscriber) Start() context.Context {
	for _, src := range s.options.Sources {
		src := src
		s.group.Go(func() error {
			s.logger.Info("Source started", "source", src.Name())
			err := src.Run(s.ctx, s.deliveries)
			if err != nil && !errors.Is(err, context.Canceled) {
				err = fmt.Errorf("%s source: %w", src.Name(), err)
				s.cancel(err)
				return err
			}
			s.logger.Info("Source stopped", "source", src.Name())
			return nil
		})
	}

	s.group.Go(s.dispatch)

	if addr := s.options.MetricsAddr; addr != "" {
		s.serveMetrics(addr)
	}

	s.group.Go(s.reportTelemetry)

	return s.ctx
}

func (s *Subscriber) dispatch() error {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("subscriber.dispatch: Context Done")
			return nil
		case d := <-s.deliveries:
			s.handle(d)
		}
	}
}

func (s *Subscriber) handle(d Delivery) {
	s.eventsCounter.Add(1)
	deliveriesCounter.WithLabelValues(d.Source).Inc()

	if s.tracks(d.Event.Address) {
		err := s.indexer.HandleEvent(s.ctx, d.Event)
		if err != nil {
			s.errCounter.Add(1)
			failedCounter.Inc()
			s.logger.Error("Failed handling event", "source", d.Source, "block", d.Event.Block.Number, "tx", d.Event.TxHash, "err", err)
		} else {
			setMaxValue(&s.lastBlock, d.Event.Block.Number)
			blockHeight.Set(float64(s.lastBlock.Load()))
		}
	} else {
		s.filteredCounter.Add(1)
		filteredCounter.Inc()
	}

	if d.Ack == nil {
		return
	}
	if err := d.Ack(s.ctx); err != nil {
		s.ackErrCounter.Add(1)
		s.logger.Warn("Failed acknowledging event", "source", d.Source, "tx", d.Event.TxHash, "err", err)
	}
}

func (s *Subscriber) tracks(address common.Address) bool {
	if len(s.addresses) == 0 {
		return true
	}
	_, ok := s.addresses[address]
	return ok
}

func (s *Subscriber) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	s.group.Go(func() error {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", "addr", addr, "err", err)
		}
		return nil
	})
	s.group.Go(func() error {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

func (s *Subscriber) reportTelemetry() error {
	ticker := time.NewTicker(s.options.TelemetryPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return nil
		case <-ticker.C:
			status := s.Status()
			s.logger.Debug("Status", "status", status)

			if s.options.TelemetryConn == nil || s.options.TelemetrySubject == "" {
				continue
			}
			data, err := json.Marshal(status)
			if err != nil {
				s.logger.Warn("Failed encoding telemetry", "err", err)
				continue
			}
			if err := s.options.TelemetryConn.Publish(s.options.TelemetrySubject, data); err != nil {
				s.logger.Warn("Failed publishing telemetry", "subject", s.options.TelemetrySubject, "err", err)
			}
		}
	}
}

// Status merges the status maps of every registered callback.
func (s *Subscriber) Status() map[string]any {
	ret := make(map[string]any)
	for _, cb := range s.statusCallbacks {
		for k, v := range cb() {
			ret[k] = v
		}
	}
	return ret
}

func (s *Subscriber) getStatus() map[string]any {
	return map[string]any{
		"subscriber": map[string]any{
			"events":     s.eventsCounter.Load(),
			"filtered":   s.filteredCounter.Load(),
			"errors":     s.errCounter.Load(),
			"ack_errors": s.ackErrCounter.Load(),
			"last_block": s.lastBlock.Load(),
			"queued":     len(s.deliveries),
		},
	}
}

func (s *Subscriber) Close() error {
	s.logger.Info("Subscriber.Close")
	s.cancel(nil)

	var errArr []error
	for _, src := range s.options.Sources {
		if err := src.Close(); err != nil {
			errArr = append(errArr, fmt.Errorf("failure during %s Close: %w", src.Name(), err))
		}
	}

	s.logger.Info("Subscriber.Group.Wait")
	errGr := s.group.Wait()
	if errGr != nil && !errors.Is(errGr, context.Canceled) {
		errArr = append(errArr, errGr)
	}
	err := errors.Join(errArr...)
	s.logger.Info("Subscriber.Close DONE", "err", err)
	return err
}

func setMaxValue(v *atomic.Uint64, value uint64) uint64 {
	for {
		old := v.Load()
		if old >= value {
			return old
		}
		if v.CompareAndSwap(old, value) {
			return old
		}
	}
}

// deliver hands d to the dispatch loop unless ctx is done first.
func deliver(ctx context.Context, out chan<- Delivery, d Delivery) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- d:
		return nil
	}
}

package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"StockPulse/internal/model"
)

// DefaultInterval is the refresh interval used when none is given.
const DefaultInterval = 20 * time.Second

// FetchFunc retrieves the latest value for symbol. prev is the last value the
// poller holds for the same symbol, or nil.
type FetchFunc[T any] func(ctx context.Context, symbol string, prev *T) (*T, error)

// Snapshot is a point-in-time copy of a poller's refresh state.
type Snapshot[T any] struct {
	Symbol    string              `json:"symbol"`
	Status    model.RefreshStatus `json:"status"`
	Data      *T                  `json:"data"`
	Loading   bool                `json:"loading"`
	Err       error               `json:"-"`
	LastFetch time.Time           `json:"lastFetch"`
}

// Option configures a Poller.
type Option func(*options)

type options struct {
	clock   Clock
	timeout time.Duration
}

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithTimeout bounds each fetch. Zero leaves fetches bounded only by the
// poller's lifetime.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

type fetchResult[T any] struct {
	gen  uint64
	data *T
	err  error
}

// Poller fetches one symbol immediately on start and then on every tick of
// its schedule. At most one fetch is in flight: ticks and manual refreshes
// that land during a fetch are dropped. Results of a superseded fetch (after
// a symbol change or stop) are discarded.
type Poller[T any] struct {
	name     string
	fetch    FetchFunc[T]
	schedule cron.Schedule
	opts     options
	onUpdate func(Snapshot[T])

	mu      sync.Mutex
	state   Snapshot[T]
	gen     uint64
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	trigger  chan struct{}
	symbolCh chan string
}

// NewPoller creates a poller for symbol. An interval below one second falls
// back to DefaultInterval.
func NewPoller[T any](name, symbol string, interval time.Duration, fetch FetchFunc[T], opts ...Option) *Poller[T] {
	if interval < time.Second {
		interval = DefaultInterval
	}
	o := options{clock: RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Poller[T]{
		name:     name,
		fetch:    fetch,
		schedule: cron.Every(interval),
		opts:     o,
		state:    Snapshot[T]{Symbol: symbol, Status: model.StatusIdle},
		trigger:  make(chan struct{}, 1),
		symbolCh: make(chan string),
	}
}

// OnUpdate registers fn to receive every state change. It must be called
// before Start. fn runs on the poller goroutine and must not block.
func (p *Poller[T]) OnUpdate(fn func(Snapshot[T])) *Poller[T] {
	p.onUpdate = fn
	return p
}

// Start launches the polling loop. It is a no-op if already running.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.running = true
	go p.run(ctx, p.done)
}

// Stop cancels the loop and any in-flight fetch and waits for the loop to exit.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

// Refresh requests an immediate fetch. It returns false without doing
// anything when a fetch is already in flight or the poller is not running.
func (p *Poller[T]) Refresh() bool {
	p.mu.Lock()
	ok := p.running && !p.state.Loading
	p.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case p.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// SetSymbol switches the poller to symbol, cancelling the in-flight fetch,
// clearing state and restarting the cycle with an immediate fetch.
func (p *Poller[T]) SetSymbol(symbol string) {
	p.mu.Lock()
	if p.state.Symbol == symbol {
		p.mu.Unlock()
		return
	}
	if !p.running {
		p.state = Snapshot[T]{Symbol: symbol, Status: model.StatusIdle}
		p.mu.Unlock()
		return
	}
	done := p.done
	p.mu.Unlock()

	select {
	case p.symbolCh <- symbol:
	case <-done:
	}
}

// Snapshot returns a copy of the current state.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller[T]) nextDelay() time.Duration {
	now := p.opts.clock.Now()
	return p.schedule.Next(now).Sub(now)
}

func (p *Poller[T]) run(ctx context.Context, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.state.Loading = false
		p.mu.Unlock()
		close(done)
	}()

	results := make(chan fetchResult[T])
	var cancelFetch context.CancelFunc
	inFlight := false

	begin := func() {
		p.mu.Lock()
		p.gen++
		gen, symbol, prev := p.gen, p.state.Symbol, p.state.Data
		p.state.Loading = true
		p.state.Status = model.StatusLoading
		snap := p.state
		p.mu.Unlock()
		p.notify(snap)

		var fctx context.Context
		if p.opts.timeout > 0 {
			fctx, cancelFetch = context.WithTimeout(ctx, p.opts.timeout)
		} else {
			fctx, cancelFetch = context.WithCancel(ctx)
		}
		inFlight = true

		go func() {
			data, err := p.fetch(fctx, symbol, prev)
			select {
			case results <- fetchResult[T]{gen: gen, data: data, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	abort := func() {
		if cancelFetch != nil {
			cancelFetch()
			cancelFetch = nil
		}
		inFlight = false
	}
	defer abort()

	begin()
	timer := p.opts.clock.NewTimer(p.nextDelay())
	defer func() { timer.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return

		case <-timer.C():
			if inFlight {
				log.Printf("[WARN] %s poller %s: tick skipped, fetch still in flight", p.name, p.Snapshot().Symbol)
			} else {
				begin()
			}
			timer = p.opts.clock.NewTimer(p.nextDelay())

		case <-p.trigger:
			if !inFlight {
				begin()
			}

		case symbol := <-p.symbolCh:
			abort()
			p.mu.Lock()
			p.state = Snapshot[T]{Symbol: symbol, Status: model.StatusIdle}
			p.mu.Unlock()
			timer.Stop()
			begin()
			timer = p.opts.clock.NewTimer(p.nextDelay())

		case r := <-results:
			p.mu.Lock()
			if r.gen != p.gen {
				p.mu.Unlock()
				continue
			}
			p.state.Loading = false
			p.state.LastFetch = p.opts.clock.Now()
			if r.err != nil {
				p.state.Err = r.err
				p.state.Status = model.StatusError
			} else {
				p.state.Data = r.data
				p.state.Err = nil
				p.state.Status = model.StatusReady
			}
			snap := p.state
			p.mu.Unlock()
			abort()

			if r.err != nil && ctx.Err() == nil {
				log.Printf("[WARN] %s poller %s: fetch failed: %v", p.name, snap.Symbol, r.err)
			}
			p.notify(snap)
		}
	}
}

func (p *Poller[T]) notify(snap Snapshot[T]) {
	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
}

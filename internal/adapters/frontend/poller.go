package frontend

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// Poller runs live passes on a fixed interval. Each pass fetches mail received since the
// start of the previous successful pass.
type Poller struct {
	service  *core.TrackerService
	logger   *zap.Logger
	interval time.Duration
	lookback time.Duration
	limit    int
	now      func() time.Time

	mu        sync.Mutex
	lastCheck time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewPoller creates a new live poller. The first pass looks back by lookback.
func NewPoller(service *core.TrackerService, logger *zap.Logger, interval, lookback time.Duration, limit int) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		service:  service,
		logger:   logger,
		interval: interval,
		lookback: lookback,
		limit:    limit,
		now:      time.Now,
	}
}

// Name identifies the poller in logs
func (p *Poller) Name() string {
	return "poller"
}

// Start launches the polling loop
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.lastCheck = p.now().Add(-p.lookback)

	p.logger.Info("Live poller starting",
		zap.Duration("interval", p.interval),
		zap.Duration("lookback", p.lookback),
		zap.Int("limit", p.limit))

	go p.loop(ctx, p.done)
	return nil
}

// Stop cancels the loop and waits for the current pass to finish
func (p *Poller) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	p.logger.Info("Live poller stopped")
	return nil
}

// Reset moves the check time back to now minus the initial lookback
func (p *Poller) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCheck = p.now().Add(-p.lookback)
}

// LastCheck returns the lower bound of the next pass
func (p *Poller) LastCheck() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCheck
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce runs a single live pass and advances the check time when it succeeds
func (p *Poller) RunOnce(ctx context.Context) (*core.PassSummary, error) {
	started := p.now()

	summary, err := p.service.RunPass(ctx, core.FetchQuery{Since: p.LastCheck(), Limit: p.limit}, false)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("Live pass failed", zap.Error(err))
		}
		return nil, err
	}

	p.mu.Lock()
	p.lastCheck = started
	p.mu.Unlock()

	if summary.Created+summary.Updated > 0 {
		p.logger.Info("Live pass applied updates",
			zap.String("pass_id", summary.ID),
			zap.Int("created", summary.Created),
			zap.Int("updated", summary.Updated))
	}
	return summary, nil
}

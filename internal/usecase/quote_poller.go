package usecase

import (
	"context"
	"sync"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
	applogger "QuotePull/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type quoteSource interface {
	GetQuote(ctx context.Context, symbol models.Symbol) (models.MarketTick, bool)
}

// QuotePoller snapshots a watchlist through the aggregator at a fixed
// interval and hands the ticks it got to a sink.
type QuotePoller struct {
	src      quoteSource
	sink     repository.QuoteSink
	symbols  []models.Symbol
	interval time.Duration
	l        *applogger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQuotePoller creates a poller. It does nothing when the watchlist is empty
// or the interval is not positive.
func NewQuotePoller(src quoteSource, sink repository.QuoteSink, symbols []models.Symbol, interval time.Duration, l *applogger.Logger) *QuotePoller {
	if l == nil {
		l = applogger.Nop()
	}
	return &QuotePoller{src: src, sink: sink, symbols: symbols, interval: interval, l: l}
}

// Start polls once immediately, then once per interval.
func (p *QuotePoller) Start(ctx context.Context) {
	if len(p.symbols) == 0 || p.interval <= 0 || p.sink == nil {
		p.l.Info("quote poller disabled")
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Poll(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Poll(ctx)
			}
		}
	}()
	p.l.Info("quote poller started",
		applogger.Int("symbols", len(p.symbols)),
		applogger.Duration("interval", p.interval))
}

// Poll fetches every watchlist symbol and publishes what came back, in
// watchlist order. Symbols with no data are skipped.
func (p *QuotePoller) Poll(ctx context.Context) int {
	ticks := make([]models.MarketTick, len(p.symbols))
	found := make([]bool, len(p.symbols))

	var g errgroup.Group
	g.SetLimit(4)
	for i, sym := range p.symbols {
		g.Go(func() error {
			ticks[i], found[i] = p.src.GetQuote(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.MarketTick, 0, len(ticks))
	var missing []string
	for i, ok := range found {
		if ok {
			out = append(out, ticks[i])
		} else {
			missing = append(missing, p.symbols[i].String())
		}
	}
	if len(missing) > 0 {
		p.l.Debug("no quote for symbols", applogger.Strings("symbols", missing))
	}
	if len(out) == 0 {
		return 0
	}
	if err := p.sink.PublishQuotes(ctx, out); err != nil {
		p.l.Error("publish quotes failed", applogger.Int("count", len(out)), applogger.Error(err))
		return 0
	}
	return len(out)
}

// Shutdown stops the loop and waits for the current round.
func (p *QuotePoller) Shutdown() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

package providers

import (
	"context"
	"time"

	xhttp "QuotePull/pkg/http"
	applogger "QuotePull/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Option configures an HTTP-backed provider.
type Option func(*base)

// base holds what every HTTP quote provider shares.
type base struct {
	name      string
	priority  int
	rateLimit int
	quoteURL  string
	klineURL  string
	timeout   time.Duration
	client    *xhttp.Client
	doer      xhttp.Doer
	logger    *applogger.Logger
}

func newBase(name string, priority, rateLimit int, quoteURL, klineURL string, opts []Option) base {
	b := base{
		name:      name,
		priority:  priority,
		rateLimit: rateLimit,
		quoteURL:  quoteURL,
		klineURL:  klineURL,
		timeout:   defaultTimeout,
		logger:    applogger.Nop(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	clientOpts := []xhttp.ClientOption{xhttp.WithTimeout(b.timeout)}
	if b.doer != nil {
		clientOpts = append(clientOpts, xhttp.WithDoer(b.doer))
	}
	b.client = xhttp.NewClient(clientOpts...)
	b.logger = b.logger.With(applogger.String("provider", name))
	return b
}

// WithQuoteURL overrides the realtime quote endpoint base.
func WithQuoteURL(u string) Option {
	return func(b *base) {
		if u != "" {
			b.quoteURL = u
		}
	}
}

// WithKlineURL overrides the candle endpoint base.
func WithKlineURL(u string) Option {
	return func(b *base) {
		if u != "" {
			b.klineURL = u
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithHTTPDoer replaces the transport, mostly for tests.
func WithHTTPDoer(d xhttp.Doer) Option {
	return func(b *base) { b.doer = d }
}

// WithLogger sets the provider logger.
func WithLogger(l *applogger.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

func (b *base) Name() string   { return b.name }
func (b *base) Priority() int  { return b.priority }
func (b *base) RateLimit() int { return b.rateLimit }

func (b *base) fetch(ctx context.Context, url string, query map[string][]string, headers map[string]string) ([]byte, bool) {
	body, err := b.client.Get(ctx, url, query, headers)
	if err != nil {
		b.logger.Debug("upstream request failed", applogger.String("url", url), applogger.Error(err))
		return nil, false
	}
	return body, true
}

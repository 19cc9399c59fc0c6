package geo

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
)

type Options struct {
	PostcodeURL   string
	RoutingURL    string
	RoutingKey    string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client talks to postcodes.io and OpenRouteService. Every call is bounded
// by Options.Timeout and shares one outbound rate limiter.
type Client struct {
	http        *http.Client
	postcodeURL string
	routingURL  string
	routingKey  string
	timeout     time.Duration
	limiter     *rate.Limiter
	log         *zap.Logger
}

func NewClient(opts Options, log *zap.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		burst = int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		http:        &http.Client{Timeout: timeout},
		postcodeURL: opts.PostcodeURL,
		routingURL:  opts.RoutingURL,
		routingKey:  opts.RoutingKey,
		timeout:     timeout,
		limiter:     rate.NewLimiter(limit, burst),
		log:         log,
	}
}

// begin bounds ctx by the client timeout and waits for a rate-limit token.
func (c *Client) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	if err := c.limiter.Wait(ctx); err != nil {
		cancel()
		return nil, nil, upstreamErr(err)
	}
	return ctx, cancel, nil
}

func upstreamErr(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return httperr.Dependency("geo_timeout", "Location service timed out.", err)
	}
	return httperr.Dependency("geo_unavailable", "Location service unavailable.", err)
}

var _ Lookup = (*Client)(nil)

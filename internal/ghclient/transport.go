package ghclient

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimitedTransport spaces outgoing requests. It waits, it never retries.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func newRateLimitedTransport(base http.RoundTripper, rps float64) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if rps <= 0 {
		return base
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedTransport{base: base, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

package httpclient

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type traceTransport struct {
	base http.RoundTripper
	name string
}

// NewTraceTransport returns a RoundTripper that logs requests at debug level.
func NewTraceTransport(name string, base http.RoundTripper) http.RoundTripper {
	return &traceTransport{base: base, name: name}
}

// NewTraceClient returns an HTTP client with the given timeout that logs requests.
func NewTraceClient(name string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTraceTransport(name, nil),
	}
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		log.Debug().
			Str("client", t.name).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Dur("duration", duration).
			Err(err).
			Msg("HTTP request failed")
		return nil, err
	}

	log.Debug().
		Str("client", t.name).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("HTTP response")
	return resp, nil
}

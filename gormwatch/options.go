package gormwatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const DefaultFetchTimeout = 15 * time.Second

type options struct {
	logger     zerolog.Logger
	timeout    time.Duration
	registerer prometheus.Registerer
	name       string
}

func defaultOptions() options {
	return options{
		logger:  zerolog.Nop(),
		timeout: DefaultFetchTimeout,
		name:    "default",
	}
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger. Clients are silent by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFetchTimeout bounds every database round trip.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithMetrics registers the client metrics in reg. name becomes the "client"
// label and must be unique per registry.
func WithMetrics(reg prometheus.Registerer, name string) Option {
	return func(o *options) {
		o.registerer = reg
		if name != "" {
			o.name = name
		}
	}
}

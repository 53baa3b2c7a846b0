package watchpager

import "github.com/rs/zerolog"

type options struct {
	logger zerolog.Logger
}

func defaultOptions() options {
	return options{
		logger: zerolog.Nop(),
	}
}

// Option configures a Pager.
type Option func(*options)

// WithLogger sets the logger used for diagnostics. Pagers are silent by
// default.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

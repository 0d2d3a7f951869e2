package interactive

import (
	"regexp"

	"github.com/rs/zerolog"
)

type options struct {
	delim *regexp.Regexp
	async bool
	log   zerolog.Logger
}

// Option configures a Conversation or a Trigger.
type Option func(*options)

func newOptions(opts ...Option) options {
	o := options{delim: LineDelimiter, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithDelimiter splits output on re instead of line endings.
func WithDelimiter(re *regexp.Regexp) Option {
	return func(o *options) {
		if re != nil {
			o.delim = re
		}
	}
}

// WithAsync runs Trigger callbacks on their own goroutines. Conversations
// ignore it.
func WithAsync() Option {
	return func(o *options) { o.async = true }
}

// WithLogger logs matched tokens at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

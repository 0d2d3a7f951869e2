package interactive

import (
	"context"

	"github.com/palantir/giraffe-sub000"
)

// Trigger runs a callback whenever a token on a command's stdout matches.
type Trigger struct {
	future    *giraffe.Future
	callbacks ResponseProvider[func()]
	opts      options
}

// NewTrigger watches the stdout of the command behind f. Callbacks run on the
// watching goroutine unless WithAsync is given.
func NewTrigger(f *giraffe.Future, callbacks ResponseProvider[func()], opts ...Option) *Trigger {
	o := newOptions(opts...)
	o.log = o.log.With().Str("component", "trigger").Str("future", f.ID().String()).Logger()

	return &Trigger{future: f, callbacks: callbacks, opts: o}
}

// Run reads stdout until it ends or ctx is done.
func (t *Trigger) Run(ctx context.Context) error {
	return Watch(ctx, t.future.Stdout(), t.opts.delim, t.fire)
}

// Start runs the trigger on a new goroutine. The channel receives its result
// once.
func (t *Trigger) Start(ctx context.Context) <-chan error {
	return start(ctx, t.Run)
}

func (t *Trigger) fire(token string) (bool, error) {
	callback, ok, err := t.callbacks.Lookup(token)
	if err != nil || !ok || callback == nil {
		return false, err
	}

	t.opts.log.Debug().Str("token", token).Bool("async", t.opts.async).Msg("trigger fired")

	if t.opts.async {
		go callback()
	} else {
		callback()
	}

	return true, nil
}

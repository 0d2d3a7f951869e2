package interactive

import (
	"context"
	"fmt"
	"io"

	"github.com/palantir/giraffe-sub000"
)

// Conversation answers prompts on a command's stdout by writing the matched
// reply to its stdin.
type Conversation struct {
	future *giraffe.Future
	script ResponseProvider[string]
	opts   options
}

// NewConversation creates a conversation with the command behind f.
func NewConversation(f *giraffe.Future, script ResponseProvider[string], opts ...Option) *Conversation {
	o := newOptions(opts...)
	o.log = o.log.With().Str("component", "conversation").Str("future", f.ID().String()).Logger()

	return &Conversation{future: f, script: script, opts: o}
}

// Run reads stdout until it ends or ctx is done. Output that matches no
// prompt is discarded.
func (c *Conversation) Run(ctx context.Context) error {
	return Watch(ctx, c.future.Stdout(), c.opts.delim, c.reply)
}

// Start runs the conversation on a new goroutine. The channel receives its
// result once.
func (c *Conversation) Start(ctx context.Context) <-chan error {
	return start(ctx, c.Run)
}

func (c *Conversation) reply(token string) (bool, error) {
	reply, ok, err := c.script.Lookup(token)
	if err != nil || !ok {
		return false, err
	}

	c.opts.log.Debug().Str("prompt", token).Msg("answering prompt")

	if _, err := io.WriteString(c.future.Stdin(), reply); err != nil {
		return false, fmt.Errorf("failed to write reply: %w", err)
	}

	return true, nil
}

func start(ctx context.Context, run func(context.Context) error) <-chan error {
	done := make(chan error, 1)

	go func() { done <- run(ctx) }()

	return done
}

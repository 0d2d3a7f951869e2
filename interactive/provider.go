package interactive

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// ErrAmbiguous is returned by an unordered provider when a token matches
// more than one matcher.
var ErrAmbiguous = errors.New("token matched by more than one matcher")

// Matcher recognizes a token and produces the response for it.
type Matcher[T any] interface {
	Matches(token string) bool
	Response(token string) T
}

// ResponseProvider returns the response for a token. ok is false when no
// matcher accepts the token.
type ResponseProvider[T any] interface {
	Lookup(token string) (resp T, ok bool, err error)
}

type funcMatcher[T any] struct {
	match   func(string) bool
	respond func(string) T
}

func (m funcMatcher[T]) Matches(token string) bool { return m.match(token) }
func (m funcMatcher[T]) Response(token string) T   { return m.respond(token) }

// Builder collects matchers for a ResponseProvider.
type Builder[T any] struct {
	matchers []Matcher[T]
	build    func([]Matcher[T]) ResponseProvider[T]
}

// NewOrdered returns a builder for a provider that expects its matchers in
// order. Only the current matcher is consulted; once it matches, the provider
// advances to the next one. After the last match every lookup misses.
func NewOrdered[T any]() *Builder[T] {
	return &Builder[T]{build: func(m []Matcher[T]) ResponseProvider[T] {
		return &ordered[T]{matchers: m}
	}}
}

// NewUnordered returns a builder for a provider that consults every matcher
// on each lookup.
func NewUnordered[T any]() *Builder[T] {
	return &Builder[T]{build: func(m []Matcher[T]) ResponseProvider[T] {
		return &unordered[T]{matchers: m}
	}}
}

// Exact matches a token equal to prompt and responds with resp.
func (b *Builder[T]) Exact(prompt string, resp T) *Builder[T] {
	return b.ExactFunc(prompt, constant(resp))
}

// ExactFunc matches a token equal to prompt and responds with fn(token).
func (b *Builder[T]) ExactFunc(prompt string, fn func(string) T) *Builder[T] {
	return b.PredicateFunc(func(token string) bool { return token == prompt }, fn)
}

// Regex matches a token that the pattern matches in full. It panics if the
// pattern does not compile.
func (b *Builder[T]) Regex(pattern string, resp T) *Builder[T] {
	return b.RegexFunc(pattern, constant(resp))
}

// RegexFunc is Regex with a dynamic response.
func (b *Builder[T]) RegexFunc(pattern string, fn func(string) T) *Builder[T] {
	re := regexp.MustCompile(`^(?:` + pattern + `)$`)

	return b.PredicateFunc(re.MatchString, fn)
}

// Predicate matches tokens accepted by pred.
func (b *Builder[T]) Predicate(pred func(string) bool, resp T) *Builder[T] {
	return b.PredicateFunc(pred, constant(resp))
}

// PredicateFunc matches tokens accepted by pred and responds with fn(token).
func (b *Builder[T]) PredicateFunc(pred func(string) bool, fn func(string) T) *Builder[T] {
	return b.Add(funcMatcher[T]{match: pred, respond: fn})
}

// Add appends m.
func (b *Builder[T]) Add(m Matcher[T]) *Builder[T] {
	if m == nil {
		panic("interactive: nil matcher")
	}

	b.matchers = append(b.matchers, m)

	return b
}

// Build returns the provider. Later changes to the builder do not affect it.
func (b *Builder[T]) Build() ResponseProvider[T] {
	return b.build(append([]Matcher[T](nil), b.matchers...))
}

func constant[T any](v T) func(string) T {
	return func(string) T { return v }
}

type ordered[T any] struct {
	mu       sync.Mutex
	matchers []Matcher[T]
	next     int
}

func (p *ordered[T]) Lookup(token string) (T, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T

	if p.next >= len(p.matchers) {
		return zero, false, nil
	}

	m := p.matchers[p.next]
	if !m.Matches(token) {
		return zero, false, nil
	}

	p.next++

	return m.Response(token), true, nil
}

type unordered[T any] struct {
	matchers []Matcher[T]
}

func (p *unordered[T]) Lookup(token string) (T, bool, error) {
	var (
		resp    T
		matched int
	)

	for _, m := range p.matchers {
		if m.Matches(token) {
			matched++
			resp = m.Response(token)
		}
	}

	if matched > 1 {
		var zero T
		return zero, false, fmt.Errorf("%w: %q matched %d times", ErrAmbiguous, token, matched)
	}

	return resp, matched == 1, nil
}

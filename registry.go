package giraffe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// LocalURI is the URI of the local execution system.
const LocalURI = "exec:///"

// Attributes carries provider-specific settings such as credentials, loggers or TTY mode.
type Attributes map[string]any

// Value returns the raw value stored under key.
func (a Attributes) Value(key string) (any, bool) {
	v, ok := a[key]
	return v, ok
}

// String returns the string stored under key, or "" when absent or of another type.
func (a Attributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Bool returns the bool stored under key. The strings "true" and "1" count as true.
func (a Attributes) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}

// Int returns the int stored under key, or fallback.
func (a Attributes) Int(key string, fallback int) int {
	if v, ok := a[key].(int); ok {
		return v
	}

	return fallback
}

// Duration returns the duration stored under key, parsing strings with time.ParseDuration.
func (a Attributes) Duration(key string, fallback time.Duration) time.Duration {
	switch v := a[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}

	return fallback
}

type registry struct {
	mu        sync.Mutex
	providers map[string]Provider
	systems   map[string]System

	// opening holds keys whose provider is still connecting.
	opening map[string]struct{}
}

var systems = &registry{
	providers: make(map[string]Provider),
	systems:   make(map[string]System),
	opening:   make(map[string]struct{}),
}

// Register makes a provider available for its scheme. It panics if p is nil or
// a provider for the scheme is already registered. Providers call it from init.
func Register(p Provider) {
	if p == nil {
		panic("giraffe: Register provider is nil")
	}

	scheme := strings.ToLower(p.Scheme())

	systems.mu.Lock()
	defer systems.mu.Unlock()

	if _, dup := systems.providers[scheme]; dup {
		panic("giraffe: Register called twice for scheme " + scheme)
	}

	systems.providers[scheme] = p
}

// Lookup returns the provider registered for scheme.
func Lookup(scheme string) (Provider, error) {
	systems.mu.Lock()
	defer systems.mu.Unlock()

	p, ok := systems.providers[strings.ToLower(scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, scheme)
	}

	return p, nil
}

// Schemes returns the registered schemes.
func Schemes() []string {
	systems.mu.Lock()
	defer systems.mu.Unlock()

	out := make([]string, 0, len(systems.providers))
	for s := range systems.providers {
		out = append(out, s)
	}

	return out
}

// NewSystem opens a system for uri using the provider registered for its scheme.
// It fails with ErrSystemExists while an open system for the same URI exists or
// is being opened. The provider connects without holding the registry lock.
func NewSystem(ctx context.Context, uri string, attrs Attributes) (System, error) {
	u, key, err := normalizeURI(uri)
	if err != nil {
		return nil, err
	}

	p, err := Lookup(u.Scheme)
	if err != nil {
		return nil, err
	}

	if err := systems.reserve(key); err != nil {
		return nil, err
	}

	sys, err := p.NewSystem(ctx, u, attrs)

	systems.mu.Lock()
	defer systems.mu.Unlock()

	delete(systems.opening, key)

	if err != nil {
		return nil, err
	}

	systems.systems[key] = sys

	return sys, nil
}

func (r *registry) reserve(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.opening[key]; busy {
		return fmt.Errorf("%w: %s", ErrSystemExists, key)
	}

	if existing, ok := r.systems[key]; ok && existing.IsOpen() {
		return fmt.Errorf("%w: %s", ErrSystemExists, key)
	}

	r.opening[key] = struct{}{}

	return nil
}

// GetSystem returns the open system for uri.
func GetSystem(uri string) (System, error) {
	_, key, err := normalizeURI(uri)
	if err != nil {
		return nil, err
	}

	systems.mu.Lock()
	defer systems.mu.Unlock()

	sys, ok := systems.systems[key]
	if !ok || !sys.IsOpen() {
		return nil, fmt.Errorf("%w: %s", ErrSystemNotFound, key)
	}

	return sys, nil
}

// Default returns the open local system, creating it if needed. The local
// provider must be imported for its scheme to resolve.
func Default(ctx context.Context) (System, error) {
	sys, err := GetSystem(LocalURI)
	if err == nil {
		return sys, nil
	}

	sys, err = NewSystem(ctx, LocalURI, nil)
	if errors.Is(err, ErrSystemExists) {
		// lost a race with another caller
		return GetSystem(LocalURI)
	}

	return sys, err
}

func normalizeURI(raw string) (*url.URL, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", fmt.Errorf("invalid execution system URI %q: %w", raw, err)
	}

	if u.Scheme == "" {
		return nil, "", fmt.Errorf("invalid execution system URI %q: missing scheme", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return u, u.String(), nil
}

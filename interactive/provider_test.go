package interactive

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookup struct {
	token string
	resp  string
	ok    bool
}

func TestOrdered(t *testing.T) {
	t.Parallel()

	p := NewOrdered[string]().
		Exact("first?", "1").
		Regex(`second \d+\?`, "2").
		PredicateFunc(func(s string) bool { return strings.HasPrefix(s, "third") }, strings.ToUpper).
		Build()

	steps := []lookup{
		{token: "second 7?", ok: false},
		{token: "first?", resp: "1", ok: true},
		{token: "first?", ok: false},
		{token: "xsecond 7?", ok: false},
		{token: "second 7?", resp: "2", ok: true},
		{token: "third time", resp: "THIRD TIME", ok: true},
		{token: "third time", ok: false},
	}

	for _, step := range steps {
		resp, ok, err := p.Lookup(step.token)
		require.NoError(t, err)
		assert.Equal(t, step.ok, ok, step.token)
		assert.Equal(t, step.resp, resp, step.token)
	}
}

func TestUnordered(t *testing.T) {
	t.Parallel()

	p := NewUnordered[string]().
		Exact("yes/no?", "yes").
		ExactFunc("echo", func(s string) string { return s + s }).
		Predicate(func(s string) bool { return strings.HasSuffix(s, "continue?") }, "y").
		Build()

	tests := []lookup{
		{token: "echo", resp: "echoecho", ok: true},
		{token: "yes/no?", resp: "yes", ok: true},
		{token: "yes/no?", resp: "yes", ok: true},
		{token: "really continue?", resp: "y", ok: true},
		{token: "unknown", ok: false},
	}

	for _, tt := range tests {
		resp, ok, err := p.Lookup(tt.token)
		require.NoError(t, err)
		assert.Equal(t, tt.ok, ok, tt.token)
		assert.Equal(t, tt.resp, resp, tt.token)
	}
}

func TestUnordered_Ambiguous(t *testing.T) {
	t.Parallel()

	p := NewUnordered[int]().
		Regex(`a.*`, 1).
		Regex(`.*z`, 2).
		Build()

	_, _, err := p.Lookup("abcz")
	require.ErrorIs(t, err, ErrAmbiguous)

	v, ok, err := p.Lookup("abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRegexMatchesWholeToken(t *testing.T) {
	t.Parallel()

	p := NewUnordered[bool]().Regex(`pass|word`, true).Build()

	for token, want := range map[string]bool{
		"pass":     true,
		"word":     true,
		"password": false,
		"passx":    false,
	} {
		_, ok, err := p.Lookup(token)
		require.NoError(t, err)
		assert.Equal(t, want, ok, token)
	}
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	t.Run("build snapshots matchers", func(t *testing.T) {
		t.Parallel()

		b := NewUnordered[string]().Exact("a", "1")
		p := b.Build()
		b.Exact("b", "2")

		_, ok, err := p.Lookup("b")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty ordered provider never matches", func(t *testing.T) {
		t.Parallel()

		_, ok, err := NewOrdered[string]().Build().Lookup("")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid regex panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { NewOrdered[string]().Regex("(", "x") })
	})

	t.Run("nil matcher panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { NewOrdered[string]().Add(nil) })
	})
}

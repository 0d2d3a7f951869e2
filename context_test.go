package giraffe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultContext(t *testing.T) {
	t.Parallel()

	cctx := DefaultContext()

	assert.True(t, cctx.Accepts(0))
	assert.False(t, cctx.Accepts(1))
	assert.True(t, cctx.Environment().IsDefault())

	_, ok := cctx.WorkingDirectory()
	assert.False(t, ok)
	assert.Zero(t, cctx.StdoutWindow())
	assert.Zero(t, cctx.StderrWindow())
}

func TestContextShortcuts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cctx     *CommandContext
		accepted []int
		rejected []int
	}{
		{"ignore", IgnoreExitStatus(), []int{0, 1, 255, NoExitStatus}, nil},
		{"require 2", RequireExitStatus(2), []int{2}, []int{0, 1}},
		{"predicate", NewContextBuilder().RequireExitStatusFunc(func(s int) bool { return s < 2 }).Build(), []int{0, 1}, []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, s := range tt.accepted {
				assert.True(t, tt.cctx.Accepts(s), "status %d", s)
			}

			for _, s := range tt.rejected {
				assert.False(t, tt.cctx.Accepts(s), "status %d", s)
			}
		})
	}
}

func TestContextBuilder(t *testing.T) {
	t.Parallel()

	cctx := NewContextBuilder().
		WorkingDirectory("/tmp").
		Environment(EmptyEnvironment().Set("A", "1")).
		StdoutWindow(10).
		StderrWindow(20).
		Build()

	dir, ok := cctx.WorkingDirectory()
	assert.True(t, ok)
	assert.Equal(t, "/tmp", dir)
	assert.Equal(t, BaseEmpty, cctx.Environment().Base())
	assert.Equal(t, map[string]string{"A": "1"}, cctx.Environment().Changes())
	assert.Equal(t, 10, cctx.StdoutWindow())
	assert.Equal(t, 20, cctx.StderrWindow())
}

func TestContext_EnvironmentIsolated(t *testing.T) {
	t.Parallel()

	env := DefaultEnvironment().Set("A", "1")
	cctx := WithEnvironment(env)

	env.Set("B", "2")
	cctx.Environment().Set("C", "3")

	assert.Equal(t, map[string]string{"A": "1"}, cctx.Environment().Changes())
}

func TestEnvironment(t *testing.T) {
	t.Parallel()

	env := DefaultEnvironment().SetAll(map[string]string{"B": "2", "A": "1"})

	assert.False(t, env.IsDefault())
	assert.Equal(t, []string{"A", "B"}, env.Names())
	assert.Equal(t, "DEFAULT with changes map[A:1 B:2]", env.String())
	assert.Equal(t, "EMPTY with changes map[]", EmptyEnvironment().String())
	assert.False(t, EmptyEnvironment().IsDefault())

	changes := env.Changes()
	changes["A"] = "mutated"
	assert.Equal(t, "1", env.Changes()["A"])
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/providers/docker"
	"github.com/palantir/giraffe-sub000/providers/local"
)

const (
	ephemeralImage = "alpine:latest"
	cleanupTimeout = 10 * time.Second
)

// provisionEphemeralDocker starts a throwaway container with the local docker
// CLI and returns its URI and a func that stops it.
func provisionEphemeralDocker(ctx context.Context, g *globalFlags) (string, func(), error) {
	host, err := resolveDockerHost(ctx, g)
	if err != nil {
		return "", nil, err
	}

	sys, err := local.New(local.WithLogger(g.log))
	if err != nil {
		return "", nil, err
	}

	env := giraffe.DefaultEnvironment()
	if host != "" {
		env.Set("DOCKER_HOST", host)
	}

	run := giraffe.NewBuilder(sys, "docker").
		Args("run", "-d", "--rm", ephemeralImage, "sleep", "infinity").
		Build()

	res, err := giraffe.Execute(run, giraffe.WithEnvironment(env))
	if err != nil {
		_ = sys.Close()
		return "", nil, err
	}

	id := strings.TrimSpace(res.Stdout)
	g.log.Info().Str("container", id).Msg("started ephemeral container")

	cleanup := func() {
		stop := sys.Command("docker", "stop", id)

		if _, err := giraffe.ExecuteTimeout(stop, giraffe.WithEnvironment(env), cleanupTimeout); err != nil {
			g.log.Warn().Err(err).Str("container", id).Msg("failed to stop ephemeral container")
		}

		_ = sys.Close()
	}

	if host != "" && g.dockerHost == "" {
		g.dockerHost = host
	}

	return fmt.Sprintf("%s://%s/", docker.Scheme, id), cleanup, nil
}

// resolveDockerHost returns --docker-host, DOCKER_HOST or the endpoint of the
// active docker context, in that order. An empty result means the client
// default.
func resolveDockerHost(ctx context.Context, g *globalFlags) (string, error) {
	if g.dockerHost != "" {
		return g.dockerHost, nil
	}

	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return host, nil
	}

	sys, err := local.New(local.WithLogger(g.log))
	if err != nil {
		return "", err
	}

	defer func() { _ = sys.Close() }()

	inspect := sys.Command("docker", "context", "inspect", "--format", "{{.Endpoints.docker.Host}}")

	f, err := giraffe.ExecuteAsync(inspect, giraffe.IgnoreExitStatus())
	if err != nil {
		return "", err
	}

	select {
	case <-f.Done():
	case <-ctx.Done():
		f.Cancel()
		return "", ctx.Err()
	}

	res, err := giraffe.WaitFor(f)
	if err != nil || res.ExitStatus != 0 {
		return "", nil //nolint:nilerr // no docker context means the client default
	}

	return strings.TrimSpace(res.Stdout), nil
}

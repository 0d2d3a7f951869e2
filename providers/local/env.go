package local

import (
	"os"
	"strings"

	"github.com/palantir/giraffe-sub000"
)

// buildEnv returns the environment for exec.Cmd.Env. A nil result inherits the
// ambient environment unchanged.
func buildEnv(env *giraffe.Environment, cfg Config) []string {
	changes := env.Changes()

	if env.Base() == giraffe.BaseDefault && len(changes) == 0 && !cfg.HasWhitelist {
		return nil
	}

	out := make([]string, 0, len(changes))

	if env.Base() == giraffe.BaseDefault {
		allowed := make(map[string]bool, len(cfg.Whitelist))
		for _, name := range cfg.Whitelist {
			allowed[name] = true
		}

		for _, kv := range os.Environ() {
			name, _, _ := strings.Cut(kv, "=")

			if cfg.HasWhitelist && !allowed[name] {
				continue
			}

			if _, changed := changes[name]; changed {
				continue
			}

			out = append(out, kv)
		}
	}

	for _, name := range env.Names() {
		out = append(out, name+"="+changes[name])
	}

	return out
}

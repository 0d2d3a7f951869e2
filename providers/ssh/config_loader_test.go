package ssh

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loaderConfig = `
Host build
    HostName 10.0.0.7
    User ci
    Port 2222
    IdentityFile ~/.ssh/build_ed25519
    StrictHostKeyChecking no

Host bastion
    User ops
    IdentityFile /etc/giraffe/bastion.key

Host broken
    HostName 10.0.0.9
    Port twenty-two
`

func TestNewFromSSHConfigReader(t *testing.T) {
	t.Parallel()

	var username string
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	tests := []struct {
		name     string
		alias    string
		want     Config
		uri      string
		wantErr  string
		insecure bool
	}{
		{
			name:     "full entry",
			alias:    "build",
			want:     Config{Host: "10.0.0.7", User: "ci", Port: 2222, PrivateKeyPath: filepath.Join(os.Getenv("HOME"), ".ssh/build_ed25519")},
			uri:      "exec+ssh://ci@10.0.0.7:2222/",
			insecure: true,
		},
		{
			name:  "alias used as host name",
			alias: "bastion",
			want:  Config{Host: "bastion", User: "ops", Port: defaultPort, PrivateKeyPath: "/etc/giraffe/bastion.key"},
			uri:   "exec+ssh://ops@bastion:22/",
		},
		{
			name:  "unknown alias falls back to current user",
			alias: "db01",
			want:  Config{Host: "db01", User: username, Port: defaultPort},
		},
		{
			name:    "invalid port",
			alias:   "broken",
			wantErr: `invalid port "twenty-two" for host broken`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := NewFromSSHConfigReader(tt.alias, strings.NewReader(loaderConfig))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.Host, cfg.Host)
			assert.Equal(t, tt.want.User, cfg.User)
			assert.Equal(t, tt.want.Port, cfg.Port)
			assert.Equal(t, tt.want.PrivateKeyPath, cfg.PrivateKeyPath)
			assert.Equal(t, tt.insecure, cfg.InsecureSkipVerify)

			if tt.uri != "" {
				assert.Equal(t, tt.uri, cfg.URI().String())
			}
		})
	}
}

func TestNewFromSSHConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(loaderConfig), 0o600))

	cfg, err := NewFromSSHConfig("build", path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", cfg.Host)

	_, err = NewFromSSHConfig("build", filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "failed to open ssh config")
	require.ErrorIs(t, err, os.ErrNotExist)
}

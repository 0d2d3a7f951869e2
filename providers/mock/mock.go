package mock

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/palantir/giraffe-sub000"
	"github.com/stretchr/testify/mock"
)

// System implements a mock giraffe.System using testify/mock.
type System struct {
	mock.Mock
}

var _ giraffe.System = (*System)(nil)

// New creates a new mock system.
func New() *System {
	return &System{}
}

// URI mocks returning the system URI.
func (m *System) URI() *url.URL {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).(*url.URL)
}

// IsOpen mocks reporting whether the system is open.
func (m *System) IsOpen() bool {
	return m.Called().Bool(0)
}

// TargetOS mocks returning the target operating system.
func (m *System) TargetOS() giraffe.TargetOS {
	args := m.Called()

	return args.Get(0).(giraffe.TargetOS)
}

// Command builds a real command bound to the mock; it is not recorded.
func (m *System) Command(executable string, args ...any) *giraffe.Command {
	return giraffe.NewCommand(m, executable, args...)
}

// Execute mocks launching a command.
func (m *System) Execute(cmd *giraffe.Command, cctx *giraffe.CommandContext) (*giraffe.Future, error) {
	args := m.Called(cmd, cctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*giraffe.Future), args.Error(1)
}

// Close mocks closing the system.
func (m *System) Close() error {
	return m.Called().Error(0)
}

// Upload mocks copying a file to the system.
func (m *System) Upload(ctx context.Context, localPath, remotePath string, opts ...giraffe.FileOption) error {
	// variadic options are passed as one slice so expectations can use mock.Anything
	return m.Called(ctx, localPath, remotePath, opts).Error(0)
}

// Download mocks copying a file from the system.
func (m *System) Download(ctx context.Context, remotePath, localPath string, opts ...giraffe.FileOption) error {
	return m.Called(ctx, remotePath, localPath, opts).Error(0)
}

// Process implements a mock giraffe.Process using testify/mock. Its streams are
// fixed readers set with WithOutput; stdin is discarded unless a writer is set.
type Process struct {
	mock.Mock

	stdout io.Reader
	stderr io.Reader
	stdin  io.WriteCloser
}

var _ giraffe.Process = (*Process)(nil)

// NewProcess creates a mock process with empty streams.
func NewProcess() *Process {
	return &Process{
		stdout: strings.NewReader(""),
		stderr: strings.NewReader(""),
		stdin:  nopWriteCloser{io.Discard},
	}
}

// WithOutput sets the content of the stdout and stderr streams.
func (m *Process) WithOutput(stdout, stderr string) *Process {
	m.stdout = strings.NewReader(stdout)
	m.stderr = strings.NewReader(stderr)

	return m
}

// WithStdin routes the process input to w.
func (m *Process) WithStdin(w io.WriteCloser) *Process {
	m.stdin = w
	return m
}

// Stdout returns the configured output stream.
func (m *Process) Stdout() io.Reader { return m.stdout }

// Stderr returns the configured error stream.
func (m *Process) Stderr() io.Reader { return m.stderr }

// Stdin returns the configured input stream.
func (m *Process) Stdin() io.WriteCloser { return m.stdin }

// Wait mocks waiting for the process to exit.
func (m *Process) Wait() (int, error) {
	args := m.Called()

	return args.Int(0), args.Error(1)
}

// Destroy mocks terminating the process.
func (m *Process) Destroy() {
	m.Called()
}

// CloseStreams mocks closing the native streams.
func (m *Process) CloseStreams() error {
	return m.Called().Error(0)
}

// Provider implements a mock giraffe.Provider using testify/mock.
type Provider struct {
	mock.Mock

	scheme string
}

var _ giraffe.Provider = (*Provider)(nil)

// NewProvider creates a mock provider for scheme.
func NewProvider(scheme string) *Provider {
	return &Provider{scheme: scheme}
}

// Scheme returns the scheme given to NewProvider.
func (m *Provider) Scheme() string {
	return m.scheme
}

// NewSystem mocks creating a system.
func (m *Provider) NewSystem(ctx context.Context, uri *url.URL, attrs giraffe.Attributes) (giraffe.System, error) {
	args := m.Called(ctx, uri, attrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(giraffe.System), args.Error(1)
}

// StartFunc returns a giraffe.StartFunc that always starts proc, for driving a
// giraffe.Pool in tests.
func StartFunc(proc giraffe.Process) giraffe.StartFunc {
	return func(context.Context) (giraffe.Process, error) { return proc, nil }
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Package streams binds the native streams of a running process to in-memory pipes
// that callers can read from and write to while the process runs.
package streams

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/palantir/giraffe-sub000/internal/pipe"
	"golang.org/x/sync/errgroup"
)

// ChunkSize is the buffer size used by each copy loop.
const ChunkSize = 4096

// Source exposes the native streams of a started process.
type Source interface {
	Stdout() io.Reader
	Stderr() io.Reader
	Stdin() io.WriteCloser
}

type flusher interface {
	Flush() error
}

// Multiplexer owns the stdout, stderr and stdin pipes of one execution and the
// three copy loops that move bytes between those pipes and a process.
type Multiplexer struct {
	stdout *pipe.Pipe
	stderr *pipe.Pipe
	stdin  *pipe.Pipe

	group      errgroup.Group
	finishOnce sync.Once
}

// New creates a multiplexer. A positive window bounds the unread bytes retained
// by the corresponding output pipe.
func New(stdoutWindow, stderrWindow int) *Multiplexer {
	return &Multiplexer{
		stdout: pipe.New(pipe.WithWindow(stdoutWindow)),
		stderr: pipe.New(pipe.WithWindow(stderrWindow)),
		stdin:  pipe.New(),
	}
}

// Stdout returns the caller-facing end of the process output.
func (m *Multiplexer) Stdout() *pipe.Reader {
	return m.stdout.Reader()
}

// Stderr returns the caller-facing end of the process error output.
func (m *Multiplexer) Stderr() *pipe.Reader {
	return m.stderr.Reader()
}

// Stdin returns the caller-facing end of the process input.
func (m *Multiplexer) Stdin() *pipe.Writer {
	return m.stdin.Writer()
}

// Start launches the copy loops. onFailure is called once for every loop that
// fails; a failed loop does not stop the others.
func (m *Multiplexer) Start(src Source, onFailure func(error)) {
	run := func(copyFn func() error) {
		m.group.Go(func() error {
			err := copyFn()
			if err != nil && onFailure != nil {
				onFailure(err)
			}

			return err
		})
	}

	run(func() error { return copyStream(m.stdout.Writer(), src.Stdout(), false) })
	run(func() error { return copyStream(m.stderr.Writer(), src.Stderr(), false) })
	run(func() error {
		dst := src.Stdin()

		err := copyStream(dst, m.stdin.Reader(), true)
		if err != nil {
			return err
		}

		// the caller closed its input end
		if cerr := dst.Close(); cerr != nil && !isClosedError(cerr) {
			return cerr
		}

		return nil
	})
}

// Finish closes the input pipe so the input loop exits, waits for all copy loops
// and then closes the output pipes. Drained output is complete once it returns.
func (m *Multiplexer) Finish() {
	m.finishOnce.Do(func() {
		_ = m.stdin.Writer().Close()
		_ = m.group.Wait()
		_ = m.stdout.Writer().Close()
		_ = m.stderr.Writer().Close()
	})
}

// CloseWriters closes every caller-visible write end without waiting for the
// copy loops. Buffered output stays readable.
func (m *Multiplexer) CloseWriters() {
	_ = m.stdin.Writer().Close()
	_ = m.stdout.Writer().Close()
	_ = m.stderr.Writer().Close()
}

// Result drains both output pipes. Call it only after Finish.
func (m *Multiplexer) Result() (stdout, stderr string) {
	return string(m.stdout.Drain()), string(m.stderr.Drain())
}

// Snapshot returns whatever output is buffered right now without blocking.
func (m *Multiplexer) Snapshot() (stdout, stderr string) {
	return string(m.stdout.Reader().ReadAvailable()), string(m.stderr.Reader().ReadAvailable())
}

func copyStream(dst io.Writer, src io.Reader, flush bool) error {
	if src == nil || dst == nil {
		return nil
	}

	buf := make([]byte, ChunkSize)

	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}

			if f, ok := dst.(flusher); ok && flush {
				if ferr := f.Flush(); ferr != nil {
					return ferr
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

func isClosedError(err error) bool {
	return errors.Is(err, io.ErrClosedPipe) || errors.Is(err, pipe.ErrClosed) || errors.Is(err, io.EOF) ||
		errors.Is(err, os.ErrClosed)
}

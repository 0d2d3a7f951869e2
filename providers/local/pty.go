package local

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"github.com/palantir/giraffe-sub000"
)

// endOfTransmission is the terminal EOF character (^D).
const endOfTransmission = 0x04

func (p *process) startTTY() error {
	if runtime.GOOS == "windows" {
		return fmt.Errorf("cannot start %q on a terminal: %w", p.cmd.Path, giraffe.ErrNotSupported)
	}

	// pty.Start makes the child a session leader, so its pid is also its process group.
	master, err := pty.Start(p.cmd)
	if err != nil {
		return fmt.Errorf("failed to start process on a pseudo-terminal: %w", err)
	}

	p.stdout = ptyReader{master}
	p.stderr = strings.NewReader("")
	p.stdin = ptyWriter{master}
	p.parentFiles = []*os.File{master}

	return nil
}

// ptyReader reports EOF when the terminal is torn down, which Linux signals with EIO.
type ptyReader struct {
	f *os.File
}

func (r ptyReader) Read(b []byte) (int, error) {
	n, err := r.f.Read(b)
	if errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
		return n, io.EOF
	}

	return n, err
}

// ptyWriter sends end-of-transmission on Close instead of closing the master,
// which would also end the output stream.
type ptyWriter struct {
	f *os.File
}

func (w ptyWriter) Write(b []byte) (int, error) {
	return w.f.Write(b)
}

func (w ptyWriter) Close() error {
	_, err := w.f.Write([]byte{endOfTransmission})
	if errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
		return nil
	}

	return err
}

package ffmpeg

import (
	"errors"
	"os"
	"strings"
	"sync"
	"syscall"
)

const stderrTailLimit = 8 << 10

// tailBuffer keeps the last stderrTailLimit bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - stderrTailLimit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}

// withDiagnostics appends captured ffmpeg output to a detail message.
func withDiagnostics(detail string, stderr *tailBuffer) string {
	if stderr == nil {
		return detail
	}
	if text := stderr.String(); text != "" {
		return detail + ": " + text
	}
	return detail
}

func isBrokenPipe(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
		return true
	}
	return strings.Contains(err.Error(), "broken pipe")
}

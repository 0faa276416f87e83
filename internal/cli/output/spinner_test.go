package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_StartStop(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "Fetching realms")
	s.Start()
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Fetching realms") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Errorf("output not cleared: %q", out)
	}
}

func TestSpinner_SuccessAndFail(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "Logging in")
	s.Start()
	s.Success("logged in")
	if !strings.HasSuffix(buf.String(), "✓ logged in\n") {
		t.Errorf("success output = %q", buf.String())
	}

	var buf2 syncBuffer
	s = NewSpinner(&buf2, "Logging in")
	s.Start()
	s.Fail("invalid captcha")
	if !strings.HasSuffix(buf2.String(), "✗ invalid captcha\n") {
		t.Errorf("fail output = %q", buf2.String())
	}
}

func TestSpinner_StopTwiceAndWithoutStart(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "x")
	s.Stop()
	s.Stop()
	s.Start()
	time.Sleep(20 * time.Millisecond)

	if strings.Contains(buf.String(), "x") {
		t.Errorf("spinner drew after Stop: %q", buf.String())
	}
}
